package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"photo-catalog/internal/filesystem"
)

// hashChunkSize is the read buffer size for streaming file hashing.
const hashChunkSize = 8192

// FileHash computes the SHA-256 digest of a file's content, reading in
// fixed-size chunks so arbitrarily large files never get loaded whole.
// Returns the lowercase hex digest. The content hash is the catalog's
// dedup key: identical bytes always produce the same digest regardless
// of the source path.
func FileHash(path string) (string, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("failed to read file for hashing: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
