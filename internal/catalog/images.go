package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

// ErrDuplicateHash is returned by Insert when a record with the same
// content hash already exists. The pipeline pre-checks with FindByHash,
// so hitting this means two writers raced; the caller logs and skips.
var ErrDuplicateHash = errors.New("image with this content hash already exists")

const imageColumns = `id, filename, original_path, hash, thumbnail_path, tags,
	date_taken, camera_model, lens, aperture, shutter_speed, iso,
	focal_length, gps, width, height, created_at`

// FindByHash returns the record with the given content hash, or nil if
// no such record exists. The pipeline calls this before any file copy or
// classification work so duplicates cost nothing beyond the hash itself.
func (s *Store) FindByHash(ctx context.Context, hash string) (*ImageRecord, error) {
	done := observeQuery("find_by_hash")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+imageColumns+" FROM images WHERE hash = ?", hash)

	rec, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to look up hash: %w", err)
	}
	return rec, nil
}

// Insert creates a new image record and increments every tag's reference
// count, creating tag rows on first use, all in one transaction. The
// images.hash UNIQUE constraint is the atomic insert-if-absent backstop:
// a lost dedup race surfaces as ErrDuplicateHash, never as a second row.
func (s *Store) Insert(ctx context.Context, rec *ImageRecord) error {
	done := observeQuery("insert_image")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	txStart := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		done(err)
		return err
	}

	committed := false
	defer func() {
		if !committed {
			metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(time.Since(txStart).Seconds())
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logging.Error("rollback failed: %v", rbErr)
			}
		}
	}()

	tagsJSON, err := marshalTags(rec.Tags)
	if err != nil {
		done(err)
		return err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO images
		(filename, original_path, hash, thumbnail_path, tags,
		date_taken, camera_model, lens, aperture, shutter_speed,
		iso, focal_length, gps, width, height)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Filename,
		rec.OriginalPath,
		rec.Hash,
		rec.ThumbnailName,
		tagsJSON,
		nullString(rec.DateTaken),
		nullString(rec.CameraModel),
		nullString(rec.Lens),
		nullString(rec.Aperture),
		nullString(rec.ShutterSpeed),
		nullString(rec.ISO),
		nullString(rec.FocalLength),
		nullString(rec.GPS),
		rec.Width,
		rec.Height,
	)
	if err != nil {
		done(err)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateHash, rec.Hash)
		}
		return fmt.Errorf("failed to insert image: %w", err)
	}

	for _, tag := range rec.Tags {
		if err := incrementTag(ctx, tx, tag); err != nil {
			done(err)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		done(err)
		return err
	}
	committed = true
	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(time.Since(txStart).Seconds())

	rec.ID, _ = result.LastInsertId()
	rec.CreatedAt = time.Now()
	done(nil)
	return nil
}

// UpdateTags replaces a record's tag set, adjusting tag reference counts
// by the symmetric difference against the stored set. Decrements for
// removed tags, increments (with first-time creation) for added tags,
// and the new set itself are one atomic unit. This is the sibling edit
// path used by the UI collaborator, not part of the import flow.
func (s *Store) UpdateTags(ctx context.Context, id int64, newTags []string) error {
	done := observeQuery("update_tags")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	txStart := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		done(err)
		return err
	}

	committed := false
	defer func() {
		if !committed {
			metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(time.Since(txStart).Seconds())
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logging.Error("rollback failed: %v", rbErr)
			}
		}
	}()

	var storedJSON string
	err = tx.QueryRowContext(ctx, "SELECT tags FROM images WHERE id = ?", id).Scan(&storedJSON)
	if errors.Is(err, sql.ErrNoRows) {
		done(err)
		return fmt.Errorf("no image with id %d", id)
	}
	if err != nil {
		done(err)
		return err
	}

	stored, err := unmarshalTags(storedJSON)
	if err != nil {
		done(err)
		return err
	}

	newSet := make(map[string]bool, len(newTags))
	for _, tag := range newTags {
		newSet[tag] = true
	}
	oldSet := make(map[string]bool, len(stored))
	for _, tag := range stored {
		oldSet[tag] = true
	}

	for _, tag := range stored {
		if !newSet[tag] {
			if _, err := tx.ExecContext(ctx,
				"UPDATE tags SET count = count - 1 WHERE name = ?", tag); err != nil {
				done(err)
				return err
			}
		}
	}

	for _, tag := range newTags {
		if !oldSet[tag] {
			if err := incrementTag(ctx, tx, tag); err != nil {
				done(err)
				return err
			}
		}
	}

	tagsJSON, err := marshalTags(newTags)
	if err != nil {
		done(err)
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE images SET tags = ? WHERE id = ?", tagsJSON, id); err != nil {
		done(err)
		return err
	}

	if err := tx.Commit(); err != nil {
		done(err)
		return err
	}
	committed = true
	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(time.Since(txStart).Seconds())
	done(nil)
	return nil
}

// GetImage returns a single record by id, or nil if it does not exist.
func (s *Store) GetImage(ctx context.Context, id int64) (*ImageRecord, error) {
	done := observeQuery("get_image")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+imageColumns+" FROM images WHERE id = ?", id)

	rec, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListImages returns a page of records plus the total match count.
// Ordering is capture date descending with unknown dates last, then
// creation time descending.
func (s *Store) ListImages(ctx context.Context, opts ListOptions) ([]ImageRecord, int, error) {
	done := observeQuery("list_images")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if opts.PerPage <= 0 {
		opts.PerPage = 50
	}
	if opts.Page < 0 {
		opts.Page = 0
	}

	where := ""
	var params []interface{}
	if opts.Tag != "" {
		// Tags are stored as a JSON array, so the quoted form matches
		// whole tags only
		where = " WHERE tags LIKE ?"
		params = append(params, `%"`+opts.Tag+`"%`)
	}
	if opts.Search != "" {
		if where == "" {
			where = " WHERE tags LIKE ?"
		} else {
			where += " AND tags LIKE ?"
		}
		params = append(params, "%"+opts.Search+"%")
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM images"+where, params...).Scan(&total); err != nil {
		done(err)
		return nil, 0, err
	}

	query := "SELECT " + imageColumns + " FROM images" + where +
		" ORDER BY (date_taken IS NULL), date_taken DESC, created_at DESC LIMIT ? OFFSET ?"
	params = append(params, opts.PerPage, opts.Page*opts.PerPage)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		done(err)
		return nil, 0, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var records []ImageRecord
	for rows.Next() {
		rec, err := scanImage(rows)
		if err != nil {
			done(err)
			return nil, 0, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		done(err)
		return nil, 0, err
	}

	done(nil)
	return records, total, nil
}

// incrementTag bumps a tag's reference count, creating the row on first
// use. Must be called within a transaction.
func incrementTag(ctx context.Context, tx *sql.Tx, name string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tags (name, count) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET count = count + 1
	`, name)
	if err != nil {
		return fmt.Errorf("failed to increment tag %q: %w", name, err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanImage.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanImage(row rowScanner) (*ImageRecord, error) {
	var rec ImageRecord
	var tagsJSON string
	var dateTaken, cameraModel, lens, aperture, shutterSpeed, iso, focalLength, gps sql.NullString
	var width, height sql.NullInt64
	var createdAt int64

	err := row.Scan(
		&rec.ID, &rec.Filename, &rec.OriginalPath, &rec.Hash, &rec.ThumbnailName,
		&tagsJSON, &dateTaken, &cameraModel, &lens, &aperture, &shutterSpeed,
		&iso, &focalLength, &gps, &width, &height, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Tags, err = unmarshalTags(tagsJSON)
	if err != nil {
		return nil, fmt.Errorf("corrupt tag list for image %d: %w", rec.ID, err)
	}
	rec.DateTaken = dateTaken.String
	rec.CameraModel = cameraModel.String
	rec.Lens = lens.String
	rec.Aperture = aperture.String
	rec.ShutterSpeed = shutterSpeed.String
	rec.ISO = iso.String
	rec.FocalLength = focalLength.String
	rec.GPS = gps.String
	rec.Width = int(width.Int64)
	rec.Height = int(height.Int64)
	rec.CreatedAt = time.Unix(createdAt, 0)

	return &rec, nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to serialize tags: %w", err)
	}
	return string(data), nil
}

func unmarshalTags(data string) ([]string, error) {
	if data == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(data), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// nullString stores empty strings as SQL NULL so absent metadata fields
// stay distinguishable from empty ones.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
