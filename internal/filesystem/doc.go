// Package filesystem wraps os.Open and os.Stat with retry logic for NFS
// stale file handle errors (ESTALE). Source photo trees are frequently
// NFS mounts; a transient stale handle should not fail an import item.
package filesystem
