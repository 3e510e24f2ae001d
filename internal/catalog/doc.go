// Package catalog persists imported image records and tag usage counts
// in SQLite.
//
// The content hash is the identity of a record: images.hash carries a
// UNIQUE constraint, so inserting the same bytes twice fails with
// ErrDuplicateHash instead of creating a second row. Every mutation that
// touches both an image row and the tags table runs in one transaction,
// keeping tag counts consistent with the stored tag lists at all times.
package catalog
