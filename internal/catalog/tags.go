package catalog

import (
	"context"
	"time"

	"photo-catalog/internal/logging"
)

// AllTags returns every tag with a positive reference count, most used
// first, ties broken alphabetically.
func (s *Store) AllTags(ctx context.Context) ([]TagCount, error) {
	return s.queryTags(ctx, "all_tags",
		"SELECT id, name, count, created_at FROM tags WHERE count > 0 ORDER BY count DESC, name")
}

// PopularTags returns the limit most used tags. A non-positive limit
// defaults to 20.
func (s *Store) PopularTags(ctx context.Context, limit int) ([]TagCount, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryTags(ctx, "popular_tags",
		"SELECT id, name, count, created_at FROM tags WHERE count > 0 ORDER BY count DESC, name LIMIT ?", limit)
}

func (s *Store) queryTags(ctx context.Context, operation, query string, params ...interface{}) ([]TagCount, error) {
	done := observeQuery(operation)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		done(err)
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var tags []TagCount
	for rows.Next() {
		var tc TagCount
		var createdAt int64
		if err := rows.Scan(&tc.ID, &tc.Name, &tc.Count, &createdAt); err != nil {
			done(err)
			return nil, err
		}
		tc.CreatedAt = time.Unix(createdAt, 0)
		tags = append(tags, tc)
	}
	if err := rows.Err(); err != nil {
		done(err)
		return nil, err
	}

	done(nil)
	return tags, nil
}
