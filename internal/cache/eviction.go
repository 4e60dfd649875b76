package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Stats describes the cache contents.
type Stats struct {
	Path       string    `json:"path"`
	Entries    int       `json:"entries"`
	MaxEntries int       `json:"max_entries"`
	SizeBytes  int64     `json:"size_bytes"` // database file size
	Oldest     time.Time `json:"oldest"`
	Newest     time.Time `json:"newest"`
}

// Stats returns entry counts and age bounds.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var (
		count          int
		oldest, newest *int64
	)
	err := sq.Select("COUNT(*)", "MIN(created_at)", "MAX(created_at)").
		From("descriptions").
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&count, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}

	stats := &Stats{Path: s.path, Entries: count, MaxEntries: s.maxEntries}
	if oldest != nil {
		stats.Oldest = time.Unix(0, *oldest)
	}
	if newest != nil {
		stats.Newest = time.Unix(0, *newest)
	}
	if info, err := os.Stat(s.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}

// evictOldest deletes the oldest entries until at most limit remain.
// Returns the number of entries evicted.
func (s *Store) evictOldest(ctx context.Context, limit int) (int, error) {
	var count int
	if err := sq.Select("COUNT(*)").From("descriptions").RunWith(s.db).QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	excess := count - limit
	if excess <= 0 {
		return 0, nil
	}

	rows, err := sq.Select("key").
		From("descriptions").
		OrderBy("created_at ASC", "rowid ASC").
		Limit(uint64(excess)).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to select eviction candidates: %w", err)
	}

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan eviction candidate: %w", err)
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to select eviction candidates: %w", err)
	}

	if _, err := sq.Delete("descriptions").Where(sq.Eq{"key": keys}).RunWith(s.db).ExecContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to evict cache entries: %w", err)
	}
	for _, key := range keys {
		s.mem.Remove(key)
	}
	return len(keys), nil
}
