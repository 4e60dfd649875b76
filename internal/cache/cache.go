// Package cache stores description-service responses in SQLite, keyed by the
// hash of the full request payload, so identical requests are not repeated
// across runs.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DefaultMemoryEntries sizes the in-memory front of the cache.
const DefaultMemoryEntries = 1024

const schema = `
CREATE TABLE IF NOT EXISTS descriptions (
	key        TEXT PRIMARY KEY,
	response   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_descriptions_created_at ON descriptions(created_at);
`

// Options configures a Store.
type Options struct {
	// Path of the SQLite file. Parent directories are created.
	Path string

	// MaxEntries bounds the number of stored responses; the oldest are
	// evicted first. 0 means unbounded.
	MaxEntries int

	// MemoryEntries sizes the LRU in front of SQLite. 0 uses DefaultMemoryEntries.
	MemoryEntries int
}

// Store is a persistent key → response cache.
type Store struct {
	db         *sql.DB
	mem        *lru.Cache[string, string]
	path       string
	maxEntries int
	logger     zerolog.Logger
	now        func() time.Time
}

// Open opens or creates the cache database at opts.Path.
func Open(opts Options, logger zerolog.Logger) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("cache path is required")
	}
	if opts.MaxEntries < 0 {
		return nil, fmt.Errorf("cache max entries must be >= 0, got %d", opts.MaxEntries)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// One writer at a time keeps SQLite free of lock errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	size := opts.MemoryEntries
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	mem, err := lru.New[string, string](size)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &Store{
		db:         db,
		mem:        mem,
		path:       opts.Path,
		maxEntries: opts.MaxEntries,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the cached response for key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok := s.mem.Get(key); ok {
		return v, true, nil
	}

	var response string
	err := sq.Select("response").
		From("descriptions").
		Where(sq.Eq{"key": key}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&response)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	s.mem.Add(key, response)
	return response, true, nil
}

// Put stores response under key, replacing any previous value, then applies
// the entry bound.
func (s *Store) Put(ctx context.Context, key, response string) error {
	_, err := sq.Replace("descriptions").
		Columns("key", "response", "created_at").
		Values(key, response, s.now().UnixNano()).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	s.mem.Add(key, response)

	if s.maxEntries > 0 {
		evicted, err := s.evictOldest(ctx, s.maxEntries)
		if err != nil {
			return err
		}
		if evicted > 0 {
			s.logger.Debug().Int("evicted", evicted).Int("max_entries", s.maxEntries).Msg("cache entries evicted")
		}
	}
	return nil
}

// Clear removes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := sq.Delete("descriptions").RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	s.mem.Purge()
	n, _ := res.RowsAffected()
	return n, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
