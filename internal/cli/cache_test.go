package cli

// Test Plan for cache and version commands:
// - withCacheAt opens the configured cache path
// - printCacheStats prints counts, limit and age bounds, or JSON
// - Clearing through withCacheAt empties the cache
// - version prints the build information

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/code-ingest/internal/cache"
	"github.com/mvp-joe/code-ingest/internal/config"
)

func seededCacheConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.Cache.MaxEntries = 100

	store, err := cache.Open(cache.Options{Path: cfg.CachePath()}, zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "k1", "one"))
	require.NoError(t, store.Put(ctx, "k2", "two"))
	require.NoError(t, store.Close())
	return cfg
}

func TestCacheStats(t *testing.T) {
	t.Parallel()

	cfg := seededCacheConfig(t)

	var text, js bytes.Buffer
	err := withCacheAt(context.Background(), cfg, func(ctx context.Context, store *cache.Store) error {
		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		if err := printCacheStats(&text, stats, false); err != nil {
			return err
		}
		return printCacheStats(&js, stats, true)
	})
	require.NoError(t, err)

	assert.Contains(t, text.String(), filepath.Join(cfg.OutputDir, "llm_cache.db"))
	assert.Contains(t, text.String(), "limit 100")
	assert.Contains(t, text.String(), "Oldest:")

	var decoded cache.Stats
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, 2, decoded.Entries)
	assert.Equal(t, 100, decoded.MaxEntries)
}

func TestCacheClear(t *testing.T) {
	t.Parallel()

	cfg := seededCacheConfig(t)

	err := withCacheAt(context.Background(), cfg, func(ctx context.Context, store *cache.Store) error {
		n, err := store.Clear(ctx)
		assert.Equal(t, int64(2), n)
		return err
	})
	require.NoError(t, err)

	err = withCacheAt(context.Background(), cfg, func(ctx context.Context, store *cache.Store) error {
		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.Entries)
		return nil
	})
	require.NoError(t, err)
}

func TestCacheStats_Unbounded(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, printCacheStats(&buf, &cache.Stats{Path: "/x/llm_cache.db"}, false))
	assert.Contains(t, buf.String(), "unbounded")
	assert.NotContains(t, buf.String(), "Oldest:")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, buf.String(), "ingest "+Version)
	assert.Contains(t, buf.String(), "Git commit: "+GitCommit)
}
