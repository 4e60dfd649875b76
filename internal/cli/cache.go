package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/code-ingest/internal/cache"
	"github.com/mvp-joe/code-ingest/internal/config"
)

var cacheJSONFlag bool

// cacheCmd represents the cache command group
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the description cache",
	Long: `Manage the SQLite cache of description service responses.

The cache lives at <output>/llm_cache.db unless cache.path is set.

Available commands:
  stats  - Show entry count, size and age bounds
  clear  - Remove every cached response`,
}

// cacheStatsCmd shows cache statistics
var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(ctx context.Context, store *cache.Store) error {
			stats, err := store.Stats(ctx)
			if err != nil {
				return err
			}
			return printCacheStats(cmd.OutOrStdout(), stats, cacheJSONFlag)
		})
	},
}

// cacheClearCmd removes every cached response
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached response",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(ctx context.Context, store *cache.Store) error {
			n, err := store.Clear(ctx)
			if err != nil {
				return err
			}
			_, _ = green.Fprintf(cmd.OutOrStdout(), "✓ Removed %s cached responses from %s\n", formatNumber(int(n)), store.Path())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheStatsCmd.Flags().BoolVar(&cacheJSONFlag, "json", false, "print statistics as JSON")
}

// withCache opens the configured cache for the duration of fn.
func withCache(cmd *cobra.Command, fn func(context.Context, *cache.Store) error) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.NewLoader(wd, cfgFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return withCacheAt(cmd.Context(), cfg, fn)
}

func withCacheAt(ctx context.Context, cfg *config.Config, fn func(context.Context, *cache.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := cache.Open(cache.Options{
		Path:       cfg.CachePath(),
		MaxEntries: cfg.Cache.MaxEntries,
	}, zerolog.Nop())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, store)
}

func printCacheStats(w io.Writer, stats *cache.Stats, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	limit := "unbounded"
	if stats.MaxEntries > 0 {
		limit = formatNumber(stats.MaxEntries)
	}

	_, _ = bold.Fprintln(w, "Description cache")
	fmt.Fprintf(w, "  Path:     %s\n", dim.Sprint(stats.Path))
	fmt.Fprintf(w, "  Entries:  %s (limit %s)\n", cyan.Sprint(formatNumber(stats.Entries)), limit)
	fmt.Fprintf(w, "  Size:     %.1f KB\n", float64(stats.SizeBytes)/1024)
	if stats.Entries > 0 {
		fmt.Fprintf(w, "  Oldest:   %s\n", stats.Oldest.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "  Newest:   %s\n", stats.Newest.Format("2006-01-02 15:04:05"))
	}
	return nil
}
