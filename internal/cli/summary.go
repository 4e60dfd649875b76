package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/mvp-joe/code-ingest/internal/indexer"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
	dim    = color.New(color.Faint)
)

// printSummary reports a finished run: per-scope file counts, failures by
// category and the artifacts written.
func printSummary(w io.Writer, stats *indexer.ProcessingStats, written []string, qaPairs int) {
	fmt.Fprintln(w)
	_, _ = green.Fprintf(w, "✓ Ingestion complete: %s files in %.1fs\n",
		formatNumber(stats.FilesProcessed), stats.ProcessingTimeSeconds)

	if len(stats.FilesByScope) > 0 {
		_, _ = bold.Fprintln(w, "Scopes:")
		for _, scope := range sortedKeys(stats.FilesByScope) {
			fmt.Fprintf(w, "  %-20s %s\n", scope, cyan.Sprint(formatNumber(stats.FilesByScope[scope])))
		}
	}

	if stats.FilesFailed > 0 {
		_, _ = yellow.Fprintf(w, "⚠ %s files skipped\n", formatNumber(stats.FilesFailed))
		for _, category := range sortedKeys(stats.FailuresByCategory) {
			fmt.Fprintf(w, "  %-20s %d\n", category, stats.FailuresByCategory[category])
		}
	}

	if qaPairs > 0 {
		fmt.Fprintf(w, "Q&A pairs: %s\n", cyan.Sprint(formatNumber(qaPairs)))
	}

	if len(written) > 0 {
		_, _ = bold.Fprintln(w, "Written:")
		for _, path := range written {
			fmt.Fprintf(w, "  %s\n", dim.Sprint(path))
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatNumber formats n with thousands separators.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
