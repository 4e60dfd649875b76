package indexer

import (
	"errors"

	"github.com/mvp-joe/code-ingest/internal/indexer/parsers"
)

// Failure categories used in logs and statistics.
const (
	FailureToolUnavailable = "tool_unavailable"
	FailureParse           = "parse_failure"
	FailureSource          = "source_error"
	FailureUnexpected      = "unexpected"
)

// ProcessingStats tracks statistics about an ingestion run.
type ProcessingStats struct {
	FilesDiscovered       int            `json:"files_discovered"`
	FilesProcessed        int            `json:"files_processed"`
	FilesFailed           int            `json:"files_failed"`
	FilesByScope          map[string]int `json:"files_by_scope"`
	FailuresByCategory    map[string]int `json:"failures_by_category"`
	ProcessingTimeSeconds float64        `json:"processing_time_seconds"`
}

func newProcessingStats() *ProcessingStats {
	return &ProcessingStats{
		FilesByScope:       make(map[string]int),
		FailuresByCategory: make(map[string]int),
	}
}

// failureCategory maps a per-file error onto a category.
func failureCategory(err error) string {
	switch {
	case errors.Is(err, parsers.ErrToolUnavailable):
		return FailureToolUnavailable
	case errors.Is(err, parsers.ErrParseFailure):
		return FailureParse
	case errors.Is(err, parsers.ErrSourceError):
		return FailureSource
	default:
		return FailureUnexpected
	}
}
