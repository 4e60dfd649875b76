package indexer

import (
	"context"
	"time"

	"github.com/mvp-joe/code-ingest/internal/chunk"
	"github.com/mvp-joe/code-ingest/internal/indexer/parsers"
)

// Indexer walks a project, parses every file and hands file chunks to a sink.
type Indexer interface {
	// Index processes every configured project type once.
	// Per-file failures are logged and counted; only cancellation and
	// source-directory errors are returned.
	Index(ctx context.Context) (*ProcessingStats, error)
}

// ChunkSink receives file chunks under a scope name.
type ChunkSink interface {
	Add(scope string, entries ...*chunk.Chunk)
}

// Enricher replaces template descriptions with generated ones.
// Implementations fall back to the template text on failure and never abort a file.
type Enricher interface {
	Enrich(ctx context.Context, projectType string, file *chunk.Chunk)
}

// ParserFactory returns the parser for a language.
type ParserFactory func(language string) (parsers.LanguageParser, error)

// Config contains configuration for the indexer.
type Config struct {
	// Root directory of the project to ingest
	RootDir string

	// Project types to process, in order: yii2, bitrix, python, react
	ProjectTypes []string

	// Exclusion entries: bare names, paths or globs
	Exclusions []string

	// Explicit allow-list of root-relative files; bypasses walking
	IncludedFiles []string

	// External parser tools by language ("php", "typescript")
	Parsers map[string]parsers.ToolConfig
}

// DefaultParserTimeout bounds a single external parser invocation.
const DefaultParserTimeout = 60 * time.Second

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig(rootDir string) *Config {
	return &Config{
		RootDir:      rootDir,
		ProjectTypes: []string{ProjectPython},
		Parsers: map[string]parsers.ToolConfig{
			"php": {
				Mode:        parsers.ModeExternal,
				Interpreter: "php",
				Script:      "php_parser.php",
				Timeout:     DefaultParserTimeout,
			},
			"typescript": {
				Mode:        parsers.ModeExternal,
				Interpreter: "node",
				Script:      "ts_parser.js",
				Timeout:     DefaultParserTimeout,
			},
		},
	}
}
