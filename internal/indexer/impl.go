package indexer

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/mvp-joe/code-ingest/internal/indexer/parsers"
)

// indexer implements the Indexer interface.
type indexer struct {
	config    *Config
	newParser ParserFactory
	chunker   Chunker
	sink      ChunkSink
	enricher  Enricher
	progress  ProgressReporter
	logger    zerolog.Logger
}

// Option customizes an indexer.
type Option func(*indexer)

// WithParserFactory replaces the default parser construction.
func WithParserFactory(f ParserFactory) Option {
	return func(idx *indexer) { idx.newParser = f }
}

// WithEnricher enables description enrichment.
func WithEnricher(e Enricher) Option {
	return func(idx *indexer) { idx.enricher = e }
}

// WithProgress sets the progress reporter.
func WithProgress(p ProgressReporter) Option {
	return func(idx *indexer) {
		if p != nil {
			idx.progress = p
		}
	}
}

// WithChunker replaces the default chunker.
func WithChunker(c Chunker) Option {
	return func(idx *indexer) { idx.chunker = c }
}

// New creates a new indexer that adds file chunks to sink.
func New(config *Config, sink ChunkSink, logger zerolog.Logger, opts ...Option) (Indexer, error) {
	if config == nil {
		return nil, fmt.Errorf("indexer config is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("chunk sink is required")
	}
	for _, pt := range config.ProjectTypes {
		if _, err := LookupProfile(pt); err != nil {
			return nil, err
		}
	}

	idx := &indexer{
		config:   config,
		chunker:  NewChunker(),
		sink:     sink,
		progress: &NoOpProgressReporter{},
		logger:   logger,
	}
	idx.newParser = func(language string) (parsers.LanguageParser, error) {
		return parsers.New(language, config.Parsers[language])
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

// Index processes all configured project types sequentially, one file at a time.
func (idx *indexer) Index(ctx context.Context) (*ProcessingStats, error) {
	start := time.Now()
	stats := newProcessingStats()

	for _, projectType := range idx.config.ProjectTypes {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		profile, err := LookupProfile(projectType)
		if err != nil {
			return stats, err
		}
		if err := idx.indexProject(ctx, profile, stats); err != nil {
			stats.ProcessingTimeSeconds = time.Since(start).Seconds()
			return stats, err
		}
	}

	stats.ProcessingTimeSeconds = time.Since(start).Seconds()
	idx.progress.OnComplete(stats)
	idx.logger.Info().
		Int("files", stats.FilesProcessed).
		Int("failed", stats.FilesFailed).
		Float64("seconds", stats.ProcessingTimeSeconds).
		Msg("ingestion complete")
	return stats, nil
}

func (idx *indexer) indexProject(ctx context.Context, profile Profile, stats *ProcessingStats) error {
	log := idx.logger.With().Str("project_type", profile.Name).Logger()

	idx.progress.OnDiscoveryStart(profile.Name)
	discovery, err := NewFileDiscovery(
		profile.DiscoveryOptions(idx.config.RootDir, idx.config.Exclusions, idx.config.IncludedFiles),
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create file discovery: %w", err)
	}

	files, err := discovery.DiscoverFiles()
	if err != nil {
		return fmt.Errorf("failed to discover %s files: %w", profile.Name, err)
	}
	idx.progress.OnDiscoveryComplete(profile.Name, len(files))
	stats.FilesDiscovered += len(files)
	log.Info().Str("root", discovery.Excluder().Root()).Int("files", len(files)).Msg("discovered files")

	parser, err := idx.newParser(profile.Language)
	if err != nil {
		return fmt.Errorf("failed to create %s parser: %w", profile.Language, err)
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			log.Warn().Msg("ingestion cancelled")
			return err
		}

		scope, err := idx.processFile(ctx, parser, profile, file)
		idx.progress.OnFileProcessed(file.RelPath, err)
		if err != nil {
			category := failureCategory(err)
			stats.FilesFailed++
			stats.FailuresByCategory[category]++
			log.Error().Err(err).Str("file", file.RelPath).Str("category", category).Msg("skipping file")
			continue
		}

		stats.FilesProcessed++
		stats.FilesByScope[scope]++
		log.Debug().Str("file", file.RelPath).Str("scope", scope).Msg("file processed")
	}

	return nil
}

// processFile is the per-file failure boundary: parse, build, enrich and hand
// off one file. A panic is converted into an error so the run continues.
func (idx *indexer) processFile(ctx context.Context, parser parsers.LanguageParser, profile Profile, file FileEntry) (scope string, err error) {
	defer func() {
		if r := recover(); r != nil {
			idx.logger.Debug().Str("stack", string(debug.Stack())).Msg("recovered panic")
			err = fmt.Errorf("panic while processing %s: %v", file.RelPath, r)
		}
	}()

	result, err := parser.Parse(ctx, file.Path)
	if err != nil {
		return "", err
	}

	fileChunk, err := idx.chunker.BuildFileChunk(file, profile, result)
	if err != nil {
		return "", err
	}

	if idx.enricher != nil {
		idx.enricher.Enrich(ctx, profile.Name, fileChunk)
	}

	scope = profile.Scope(file.DirType)
	idx.sink.Add(scope, fileChunk)
	return scope, nil
}
