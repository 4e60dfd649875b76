package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mvp-joe/code-ingest/internal/cache"
	"github.com/mvp-joe/code-ingest/internal/config"
	"github.com/mvp-joe/code-ingest/internal/describe"
	"github.com/mvp-joe/code-ingest/internal/indexer"
	"github.com/mvp-joe/code-ingest/internal/llm"
	"github.com/mvp-joe/code-ingest/internal/storage"
)

// pipeline wires one ingestion run: indexer → aggregator → output writer,
// with optional enrichment through the description service.
type pipeline struct {
	cfg    *config.Config
	logger zerolog.Logger
	agg    *storage.Aggregator
	qa     *storage.QAStore
	writer *storage.OutputWriter
	idx    indexer.Indexer
	cache  *cache.Store
}

// runResult is the outcome of one pass.
type runResult struct {
	Stats   *indexer.ProcessingStats
	Written []string
	QAPairs int
}

// newPipeline builds the components for cfg. provider overrides the HTTP
// client when non-nil.
func newPipeline(cfg *config.Config, logger zerolog.Logger, provider llm.Provider, opts ...indexer.Option) (*pipeline, error) {
	writer, err := storage.NewOutputWriter(cfg.OutputDir, cfg.Prefix, cfg.GroupKey, logger)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		cfg:    cfg,
		logger: logger,
		agg:    storage.NewAggregator(),
		qa:     storage.NewQAStore(),
		writer: writer,
	}

	if provider != nil || cfg.EnrichmentEnabled() {
		enricher, err := p.newEnricher(provider)
		if err != nil {
			p.close()
			return nil, err
		}
		opts = append([]indexer.Option{indexer.WithEnricher(enricher)}, opts...)
	}

	idx, err := indexer.New(cfg.ToIndexerConfig(), p.agg, logger, opts...)
	if err != nil {
		p.close()
		return nil, fmt.Errorf("failed to create indexer: %w", err)
	}
	p.idx = idx

	return p, nil
}

func (p *pipeline) newEnricher(provider llm.Provider) (*describe.Enricher, error) {
	if provider == nil {
		var responses llm.Cache
		if p.cfg.Cache.Enabled {
			store, err := cache.Open(cache.Options{
				Path:       p.cfg.CachePath(),
				MaxEntries: p.cfg.Cache.MaxEntries,
			}, p.logger)
			if err != nil {
				return nil, fmt.Errorf("failed to open description cache: %w", err)
			}
			p.cache = store
			responses = store
		}

		client, err := llm.NewClient(llm.Config{
			URL:     p.cfg.LLM.URL,
			Model:   p.cfg.LLM.Model,
			APIKey:  p.cfg.LLM.APIKey,
			Timeout: p.cfg.LLM.Timeout,
		}, responses, p.logger)
		if err != nil {
			return nil, err
		}
		provider = client
	}

	describer := describe.NewDescriber(provider, describe.Options{
		Language:         p.cfg.LLM.Language,
		MaxCodeLength:    p.cfg.LLM.MaxCodeLength,
		MaxMessageLength: p.cfg.LLM.MaxMessageLength,
		Temperature:      p.cfg.LLM.Temperature,
		MaxTokens:        p.cfg.LLM.MaxTokens,
		QAPairs:          p.cfg.LLM.QAPairs,
	})

	var qa *storage.QAStore
	if p.cfg.LLM.QAEnabled {
		qa = p.qa
	}

	p.logger.Info().
		Str("provider", provider.Name()).
		Str("model", p.cfg.LLM.Model).
		Bool("cache", p.cache != nil).
		Bool("qa", qa != nil).
		Msg("description enrichment enabled")

	return describe.NewEnricher(describer, qa, p.logger), nil
}

// run performs one full pass. Scopes and Q&A from earlier passes are cleared
// first. Nothing is written when indexing fails or is cancelled.
func (p *pipeline) run(ctx context.Context) (*runResult, error) {
	p.agg.ClearAll()
	p.qa.Reset()

	stats, err := p.idx.Index(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return &runResult{Stats: stats}, fmt.Errorf("ingestion cancelled: %w", ctx.Err())
		}
		return &runResult{Stats: stats}, fmt.Errorf("ingestion failed: %w", err)
	}

	written, err := p.writer.Flush(p.agg, p.qa)
	if err != nil {
		return &runResult{Stats: stats, Written: written}, fmt.Errorf("failed to write output: %w", err)
	}

	return &runResult{Stats: stats, Written: written, QAPairs: p.qa.Len()}, nil
}

func (p *pipeline) close() {
	if p.cache != nil {
		if err := p.cache.Close(); err != nil {
			p.logger.Warn().Err(err).Msg("failed to close description cache")
		}
		p.cache = nil
	}
}
