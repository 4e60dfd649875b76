package describe

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mvp-joe/code-ingest/internal/chunk"
	"github.com/mvp-joe/code-ingest/internal/storage"
)

// Enricher replaces template descriptions of file, class, method, function
// and component chunks with generated ones, and attaches Q&A pairs to classes.
// Any failure keeps the template description already on the chunk.
type Enricher struct {
	describer *Describer
	qa        *storage.QAStore
	withQA    bool
	logger    zerolog.Logger
}

// NewEnricher creates an enricher. When qa is non-nil, class Q&A is generated
// and collected there as well as on the class chunk.
func NewEnricher(describer *Describer, qa *storage.QAStore, logger zerolog.Logger) *Enricher {
	return &Enricher{
		describer: describer,
		qa:        qa,
		withQA:    qa != nil,
		logger:    logger,
	}
}

// Enrich implements indexer.Enricher.
func (e *Enricher) Enrich(ctx context.Context, projectType string, file *chunk.Chunk) {
	source := file.Name
	if file.Metadata != nil {
		source = file.Metadata.Source
	}
	log := e.logger.With().Str("file", source).Logger()
	fileName := source
	if i := strings.LastIndexAny(source, `/\`); i >= 0 {
		fileName = source[i+1:]
	}

	for _, child := range file.Chunks {
		if ctx.Err() != nil {
			return
		}
		switch child.Type {
		case chunk.KindClass:
			e.enrichClass(ctx, log, projectType, source, child)
		case chunk.KindFunction:
			e.apply(log, child, func() (string, error) {
				return e.describer.DescribeFunction(ctx, projectType, child.Name, child.CodeText(), fileName)
			})
		case chunk.KindReactComponent:
			e.apply(log, child, func() (string, error) {
				return e.describer.DescribeComponent(ctx, projectType, child.Name, child.CodeText(), fileName)
			})
		}
	}

	if ctx.Err() != nil {
		return
	}
	e.apply(log, file, func() (string, error) {
		return e.describer.DescribeFile(ctx, projectType, fileName, fileContent(file))
	})
}

func (e *Enricher) enrichClass(ctx context.Context, log zerolog.Logger, projectType, source string, class *chunk.Chunk) {
	e.apply(log, class, func() (string, error) {
		return e.describer.DescribeClass(ctx, projectType, class.Name, class.CodeText())
	})

	for _, method := range class.Methods {
		if ctx.Err() != nil {
			return
		}
		e.apply(log, method, func() (string, error) {
			return e.describer.DescribeMethod(ctx, projectType, method.Name, method.CodeText(), class.Name, class.Description)
		})
	}

	if !e.withQA || ctx.Err() != nil {
		return
	}
	pairs, err := e.describer.GenerateQA(ctx, projectType, class.Name, class.CodeText(), class.Description)
	if err != nil {
		log.Warn().Err(err).Str("class", class.Name).Msg("Q&A generation failed")
		return
	}
	for i := range pairs {
		pairs[i].Context = source + ": " + class.Name
	}
	class.QA = pairs
	e.qa.Add(pairs...)
}

// apply sets c.Description from generate, keeping the template on failure.
func (e *Enricher) apply(log zerolog.Logger, c *chunk.Chunk, generate func() (string, error)) {
	description, err := generate()
	if err != nil {
		log.Warn().Err(err).Str("type", string(c.Type)).Str("name", c.Name).Msg("description failed, keeping template")
		return
	}
	c.Description = description
}

// fileContent returns the file's raw code, or its elements' code when the
// file chunk holds children instead.
func fileContent(file *chunk.Chunk) string {
	if code := file.CodeText(); code != "" {
		return code
	}
	var parts []string
	for _, child := range file.Chunks {
		if code := child.CodeText(); code != "" {
			parts = append(parts, code)
		}
	}
	return strings.Join(parts, "\n\n")
}
