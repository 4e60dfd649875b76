package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mvp-joe/code-ingest/internal/chunk"
)

// HumanReadableDir is the subdirectory holding grouped JSON output.
const HumanReadableDir = "human_readable"

// OutputWriter writes scope artifacts atomically using temp → rename.
//
// Files written for prefix "acme":
//
//	acme_<scope>.jsonl
//	human_readable/acme_<scope>.json
//	acme_qa_global.jsonl
type OutputWriter struct {
	outputDir string
	tempDir   string
	prefix    string
	groupKey  string
	logger    zerolog.Logger
}

// NewOutputWriter creates the output directories and clears stale temp files.
// The temp directory only exists while artifacts are being written.
// An empty groupKey writes flat lists instead of grouped objects.
func NewOutputWriter(outputDir, prefix, groupKey string, logger zerolog.Logger) (*OutputWriter, error) {
	tempDir := filepath.Join(outputDir, ".tmp")

	if err := os.MkdirAll(filepath.Join(outputDir, HumanReadableDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Clean up stale temp files
	if err := os.RemoveAll(tempDir); err != nil {
		return nil, fmt.Errorf("failed to clean temp directory: %w", err)
	}

	return &OutputWriter{
		outputDir: outputDir,
		tempDir:   tempDir,
		prefix:    prefix,
		groupKey:  groupKey,
		logger:    logger,
	}, nil
}

// ScopeFiles returns the JSONL and human-readable paths for scope.
func (w *OutputWriter) ScopeFiles(scope string) (jsonl, grouped string) {
	name := w.baseName(scope)
	return filepath.Join(w.outputDir, name+".jsonl"),
		filepath.Join(w.outputDir, HumanReadableDir, name+".json")
}

// QAFile returns the path of the global Q&A artifact.
func (w *OutputWriter) QAFile() string {
	return filepath.Join(w.outputDir, w.baseName("qa_global")+".jsonl")
}

// WriteScope writes both artifacts for one scope.
func (w *OutputWriter) WriteScope(scope string, chunks []*chunk.Chunk) error {
	jsonlPath, groupedPath := w.ScopeFiles(scope)

	if err := w.writeAtomic(jsonlPath, func(f io.Writer) error {
		return WriteJSONL(f, chunks)
	}); err != nil {
		return fmt.Errorf("failed to write %s: %w", jsonlPath, err)
	}

	if err := w.writeAtomic(groupedPath, func(f io.Writer) error {
		return WriteGrouped(f, chunks, w.groupKey, w.logger.With().Str("scope", scope).Logger())
	}); err != nil {
		return fmt.Errorf("failed to write %s: %w", groupedPath, err)
	}

	w.logger.Info().Str("scope", scope).Int("chunks", len(chunks)).Str("file", jsonlPath).Msg("scope written")
	return nil
}

// WriteQA writes the global Q&A artifact.
func (w *OutputWriter) WriteQA(pairs []chunk.QAPair) error {
	path := w.QAFile()
	if err := w.writeAtomic(path, func(f io.Writer) error {
		return WriteJSONL(f, pairs)
	}); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.logger.Info().Int("pairs", len(pairs)).Str("file", path).Msg("Q&A written")
	return nil
}

// Flush writes every scope of agg and, when qa holds pairs, the Q&A artifact.
// It returns the paths written. The temp directory is removed afterwards.
func (w *OutputWriter) Flush(agg *Aggregator, qa *QAStore) ([]string, error) {
	defer w.cleanTemp()

	var written []string
	for _, scope := range agg.Scopes() {
		if err := w.WriteScope(scope, agg.Get(scope)); err != nil {
			return written, err
		}
		jsonlPath, groupedPath := w.ScopeFiles(scope)
		written = append(written, jsonlPath, groupedPath)
	}

	if qa != nil && qa.Len() > 0 {
		if err := w.WriteQA(qa.All()); err != nil {
			return written, err
		}
		written = append(written, w.QAFile())
	}

	return written, nil
}

func (w *OutputWriter) cleanTemp() {
	if err := os.RemoveAll(w.tempDir); err != nil {
		w.logger.Warn().Err(err).Str("dir", w.tempDir).Msg("failed to remove temp directory")
	}
}

func (w *OutputWriter) baseName(name string) string {
	if w.prefix == "" {
		return name
	}
	return w.prefix + "_" + name
}

// writeAtomic writes to a temp file and renames it over finalPath.
func (w *OutputWriter) writeAtomic(finalPath string, write func(io.Writer) error) error {
	if err := os.MkdirAll(w.tempDir, 0755); err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	tmp, err := os.CreateTemp(w.tempDir, filepath.Base(finalPath)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tmp.Name()

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to set temp file mode: %w", err)
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Rename to final location (atomic operation)
	if err := os.Rename(tempPath, finalPath); err != nil {
		// Clean up temp file on error
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
