package parsers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mvp-joe/code-ingest/internal/indexer/extraction"
)

// externalParser runs a parser tool as a subprocess and decodes its JSON stdout.
type externalParser struct {
	lang string
	cfg  ToolConfig
}

// NewExternalParser creates a parser that shells out to cfg.Interpreter cfg.Script <file>.
func NewExternalParser(lang string, cfg ToolConfig) *externalParser {
	return &externalParser{lang: lang, cfg: cfg}
}

func (p *externalParser) Language() string {
	return p.lang
}

// Parse executes the tool with the file path as its only argument, in the tool's own directory.
//
// Errors:
//   - ErrToolUnavailable: script or interpreter not found
//   - ErrParseFailure: non-zero exit, timeout, or stdout that is not a JSON document
//   - ErrSourceError: the document carries an "error" field
func (p *externalParser) Parse(ctx context.Context, path string) (*extraction.Result, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	script, err := filepath.Abs(p.cfg.Script)
	if err != nil || p.cfg.Script == "" {
		return nil, newError(ErrToolUnavailable, path, "no parser script configured for "+p.lang, err)
	}
	if _, err := os.Stat(script); err != nil {
		return nil, newError(ErrToolUnavailable, path, "parser script not found at "+script, err)
	}

	name := script
	args := []string{absPath}
	if p.cfg.Interpreter != "" {
		interp, err := exec.LookPath(p.cfg.Interpreter)
		if err != nil {
			return nil, newError(ErrToolUnavailable, path, "interpreter not found: "+p.cfg.Interpreter, err)
		}
		name = interp
		args = []string{script, absPath}
	}

	execCtx := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, name, args...)
	cmd.Dir = scriptDir(script)
	// Children of the tool may hold stdout open after it is killed.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return nil, newError(ErrParseFailure, path, fmt.Sprintf("parser timed out (%s)", p.cfg.Timeout), err)
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, newError(ErrToolUnavailable, path, "cannot start parser", err)
		}
		return nil, newError(ErrParseFailure, path, strings.TrimSpace(stderr.String()), err)
	}

	return decodeResult(path, stdout.Bytes())
}

// decodeResult parses the tool's stdout into a Result.
func decodeResult(path string, data []byte) (*extraction.Result, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, newError(ErrParseFailure, path, "parser produced no output", nil)
	}

	var result extraction.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, newError(ErrParseFailure, path, "invalid JSON output", err)
	}

	if result.Error != "" {
		return nil, newError(ErrSourceError, path, result.Error, nil)
	}

	return &result, nil
}
