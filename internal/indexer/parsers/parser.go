package parsers

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mvp-joe/code-ingest/internal/indexer/extraction"
)

// LanguageParser converts one source file into the extraction document.
type LanguageParser interface {
	// Parse reads and parses the file at path.
	// Errors are *Error values classified by ErrToolUnavailable, ErrParseFailure
	// or ErrSourceError.
	Parse(ctx context.Context, path string) (*extraction.Result, error)

	// Language returns the parser's language identifier.
	Language() string
}

// Mode selects how a language is parsed.
const (
	ModeExternal = "external"
	ModeBuiltin  = "builtin"
)

// ToolConfig describes an external parser program.
type ToolConfig struct {
	Mode        string        // "external" or "builtin"
	Interpreter string        // e.g. "php" or "node"; empty runs Script directly
	Script      string        // parser script or executable
	Timeout     time.Duration // 0 disables the timeout
}

// New returns the parser for language ("python", "php" or "typescript").
// Python is always parsed in-process; PHP and TypeScript honour cfg.Mode.
func New(language string, cfg ToolConfig) (LanguageParser, error) {
	switch language {
	case "python":
		return NewPythonParser(), nil
	case "php":
		if cfg.Mode == ModeBuiltin {
			return NewPhpParser(), nil
		}
		return NewExternalParser("php", cfg), nil
	case "typescript":
		if cfg.Mode == ModeBuiltin {
			return NewTypeScriptParser(), nil
		}
		return NewExternalParser("typescript", cfg), nil
	default:
		return nil, fmt.Errorf("unsupported parser language: %s (supported: python, php, typescript)", language)
	}
}

// scriptDir returns the directory the external tool runs in.
func scriptDir(script string) string {
	abs, err := filepath.Abs(script)
	if err != nil {
		return filepath.Dir(script)
	}
	return filepath.Dir(abs)
}
