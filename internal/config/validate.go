package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mvp-joe/code-ingest/internal/indexer"
	"github.com/mvp-joe/code-ingest/internal/indexer/parsers"
)

var (
	// ErrEmptySourceDir indicates a missing source directory
	ErrEmptySourceDir = errors.New("empty source directory")

	// ErrEmptyOutputDir indicates a missing output directory
	ErrEmptyOutputDir = errors.New("empty output directory")

	// ErrEmptyPrefix indicates a missing output file prefix
	ErrEmptyPrefix = errors.New("empty output prefix")

	// ErrInvalidProjectType indicates an unknown or missing project type
	ErrInvalidProjectType = errors.New("invalid project type")

	// ErrInvalidParser indicates an invalid parser configuration
	ErrInvalidParser = errors.New("invalid parser configuration")

	// ErrInvalidLLM indicates invalid LLM settings
	ErrInvalidLLM = errors.New("invalid llm settings")

	// ErrInvalidCacheSettings indicates invalid cache configuration
	ErrInvalidCacheSettings = errors.New("invalid cache settings")

	// ErrInvalidLogLevel indicates an unknown log level
	ErrInvalidLogLevel = errors.New("invalid log level")
)

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true,
}

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.SourceDir) == "" {
		errs = append(errs, fmt.Errorf("%w: source_dir is required", ErrEmptySourceDir))
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		errs = append(errs, fmt.Errorf("%w: output_dir is required", ErrEmptyOutputDir))
	}
	if strings.TrimSpace(cfg.Prefix) == "" {
		errs = append(errs, fmt.Errorf("%w: prefix is required", ErrEmptyPrefix))
	}

	if err := validateProjectTypes(cfg.ProjectTypes); err != nil {
		errs = append(errs, err)
	}

	if err := validateParser("php", &cfg.Parsers.PHP); err != nil {
		errs = append(errs, err)
	}
	if err := validateParser("typescript", &cfg.Parsers.TypeScript); err != nil {
		errs = append(errs, err)
	}

	if err := validateLLM(cfg); err != nil {
		errs = append(errs, err)
	}

	if cfg.Cache.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("%w: max_entries must be non-negative, got %d", ErrInvalidCacheSettings, cfg.Cache.MaxEntries))
	}

	if !logLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, fmt.Errorf("%w: %q (valid: trace, debug, info, warn, error, disabled)", ErrInvalidLogLevel, cfg.Logging.Level))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateProjectTypes(types []string) error {
	if len(types) == 0 {
		return fmt.Errorf("%w: at least one project type required", ErrInvalidProjectType)
	}

	var errs []error
	for _, pt := range types {
		if _, err := indexer.LookupProfile(pt); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s (valid: yii2, bitrix, python, react)", ErrInvalidProjectType, pt))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateParser(name string, cfg *ParserConfig) error {
	var errs []error

	switch cfg.Mode {
	case parsers.ModeBuiltin:
		return nil
	case parsers.ModeExternal:
		if strings.TrimSpace(cfg.Script) == "" {
			errs = append(errs, fmt.Errorf("%w: parsers.%s.script is required in external mode", ErrInvalidParser, name))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: parsers.%s.mode must be 'external' or 'builtin', got '%s'", ErrInvalidParser, name, cfg.Mode))
	}

	if cfg.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: parsers.%s.timeout must be non-negative, got %s", ErrInvalidParser, name, cfg.Timeout))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateLLM(cfg *Config) error {
	// Settings only matter when enrichment is on
	if !cfg.EnrichmentEnabled() {
		return nil
	}

	llm := &cfg.LLM
	var errs []error

	if strings.TrimSpace(llm.Model) == "" {
		errs = append(errs, fmt.Errorf("%w: model is required when url is set", ErrInvalidLLM))
	}
	if llm.MaxCodeLength <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_code_length must be positive, got %d", ErrInvalidLLM, llm.MaxCodeLength))
	}
	if llm.MaxMessageLength <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_message_length must be positive, got %d", ErrInvalidLLM, llm.MaxMessageLength))
	}
	if llm.Temperature < 0 || llm.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%w: temperature must be between 0 and 2, got %g", ErrInvalidLLM, llm.Temperature))
	}
	if llm.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_tokens must be positive, got %d", ErrInvalidLLM, llm.MaxTokens))
	}
	if llm.QAEnabled && llm.QAPairs <= 0 {
		errs = append(errs, fmt.Errorf("%w: qa_pairs must be positive, got %d", ErrInvalidLLM, llm.QAPairs))
	}
	if llm.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: timeout must be non-negative, got %s", ErrInvalidLLM, llm.Timeout))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
