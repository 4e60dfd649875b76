// Package config loads ingest settings.
//
// Configuration Hierarchy (highest to lowest priority):
//  1. Command-line flags (bound by the cli package)
//  2. Environment variables (INGEST_*, plus the legacy names SOURCE_DIR,
//     OUTPUT_DIR, EXCLUDED_DIRS, INCLUDED_FILES, PROJECT_PREFIX,
//     PROJECT_TYPES, LLM_SERVER_URL, LLM_MODEL_NAME and USE_CACHE)
//  3. A .env file in the working directory
//  4. Config file (.ingest.yaml, or the path given with --config)
//  5. Built-in defaults
//
// List values given through the environment are comma-separated.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/mvp-joe/code-ingest/internal/describe"
	"github.com/mvp-joe/code-ingest/internal/indexer"
	"github.com/mvp-joe/code-ingest/internal/indexer/parsers"
)

// Config represents the complete ingest configuration.
type Config struct {
	SourceDir     string        `yaml:"source_dir" mapstructure:"source_dir"`
	OutputDir     string        `yaml:"output_dir" mapstructure:"output_dir"`
	Prefix        string        `yaml:"prefix" mapstructure:"prefix"`
	ProjectTypes  []string      `yaml:"project_types" mapstructure:"project_types"`
	Exclusions    []string      `yaml:"exclusions" mapstructure:"exclusions"`
	IncludedFiles []string      `yaml:"included_files" mapstructure:"included_files"`
	GroupKey      string        `yaml:"group_key" mapstructure:"group_key"`
	Parsers       ParsersConfig `yaml:"parsers" mapstructure:"parsers"`
	LLM           LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Cache         CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Logging       LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ParsersConfig configures the PHP and TypeScript parsers.
type ParsersConfig struct {
	PHP        ParserConfig `yaml:"php" mapstructure:"php"`
	TypeScript ParserConfig `yaml:"typescript" mapstructure:"typescript"`
}

// ParserConfig selects an external parser program or the builtin one.
type ParserConfig struct {
	Mode        string        `yaml:"mode" mapstructure:"mode"` // "external" or "builtin"
	Interpreter string        `yaml:"interpreter" mapstructure:"interpreter"`
	Script      string        `yaml:"script" mapstructure:"script"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LLMConfig configures description enrichment.
// Enrichment is off when URL is empty.
type LLMConfig struct {
	URL              string        `yaml:"url" mapstructure:"url"`
	Model            string        `yaml:"model" mapstructure:"model"`
	APIKey           string        `yaml:"api_key" mapstructure:"api_key"`
	Language         string        `yaml:"language" mapstructure:"language"`
	MaxCodeLength    int           `yaml:"max_code_length" mapstructure:"max_code_length"`
	MaxMessageLength int           `yaml:"max_message_length" mapstructure:"max_message_length"`
	Temperature      float64       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens        int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	QAEnabled        bool          `yaml:"qa_enabled" mapstructure:"qa_enabled"`
	QAPairs          int           `yaml:"qa_pairs" mapstructure:"qa_pairs"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig configures the description cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Path of the SQLite database; empty means <output_dir>/llm_cache.db.
	Path string `yaml:"path" mapstructure:"path"`

	// MaxEntries bounds the cache; 0 is unbounded.
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Dir   string `yaml:"dir" mapstructure:"dir"`
	Level string `yaml:"level" mapstructure:"level"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		SourceDir:    ".",
		OutputDir:    "./output",
		Prefix:       "project",
		ProjectTypes: []string{indexer.ProjectPython},
		Exclusions:   []string{},
		GroupKey:     "metadata.source",
		Parsers: ParsersConfig{
			PHP: ParserConfig{
				Mode:        parsers.ModeExternal,
				Interpreter: "php",
				Script:      "php_parser.php",
				Timeout:     indexer.DefaultParserTimeout,
			},
			TypeScript: ParserConfig{
				Mode:        parsers.ModeExternal,
				Interpreter: "node",
				Script:      "ts_parser.js",
				Timeout:     indexer.DefaultParserTimeout,
			},
		},
		LLM: LLMConfig{
			Language:         "Russian",
			MaxCodeLength:    3500,
			MaxMessageLength: 4096,
			Temperature:      describe.DefaultTemperature,
			MaxTokens:        256,
			QAEnabled:        true,
			QAPairs:          3,
			Timeout:          120 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 0,
		},
		Logging: LoggingConfig{
			Dir:   "logs",
			Level: "info",
		},
	}
}

// CachePath returns the cache database path, defaulting under the output directory.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(c.OutputDir, "llm_cache.db")
}

// EnrichmentEnabled reports whether an LLM endpoint is configured.
func (c *Config) EnrichmentEnabled() bool {
	return strings.TrimSpace(c.LLM.URL) != ""
}

// ToIndexerConfig converts a Config to an indexer.Config.
func (c *Config) ToIndexerConfig() *indexer.Config {
	return &indexer.Config{
		RootDir:       c.SourceDir,
		ProjectTypes:  c.ProjectTypes,
		Exclusions:    c.Exclusions,
		IncludedFiles: c.IncludedFiles,
		Parsers: map[string]parsers.ToolConfig{
			"php":        c.Parsers.PHP.toolConfig(),
			"typescript": c.Parsers.TypeScript.toolConfig(),
		},
	}
}

func (p ParserConfig) toolConfig() parsers.ToolConfig {
	return parsers.ToolConfig{
		Mode:        p.Mode,
		Interpreter: p.Interpreter,
		Script:      p.Script,
		Timeout:     p.Timeout,
	}
}

// normalizeList trims entries and drops empty ones.
func normalizeList(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
