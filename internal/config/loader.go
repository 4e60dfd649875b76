package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultConfigName is the config file looked up in the working directory.
const DefaultConfigName = ".ingest"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INGEST"

// legacyEnv maps config keys to the environment names older deployments use.
var legacyEnv = map[string]string{
	"source_dir":     "SOURCE_DIR",
	"output_dir":     "OUTPUT_DIR",
	"exclusions":     "EXCLUDED_DIRS",
	"included_files": "INCLUDED_FILES",
	"prefix":         "PROJECT_PREFIX",
	"project_types":  "PROJECT_TYPES",
	"llm.url":        "LLM_SERVER_URL",
	"llm.model":      "LLM_MODEL_NAME",
	"cache.enabled":  "USE_CACHE",
}

// Loader loads configuration from defaults, file, .env, environment and flags.
type Loader struct {
	workDir    string
	configFile string
	envFile    string
	flags      map[string]*pflag.Flag
}

// NewLoader creates a loader rooted at workDir. configFile may be empty, in
// which case .ingest.yaml in workDir is used when present.
func NewLoader(workDir, configFile string) *Loader {
	return &Loader{
		workDir:    workDir,
		configFile: configFile,
		envFile:    filepath.Join(workDir, ".env"),
		flags:      make(map[string]*pflag.Flag),
	}
}

// BindFlag lets a command-line flag override key when the flag is set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) {
	if flag != nil {
		l.flags[key] = flag
	}
}

// Load loads configuration with the following priority (highest to lowest):
// flags, environment variables, .env, config file, defaults.
func (l *Loader) Load() (*Config, error) {
	// .env never overrides variables already in the environment
	if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", l.envFile, err)
	}

	v := viper.New()
	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(l.workDir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., INGEST_LLM_MAX_TOKENS)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, legacy := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", legacy, err)
		}
	}

	setDefaults(v)

	for key, flag := range l.flags {
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag --%s: %w", flag.Name, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable unless it was requested explicitly
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ProjectTypes = normalizeList(cfg.ProjectTypes)
	cfg.Exclusions = normalizeList(cfg.Exclusions)
	cfg.IncludedFiles = normalizeList(cfg.IncludedFiles)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values. Every key needs a
// default so that AutomaticEnv sees it during Unmarshal.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("source_dir", defaults.SourceDir)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("prefix", defaults.Prefix)
	v.SetDefault("project_types", defaults.ProjectTypes)
	v.SetDefault("exclusions", defaults.Exclusions)
	v.SetDefault("included_files", []string{})
	v.SetDefault("group_key", defaults.GroupKey)

	for name, p := range map[string]ParserConfig{
		"php":        defaults.Parsers.PHP,
		"typescript": defaults.Parsers.TypeScript,
	} {
		v.SetDefault("parsers."+name+".mode", p.Mode)
		v.SetDefault("parsers."+name+".interpreter", p.Interpreter)
		v.SetDefault("parsers."+name+".script", p.Script)
		v.SetDefault("parsers."+name+".timeout", p.Timeout)
	}

	v.SetDefault("llm.url", defaults.LLM.URL)
	v.SetDefault("llm.model", defaults.LLM.Model)
	v.SetDefault("llm.api_key", defaults.LLM.APIKey)
	v.SetDefault("llm.language", defaults.LLM.Language)
	v.SetDefault("llm.max_code_length", defaults.LLM.MaxCodeLength)
	v.SetDefault("llm.max_message_length", defaults.LLM.MaxMessageLength)
	v.SetDefault("llm.temperature", defaults.LLM.Temperature)
	v.SetDefault("llm.max_tokens", defaults.LLM.MaxTokens)
	v.SetDefault("llm.qa_enabled", defaults.LLM.QAEnabled)
	v.SetDefault("llm.qa_pairs", defaults.LLM.QAPairs)
	v.SetDefault("llm.timeout", defaults.LLM.Timeout)

	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.path", defaults.Cache.Path)
	v.SetDefault("cache.max_entries", defaults.Cache.MaxEntries)

	v.SetDefault("logging.dir", defaults.Logging.Dir)
	v.SetDefault("logging.level", defaults.Logging.Level)
}

// LoadConfig is a convenience function that loads configuration from the
// current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd, "").Load()
}
