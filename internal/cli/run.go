package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/code-ingest/internal/config"
	"github.com/mvp-joe/code-ingest/internal/indexer"
	"github.com/mvp-joe/code-ingest/internal/lock"
	"github.com/mvp-joe/code-ingest/internal/logging"
)

var watchFlag bool

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest the project once, or continuously with --watch",
	Long: `Run walks the source directory for every configured project type, parses
each file and writes, per scope:

  <output>/<prefix>_<scope>.jsonl
  <output>/human_readable/<prefix>_<scope>.json

plus <output>/<prefix>_qa_global.jsonl when Q&A pairs were generated.

Files that fail to parse are logged and skipped; the run continues.

Examples:
  # Ingest a Yii2 project
  ingest run --source /var/www/app --types yii2 --output ./output

  # Bitrix with React components, enrichment disabled
  ingest run --types bitrix,react --no-llm

  # Re-run on every source change
  ingest run --watch
`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("source", "", "project root directory")
	flags.String("output", "", "output directory")
	flags.String("prefix", "", "output file prefix")
	flags.StringSlice("types", nil, "project types: yii2, bitrix, python, react")
	flags.StringSlice("exclude", nil, "excluded names, paths or globs")
	flags.StringSlice("include", nil, "only ingest these root-relative files")
	flags.String("group-key", "", "dotted field to group human-readable output by; empty writes flat lists")
	flags.String("llm-url", "", "chat-completions endpoint for descriptions")
	flags.String("llm-model", "", "model name for descriptions")
	flags.Bool("no-llm", false, "disable description enrichment")
	flags.Bool("no-cache", false, "disable the description cache")
	flags.Bool("no-qa", false, "disable Q&A generation")
	flags.BoolVarP(&watchFlag, "watch", "w", false, "watch for source changes and re-run")
}

// flagKeys maps run flags onto config keys.
var flagKeys = map[string]string{
	"source":    "source_dir",
	"output":    "output_dir",
	"prefix":    "prefix",
	"types":     "project_types",
	"exclude":   "exclusions",
	"include":   "included_files",
	"group-key": "group_key",
	"llm-url":   "llm.url",
	"llm-model": "llm.model",
}

// loadRunConfig loads configuration and applies the run flags.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	loader := config.NewLoader(wd, cfgFile)
	for name, key := range flagKeys {
		loader.BindFlag(key, cmd.Flags().Lookup(name))
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if off, _ := flags.GetBool("no-llm"); off {
		cfg.LLM.URL = ""
	}
	if off, _ := flags.GetBool("no-cache"); off {
		cfg.Cache.Enabled = false
	}
	if off, _ := flags.GetBool("no-qa"); off {
		cfg.LLM.QAEnabled = false
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Name:  "ingest",
		Dir:   cfg.Logging.Dir,
		Level: cfg.Logging.Level,
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	return ingest(ctx, cfg, logger.Logger, runOptions{
		Out:   cmd.OutOrStdout(),
		Quiet: quietFlag,
		Watch: watchFlag,
	})
}

// runOptions controls how ingest reports and whether it keeps watching.
type runOptions struct {
	Out      io.Writer
	Quiet    bool
	Watch    bool
	Progress indexer.ProgressReporter

	// pipelineOpts are passed through to the indexer.
	pipelineOpts []indexer.Option

	// onPass is called after every pass in watch mode.
	onPass func(*runResult, error)
}

// ingest runs one pass under the output lock, then keeps re-running on
// changes when Watch is set.
func ingest(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts runOptions) error {
	runLock := lock.New(cfg.OutputDir)
	if err := runLock.TryAcquire(); err != nil {
		return err
	}
	defer func() {
		if err := runLock.Release(); err != nil {
			logger.Warn().Err(err).Msg("failed to release lock")
		}
	}()

	progress := opts.Progress
	if progress == nil {
		progress = NewCLIProgressReporter(os.Stderr, opts.Quiet)
	}
	pipelineOpts := append([]indexer.Option{indexer.WithProgress(progress)}, opts.pipelineOpts...)

	p, err := newPipeline(cfg, logger, nil, pipelineOpts...)
	if err != nil {
		return err
	}
	defer p.close()

	result, err := p.run(ctx)
	report(opts, result, err)
	if err != nil {
		return err
	}

	if !opts.Watch {
		return nil
	}

	watcher, err := indexer.NewIndexerWatcher(cfg.ToIndexerConfig(), func(ctx context.Context, changed []string) {
		logger.Info().Strs("changed", changed).Msg("source changed")
		result, err := p.run(ctx)
		if err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("re-run failed")
		}
		report(opts, result, err)
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	watcher.Start(ctx)
	logger.Info().Str("root", cfg.SourceDir).Msg("watching for changes")

	select {
	case <-ctx.Done():
	case <-watcher.Done():
	}
	logger.Info().Msg("watch mode stopped")
	return nil
}

func report(opts runOptions, result *runResult, err error) {
	if opts.onPass != nil {
		opts.onPass(result, err)
	}
	if opts.Quiet || err != nil || result == nil {
		return
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	printSummary(out, result.Stats, result.Written, result.QAPairs)
}
