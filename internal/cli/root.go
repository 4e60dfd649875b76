package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	verbose   bool
	quietFlag bool
	noColor   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest source code into structured chunks",
	Long: `ingest walks a PHP (Yii2, Bitrix), Python or TypeScript/React project,
parses every source file into a tree of chunks (file, class, method, function,
property, dependency, ...) and writes them as JSONL plus human-readable JSON.

When an LLM endpoint is configured, template descriptions are replaced with
generated ones and Q&A pairs are collected for every class.

Configuration is read from .ingest.yaml, a .env file and the environment
(INGEST_* and the legacy SOURCE_DIR, OUTPUT_DIR, ... names); flags win.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.ingest.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug log level)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "disable progress bars and the summary")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}
