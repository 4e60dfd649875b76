package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/code-ingest/internal/indexer"
)

// CLIProgressReporter shows one progress bar per project type.
type CLIProgressReporter struct {
	out     io.Writer
	quiet   bool
	fileBar *progressbar.ProgressBar
	failed  int
}

// NewCLIProgressReporter creates a progress reporter writing to out.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{out: out, quiet: quiet}
}

func (c *CLIProgressReporter) OnDiscoveryStart(projectType string) {
	if c.quiet {
		return
	}
	c.finishBar()
	fmt.Fprintf(c.out, "Discovering %s files...\n", projectType)
}

func (c *CLIProgressReporter) OnDiscoveryComplete(projectType string, files int) {
	if c.quiet || files == 0 {
		return
	}

	c.fileBar = progressbar.NewOptions(files,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription(fmt.Sprintf("Ingesting %s", projectType)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(fileName string, err error) {
	if err != nil {
		c.failed++
	}
	if c.quiet || c.fileBar == nil {
		return
	}
	_ = c.fileBar.Add(1)
}

func (c *CLIProgressReporter) OnComplete(stats *indexer.ProcessingStats) {
	c.finishBar()
}

// Failed returns the number of files reported with an error.
func (c *CLIProgressReporter) Failed() int {
	return c.failed
}

func (c *CLIProgressReporter) finishBar() {
	if c.fileBar != nil {
		_ = c.fileBar.Finish()
		c.fileBar = nil
	}
}
