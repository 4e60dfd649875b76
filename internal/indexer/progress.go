package indexer

// ProgressReporter provides callbacks for reporting ingestion progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery for a project type begins.
	OnDiscoveryStart(projectType string)

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(projectType string, files int)

	// OnFileProcessed is called after each file, whether it succeeded or not.
	OnFileProcessed(fileName string, err error)

	// OnComplete is called when ingestion completes.
	OnComplete(stats *ProcessingStats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart(projectType string)               {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(projectType string, files int) {}
func (n *NoOpProgressReporter) OnFileProcessed(fileName string, err error)        {}
func (n *NoOpProgressReporter) OnComplete(stats *ProcessingStats)                 {}
