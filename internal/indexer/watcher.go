package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReindexFunc runs one ingestion pass. changed lists root-relative paths that triggered it.
type ReindexFunc func(ctx context.Context, changed []string)

// IndexerWatcher watches the root directory for source changes and triggers a re-run.
type IndexerWatcher struct {
	rootDir      string
	excluder     *Excluder
	extensions   map[string]bool
	reindex      ReindexFunc
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	logger       zerolog.Logger
	stopCh       chan struct{}
	doneCh       chan struct{}
	stopOnce     sync.Once
	startOnce    sync.Once
	started      bool
}

// NewIndexerWatcher creates a watcher for config's project types. Excluded
// directories are not watched and only files of the configured project types
// trigger a re-run.
func NewIndexerWatcher(config *Config, reindex ReindexFunc, logger zerolog.Logger) (*IndexerWatcher, error) {
	extensions := make(map[string]bool)
	var exclusions []string
	for _, pt := range config.ProjectTypes {
		profile, err := LookupProfile(pt)
		if err != nil {
			return nil, err
		}
		for _, ext := range profile.Extensions {
			extensions[strings.ToLower(ext)] = true
		}
		exclusions = profile.Exclusions(config.RootDir, exclusions)
	}
	exclusions = append(exclusions, config.Exclusions...)

	excluder, err := NewExcluder(config.RootDir, exclusions)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	iw := &IndexerWatcher{
		rootDir:      excluder.Root(),
		excluder:     excluder,
		extensions:   extensions,
		reindex:      reindex,
		watcher:      watcher,
		debounceTime: 500 * time.Millisecond,
		logger:       logger,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}

	// Add directories to watcher recursively
	if err := iw.addDirectoriesRecursively(iw.rootDir); err != nil {
		watcher.Close()
		return nil, err
	}

	return iw, nil
}

// Start begins watching for file changes.
func (iw *IndexerWatcher) Start(ctx context.Context) {
	iw.startOnce.Do(func() {
		iw.started = true
		go iw.watch(ctx)
	})
}

// Stop stops the file watcher.
func (iw *IndexerWatcher) Stop() {
	iw.stopOnce.Do(func() {
		close(iw.stopCh)
		if iw.started {
			<-iw.doneCh // Wait for goroutine to finish
		}
		iw.watcher.Close()
	})
}

// Done is closed when the watch loop exits.
func (iw *IndexerWatcher) Done() <-chan struct{} {
	return iw.doneCh
}

// watch is the main event loop with debouncing logic.
func (iw *IndexerWatcher) watch(ctx context.Context) {
	defer close(iw.doneCh)

	var debounceTimer *time.Timer
	reindexCh := make(chan struct{}, 1)
	changedFiles := make(map[string]bool) // Track changed files for logging

	stopTimer := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			return

		case <-iw.stopCh:
			stopTimer()
			return

		case event, ok := <-iw.watcher.Events:
			if !ok {
				return
			}

			// Handle new directories - add them to watcher
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !iw.excluder.IsExcluded(event.Name) {
						if err := iw.addDirectoriesRecursively(event.Name); err != nil {
							iw.logger.Warn().Err(err).Str("dir", event.Name).Msg("failed to watch new directory")
						}
					}
					continue
				}
			}

			if !iw.shouldProcessEvent(event) {
				continue
			}

			relPath, _ := filepath.Rel(iw.rootDir, event.Name)
			changedFiles[relPath] = true

			stopTimer()
			debounceTimer = time.AfterFunc(iw.debounceTime, func() {
				// Send reindex signal (non-blocking)
				select {
				case reindexCh <- struct{}{}:
				default:
				}
			})

		case <-reindexCh:
			iw.triggerReindex(ctx, changedFiles)
			changedFiles = make(map[string]bool)

		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			iw.logger.Warn().Err(err).Msg("file watcher error")
		}
	}
}

// triggerReindex runs the reindex callback for a batch of changes.
func (iw *IndexerWatcher) triggerReindex(ctx context.Context, changedFiles map[string]bool) {
	if len(changedFiles) == 0 {
		return
	}

	fileList := make([]string, 0, len(changedFiles))
	for file := range changedFiles {
		fileList = append(fileList, file)
	}

	iw.logger.Info().Int("changed", len(fileList)).Msg("re-running ingestion")
	iw.reindex(ctx, fileList)
}

// shouldProcessEvent checks if an event should trigger a re-run.
func (iw *IndexerWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if !iw.extensions[strings.ToLower(filepath.Ext(event.Name))] {
		return false
	}
	return !iw.excluder.IsExcluded(event.Name)
}

// addDirectoriesRecursively adds all non-excluded directories in the tree to the watcher.
func (iw *IndexerWatcher) addDirectoriesRecursively(rootPath string) error {
	return filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == rootPath {
				return err
			}
			// Log but continue - don't fail the entire watch for one directory
			iw.logger.Warn().Err(err).Str("path", path).Msg("error accessing path")
			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if path != iw.rootDir && iw.excluder.IsExcluded(path) {
			return filepath.SkipDir
		}

		if err := iw.watcher.Add(path); err != nil {
			iw.logger.Warn().Err(err).Str("dir", path).Msg("failed to watch directory")
		}
		return nil
	})
}
