package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// UnclassifiedLabel tags allow-listed files whose directory matches no rule.
const UnclassifiedLabel = "other"

// FileEntry is a discovered file.
type FileEntry struct {
	Path    string // absolute path
	RelPath string // path relative to the project root
	DirType string // directory-type label; empty in flat mode
}

// NestedRoot is a convention directory that is injected back into the walk
// queue wherever it appears, e.g. Bitrix ".default" template folders. It is
// classified like any other directory.
type NestedRoot struct {
	Name   string // directory base name
	Within string // substring the lower-cased parent path must contain; empty means anywhere
}

// DiscoveryOptions configures a FileDiscovery.
type DiscoveryOptions struct {
	Root          string
	Extensions    []string // accepted extensions, with leading dot
	Exclusions    []string
	IncludedFiles []string    // explicit allow-list; bypasses walking and exclusion
	Classifier    *Classifier // nil selects flat mode
	NestedRoots   []NestedRoot
}

// FileDiscovery produces the files to parse for one project type.
type FileDiscovery struct {
	opts     DiscoveryOptions
	excluder *Excluder
	logger   zerolog.Logger
}

// NewFileDiscovery creates a new file discovery instance.
func NewFileDiscovery(opts DiscoveryOptions, logger zerolog.Logger) (*FileDiscovery, error) {
	excluder, err := NewExcluder(opts.Root, opts.Exclusions)
	if err != nil {
		return nil, err
	}
	return &FileDiscovery{
		opts:     opts,
		excluder: excluder,
		logger:   logger,
	}, nil
}

// Excluder returns the exclusion rules in effect.
func (fd *FileDiscovery) Excluder() *Excluder {
	return fd.excluder
}

// DiscoverFiles returns every file to parse, in walk order.
func (fd *FileDiscovery) DiscoverFiles() ([]FileEntry, error) {
	root := fd.excluder.Root()
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source directory %s is not a directory", root)
	}

	if len(fd.opts.IncludedFiles) > 0 {
		return fd.discoverIncluded(root), nil
	}
	return fd.walk(root)
}

// discoverIncluded validates the allow-list. Missing files and files with
// other extensions are skipped with a warning.
func (fd *FileDiscovery) discoverIncluded(root string) []FileEntry {
	var files []FileEntry
	for _, entry := range fd.opts.IncludedFiles {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		path := entry
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		path = filepath.Clean(path)

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			fd.logger.Warn().Str("file", path).Msg("included file does not exist, skipping")
			continue
		}
		if !fd.accepts(path) {
			fd.logger.Warn().Str("file", path).Strs("extensions", fd.opts.Extensions).Msg("included file has an unsupported extension, skipping")
			continue
		}

		fe := FileEntry{Path: path, RelPath: relPath(root, path)}
		if fd.opts.Classifier != nil {
			label, ok := fd.opts.Classifier.Classify(relPath(root, filepath.Dir(path)))
			if !ok {
				label = UnclassifiedLabel
			}
			fe.DirType = label
		}
		files = append(files, fe)
	}
	return files
}

type queuedDir struct {
	path   string
	nested bool // injected as a nested convention root
}

// walk visits directories from an explicit stack. Exclusion is tested before a
// directory is queued, so excluded subtrees are never enumerated. Each
// directory is visited once and contributes only its own files.
func (fd *FileDiscovery) walk(root string) ([]FileEntry, error) {
	var files []FileEntry
	visited := make(map[string]bool)
	stack := []queuedDir{{path: root}}

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[dir.path] {
			continue
		}
		visited[dir.path] = true

		entries, err := os.ReadDir(dir.path)
		if err != nil {
			if dir.path == root {
				return nil, fmt.Errorf("failed to read source directory: %w", err)
			}
			fd.logger.Warn().Err(err).Str("dir", dir.path).Msg("cannot read directory, skipping")
			continue
		}

		label, include := fd.labelFor(root, dir.path)
		if include {
			fd.logger.Debug().Str("dir", dir.path).Str("directory_type", label).Bool("nested_root", dir.nested).Msg("processing directory")
		}

		var subdirs []queuedDir
		for _, entry := range entries {
			path := filepath.Join(dir.path, entry.Name())

			if entry.IsDir() {
				if fd.excluder.IsExcluded(path) {
					fd.logger.Debug().Str("dir", path).Msg("excluded")
					continue
				}
				subdirs = append(subdirs, queuedDir{path: path, nested: fd.isNestedRoot(root, dir.path, entry.Name())})
				continue
			}

			if !include || !entry.Type().IsRegular() || !fd.accepts(path) {
				continue
			}
			if fd.excluder.IsExcluded(path) {
				continue
			}
			files = append(files, FileEntry{Path: path, RelPath: relPath(root, path), DirType: label})
		}

		// Push in reverse so subdirectories are visited in name order.
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	return files, nil
}

// labelFor returns the directory-type label of dir and whether its files are
// collected. Flat mode collects every directory untagged.
func (fd *FileDiscovery) labelFor(root, dir string) (string, bool) {
	if fd.opts.Classifier == nil {
		return "", true
	}
	return fd.opts.Classifier.Classify(relPath(root, dir))
}

// isNestedRoot reports whether child name of parent is a nested convention root.
func (fd *FileDiscovery) isNestedRoot(root, parent, name string) bool {
	for _, nr := range fd.opts.NestedRoots {
		if nr.Name != name {
			continue
		}
		if nr.Within != "" && !strings.Contains(strings.ToLower(relPath(root, parent)), nr.Within) {
			continue
		}
		return true
	}
	return false
}

func (fd *FileDiscovery) accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range fd.opts.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// relPath returns path relative to root, falling back to path itself.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
