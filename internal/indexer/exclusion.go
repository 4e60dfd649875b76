package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultExclusions are always excluded, whatever the caller configures.
var DefaultExclusions = []string{".git", ".idea"}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Excluder decides whether a path is excluded from the walk.
//
// Entries come in three forms:
//   - bare name ("vendor"): matches any path component, at any depth
//   - path ("lib/vendor", "/abs/cache"): resolved against the root and matched
//     as the path itself or anything under it on a separator boundary
//   - glob ("**/*.min.php", "tmp_*"): matched against the root-relative slash path
type Excluder struct {
	root  string
	names map[string]struct{}
	paths []string
	globs []compiledPattern
}

// NewExcluder creates an excluder for root. DefaultExclusions are always added.
func NewExcluder(root string, entries []string) (*Excluder, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	e := &Excluder{
		root:  filepath.Clean(absRoot),
		names: make(map[string]struct{}),
	}

	for _, entry := range append(append([]string{}, DefaultExclusions...), entries...) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		switch {
		case strings.ContainsAny(entry, "*?[{"):
			g, err := glob.Compile(filepath.ToSlash(entry), '/')
			if err != nil {
				return nil, fmt.Errorf("invalid exclusion pattern %q: %w", entry, err)
			}
			e.globs = append(e.globs, compiledPattern{pattern: entry, glob: g})
		case filepath.IsAbs(entry) || strings.ContainsRune(entry, '/') || strings.ContainsRune(entry, os.PathSeparator):
			e.paths = append(e.paths, e.resolve(entry))
		default:
			e.names[entry] = struct{}{}
		}
	}

	return e, nil
}

// Root returns the absolute project root.
func (e *Excluder) Root() string {
	return e.root
}

// IsExcluded reports whether path (absolute or root-relative) is excluded.
func (e *Excluder) IsExcluded(path string) bool {
	abs := e.resolve(path)

	rel, err := filepath.Rel(e.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		// Outside the root only the basename can be checked against bare names.
		rel = filepath.Base(abs)
	}
	if rel != "." {
		for _, part := range strings.Split(rel, string(os.PathSeparator)) {
			if _, ok := e.names[part]; ok {
				return true
			}
		}
	}

	for _, p := range e.paths {
		if isWithin(abs, p) {
			return true
		}
	}

	if len(e.globs) > 0 && rel != "." {
		slashRel := filepath.ToSlash(rel)
		for _, cp := range e.globs {
			if cp.glob.Match(slashRel) || cp.glob.Match(slashRel+"/**") {
				return true
			}
		}
	}

	return false
}

func (e *Excluder) resolve(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.root, path)
	}
	return filepath.Clean(path)
}

// isWithin reports whether path equals dir or lies beneath it.
func isWithin(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(os.PathSeparator)) {
		dir += string(os.PathSeparator)
	}
	return strings.HasPrefix(path, dir)
}
