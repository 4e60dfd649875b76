package indexer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Project types.
const (
	ProjectYii2   = "yii2"
	ProjectBitrix = "bitrix"
	ProjectPython = "python"
	ProjectReact  = "react"
)

// Profile describes how one project type is discovered, parsed and scoped.
type Profile struct {
	Name       string
	Language   string // parser language: "php", "python" or "typescript"
	Extensions []string
	Rules      []ClassRule // nil selects flat mode
	Nested     []NestedRoot
	FlatScope  string // scope for flat-mode files

	// extraExclusions returns project-type exclusions for root.
	extraExclusions func(root string) []string
	// fileLabel is the file-chunk description prefix, e.g. "PHP file".
	fileLabel func(dirType string) string
}

var profiles = map[string]Profile{
	ProjectYii2: {
		Name:       ProjectYii2,
		Language:   "php",
		Extensions: []string{".php"},
		Rules:      Yii2Rules,
		fileLabel: func(dirType string) string {
			return capitalize(dirType) + " file"
		},
	},
	ProjectBitrix: {
		Name:       ProjectBitrix,
		Language:   "php",
		Extensions: []string{".php"},
		Rules:      BitrixRules,
		Nested: []NestedRoot{
			{Name: ".default"},
			{Name: "bitrix", Within: "local"},
		},
		extraExclusions: func(root string) []string {
			return []string{filepath.Join(root, "bitrix"), "node_modules", "vendor"}
		},
		fileLabel: func(string) string { return "PHP file" },
	},
	ProjectPython: {
		Name:       ProjectPython,
		Language:   "python",
		Extensions: []string{".py"},
		FlatScope:  "python_files",
		fileLabel:  func(string) string { return "Python file" },
	},
	ProjectReact: {
		Name:       ProjectReact,
		Language:   "typescript",
		Extensions: []string{".ts", ".tsx"},
		FlatScope:  "react_ts",
		extraExclusions: func(string) []string {
			return []string{"node_modules"}
		},
		fileLabel: func(string) string { return "TS/TSX file" },
	},
}

// ProjectTypes lists the supported project types.
func ProjectTypes() []string {
	return []string{ProjectYii2, ProjectBitrix, ProjectPython, ProjectReact}
}

// LookupProfile returns the profile for a project type.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown project type %q (supported: %s)", name, strings.Join(ProjectTypes(), ", "))
	}
	return p, nil
}

// FrameworkAware reports whether files are classified by directory.
func (p Profile) FrameworkAware() bool {
	return len(p.Rules) > 0
}

// Scope returns the scope name for a file with the given directory type.
func (p Profile) Scope(dirType string) string {
	if !p.FrameworkAware() {
		return p.FlatScope
	}
	return p.Name + "_" + dirType
}

// Exclusions returns the caller's exclusions plus the project type's own.
// Root-anchored entries are built from the absolute root, so a relative root
// such as "." never turns them into bare names.
func (p Profile) Exclusions(root string, configured []string) []string {
	out := append([]string{}, configured...)
	if p.extraExclusions != nil {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		out = append(out, p.extraExclusions(root)...)
	}
	return out
}

// DiscoveryOptions builds walker options for root.
func (p Profile) DiscoveryOptions(root string, exclusions, included []string) DiscoveryOptions {
	opts := DiscoveryOptions{
		Root:          root,
		Extensions:    p.Extensions,
		Exclusions:    p.Exclusions(root, exclusions),
		IncludedFiles: included,
		NestedRoots:   p.Nested,
	}
	if p.FrameworkAware() {
		opts.Classifier = NewClassifier(p.Rules)
	}
	return opts
}

// FileLabel returns the file-chunk description prefix.
func (p Profile) FileLabel(dirType string) string {
	if p.fileLabel == nil {
		return "File"
	}
	return p.fileLabel(dirType)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
