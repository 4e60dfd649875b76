package parsers

import (
	"fmt"
	"os"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// treeSitterParser provides common tree-sitter parsing functionality.
type treeSitterParser struct {
	language *sitter.Language
	lang     string
}

// newTreeSitterParser creates a new tree-sitter parser for the given language.
func newTreeSitterParser(language *sitter.Language, lang string) *treeSitterParser {
	return &treeSitterParser{
		language: language,
		lang:     lang,
	}
}

func (p *treeSitterParser) Language() string {
	return p.lang
}

// sourceFile is a parsed file and the buffers the extractors read from.
type sourceFile struct {
	path   string
	source []byte
	lines  []string
	tree   *sitter.Tree
}

func (f *sourceFile) close() {
	if f.tree != nil {
		f.tree.Close()
	}
}

func (f *sourceFile) root() *sitter.Node {
	return f.tree.RootNode()
}

// parseFile reads filePath and parses it with language.
// A tree containing syntax errors is reported as ErrSourceError.
func parseFile(language *sitter.Language, lang, filePath string) (*sourceFile, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, newError(ErrParseFailure, filePath, "cannot read source", err)
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(language); err != nil {
		return nil, newError(ErrToolUnavailable, filePath, "cannot load "+lang+" grammar", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, newError(ErrParseFailure, filePath, fmt.Sprintf("failed to parse %s file", lang), nil)
	}

	if tree.RootNode().HasError() {
		line := firstErrorLine(tree.RootNode())
		tree.Close()
		return nil, newError(ErrSourceError, filePath, fmt.Sprintf("syntax error near line %d", line), nil)
	}

	return &sourceFile{
		path:   filePath,
		source: source,
		lines:  strings.Split(string(source), "\n"),
		tree:   tree,
	}, nil
}

// firstErrorLine returns the 1-based line of the first ERROR or MISSING node.
func firstErrorLine(root *sitter.Node) int {
	line := int(root.StartPosition().Row) + 1
	found := false
	walkTree(root, func(n *sitter.Node) bool {
		if found {
			return false
		}
		if n.IsError() || n.IsMissing() {
			line = int(n.StartPosition().Row) + 1
			found = true
			return false
		}
		return n.HasError()
	})
	return line
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// extractLines extracts source code lines from startLine to endLine (1-indexed).
func extractLines(lines []string, startLine, endLine int) string {
	if startLine < 1 || endLine < 1 || startLine > len(lines) {
		return ""
	}

	start := startLine - 1
	end := endLine
	if end > len(lines) {
		end = len(lines)
	}

	return strings.Join(lines[start:end], "\n")
}

// nodeLines returns the 1-based start and end lines of node.
func nodeLines(node *sitter.Node) (int, int) {
	return int(node.StartPosition().Row) + 1, int(node.EndPosition().Row) + 1
}

// nodeName returns the text of node's "name" field.
func nodeName(node *sitter.Node, source []byte) string {
	return extractNodeText(node.ChildByFieldName("name"), source)
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
// Returning false from the visitor skips the node's children.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		walkTree(child, visitor)
	}
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// findChildrenByType finds all child nodes with the given type.
func findChildrenByType(node *sitter.Node, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			results = append(results, child)
		}
	}
	return results
}

// children returns every child of node.
func children(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.ChildCount())
	for i := 0; i < int(node.ChildCount()); i++ {
		out = append(out, node.Child(uint(i)))
	}
	return out
}

// unquote strips matching quotes from a string literal.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'' || first == '`') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}
