package parsers

import (
	"context"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/mvp-joe/code-ingest/internal/indexer/extraction"
)

// pythonParser parses Python files in-process.
//
// Only module-level classes and functions are reported. Functions defined in a
// class body become methods of that class and simple name assignments in the
// body become attributes. Nested classes, decorator metadata and computed
// assignment targets are not reported.
type pythonParser struct {
	*treeSitterParser
}

// NewPythonParser creates a new Python parser.
func NewPythonParser() *pythonParser {
	lang := sitter.NewLanguage(python.Language())
	return &pythonParser{
		treeSitterParser: newTreeSitterParser(lang, "python"),
	}
}

// Parse parses a Python source file.
func (p *pythonParser) Parse(ctx context.Context, filePath string) (*extraction.Result, error) {
	file, err := parseFile(p.language, p.lang, filePath)
	if err != nil {
		return nil, err
	}
	defer file.close()

	result := &extraction.Result{}
	p.extractStructure(file, result)
	return result, nil
}

// extractStructure walks the tree once, using parent links to decide where each
// definition belongs.
func (p *pythonParser) extractStructure(file *sourceFile, result *extraction.Result) {
	walkTree(file.root(), func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_statement":
			result.Dependencies = append(result.Dependencies, p.importNames(n, file.source)...)
			return false
		case "import_from_statement":
			if module := n.ChildByFieldName("module_name"); module != nil {
				result.Dependencies = append(result.Dependencies, extractNodeText(module, file.source))
			}
			return false
		case "class_definition":
			if enclosingScope(n) == nil {
				result.Classes = append(result.Classes, p.extractClass(n, file))
			}
			// Class bodies are handled by extractClass; nested classes are not reported.
			return false
		case "function_definition":
			if enclosingScope(n) == nil {
				result.Functions = append(result.Functions, p.extractFunction(n, file))
			}
			return false
		}
		return true
	})
}

// enclosingScope returns the nearest class or function definition containing node.
// nil means node is at module level.
func enclosingScope(node *sitter.Node) *sitter.Node {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		switch parent.Kind() {
		case "class_definition", "function_definition":
			return parent
		case "module":
			return nil
		}
	}
	return nil
}

// importNames returns the module names of an "import a, b.c as d" statement.
func (p *pythonParser) importNames(node *sitter.Node, source []byte) []string {
	var names []string
	for _, child := range children(node) {
		switch child.Kind() {
		case "dotted_name":
			names = append(names, extractNodeText(child, source))
		case "aliased_import":
			names = append(names, extractNodeText(child.ChildByFieldName("name"), source))
		}
	}
	return names
}

// extractClass extracts a class with its methods and attributes.
func (p *pythonParser) extractClass(node *sitter.Node, file *sourceFile) extraction.ClassInfo {
	startLine, endLine := nodeLines(node)
	class := extraction.ClassInfo{
		Name:      nodeName(node, file.source),
		Code:      extractNodeText(node, file.source),
		StartLine: startLine,
		EndLine:   endLine,
	}

	body := node.ChildByFieldName("body")
	for _, child := range children(body) {
		switch child.Kind() {
		case "function_definition":
			class.Methods = append(class.Methods, p.extractFunction(child, file))
		case "decorated_definition":
			if def := child.ChildByFieldName("definition"); def != nil && def.Kind() == "function_definition" {
				class.Methods = append(class.Methods, p.extractFunction(def, file))
			}
		case "expression_statement":
			if attr, ok := p.extractAttribute(child, file); ok {
				class.Attributes = append(class.Attributes, attr)
			}
		}
	}

	return class
}

// extractFunction extracts a function or method definition.
func (p *pythonParser) extractFunction(node *sitter.Node, file *sourceFile) extraction.FunctionInfo {
	startLine, endLine := nodeLines(node)
	fn := extraction.FunctionInfo{
		Name:      nodeName(node, file.source),
		Code:      extractNodeText(node, file.source),
		StartLine: startLine,
		EndLine:   endLine,
	}
	if first := node.Child(0); first != nil && first.Kind() == "async" {
		fn.Modifiers = extraction.Modifiers{"async"}
	}
	return fn
}

// extractAttribute extracts "name = value" or "name: type = value" from a class body.
// Tuple, attribute and subscript targets are skipped.
func (p *pythonParser) extractAttribute(stmt *sitter.Node, file *sourceFile) (extraction.PropertyInfo, bool) {
	assignment := findChildByType(stmt, "assignment")
	if assignment == nil {
		return extraction.PropertyInfo{}, false
	}

	left := assignment.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return extraction.PropertyInfo{}, false
	}

	startLine, endLine := nodeLines(assignment)
	attr := extraction.PropertyInfo{
		Name:      extractNodeText(left, file.source),
		Type:      extractNodeText(assignment.ChildByFieldName("type"), file.source),
		Code:      extractNodeText(stmt, file.source),
		StartLine: startLine,
		EndLine:   endLine,
	}
	if right := assignment.ChildByFieldName("right"); right != nil {
		value := extractNodeText(right, file.source)
		attr.DefaultValue = &value
	}
	return attr, true
}
