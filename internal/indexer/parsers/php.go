package parsers

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"

	"github.com/mvp-joe/code-ingest/internal/indexer/extraction"
)

// phpParser parses PHP files in-process. It reports the same document as the
// external php parser tool.
type phpParser struct {
	*treeSitterParser
}

// NewPhpParser creates a new PHP parser.
func NewPhpParser() *phpParser {
	lang := sitter.NewLanguage(php.LanguagePHP())
	return &phpParser{
		treeSitterParser: newTreeSitterParser(lang, "php"),
	}
}

// Parse parses a PHP source file.
func (p *phpParser) Parse(ctx context.Context, filePath string) (*extraction.Result, error) {
	file, err := parseFile(p.language, p.lang, filePath)
	if err != nil {
		return nil, err
	}
	defer file.close()

	result := &extraction.Result{}
	p.extractStructure(file, result)
	return result, nil
}

// extractStructure extracts namespace, use statements, classes, interfaces, traits and functions.
func (p *phpParser) extractStructure(file *sourceFile, result *extraction.Result) {
	walkTree(file.root(), func(n *sitter.Node) bool {
		switch n.Kind() {
		case "namespace_definition":
			if result.Namespace == nil {
				if nameNode := n.ChildByFieldName("name"); nameNode != nil {
					ns := extractNodeText(nameNode, file.source)
					result.Namespace = &ns
				}
			}
			// Braced namespaces contain declarations.
			return true
		case "namespace_use_declaration":
			result.Dependencies = append(result.Dependencies, p.useNames(n, file.source)...)
			return false
		case "class_declaration", "interface_declaration", "trait_declaration":
			result.Classes = append(result.Classes, p.extractClass(n, file))
			return false
		case "function_definition":
			result.Functions = append(result.Functions, p.extractFunction(n, file))
			return false
		}
		return true
	})
}

// useNames returns the imported names of a use statement. Group clauses are
// prefixed with the group namespace.
func (p *phpParser) useNames(node *sitter.Node, source []byte) []string {
	var prefix string
	if group := findChildByType(node, "namespace_use_group"); group != nil {
		if ns := findChildByType(node, "namespace_name"); ns != nil {
			prefix = extractNodeText(ns, source) + `\`
		}
	}

	var names []string
	walkTree(node, func(n *sitter.Node) bool {
		if n.Kind() != "namespace_use_clause" && n.Kind() != "namespace_use_group_clause" {
			return true
		}
		var name *sitter.Node
		for _, kind := range []string{"qualified_name", "namespace_name", "name"} {
			if name = findChildByType(n, kind); name != nil {
				break
			}
		}
		if name != nil {
			names = append(names, prefix+strings.TrimPrefix(extractNodeText(name, source), `\`))
		}
		return false
	})
	return names
}

// extractClass extracts a class-like declaration with its methods and properties.
func (p *phpParser) extractClass(node *sitter.Node, file *sourceFile) extraction.ClassInfo {
	startLine, endLine := nodeLines(node)
	class := extraction.ClassInfo{
		Name:      nodeName(node, file.source),
		Code:      extractLines(file.lines, startLine, endLine),
		StartLine: startLine,
		EndLine:   endLine,
	}

	body := node.ChildByFieldName("body")
	for _, member := range children(body) {
		switch member.Kind() {
		case "method_declaration":
			class.Methods = append(class.Methods, p.extractFunction(member, file))
		case "property_declaration":
			class.Properties = append(class.Properties, p.extractProperties(member, file)...)
		}
	}

	return class
}

// extractFunction extracts a function definition or a method declaration.
func (p *phpParser) extractFunction(node *sitter.Node, file *sourceFile) extraction.FunctionInfo {
	startLine, endLine := nodeLines(node)
	return extraction.FunctionInfo{
		Name:      nodeName(node, file.source),
		Code:      extractLines(file.lines, startLine, endLine),
		StartLine: startLine,
		EndLine:   endLine,
		Modifiers: modifiersOf(node, file.source),
	}
}

// extractProperties extracts every property of a declaration such as
// "private static $a = 1, $b;".
func (p *phpParser) extractProperties(node *sitter.Node, file *sourceFile) []extraction.PropertyInfo {
	startLine, endLine := nodeLines(node)
	modifiers := modifiersOf(node, file.source)
	valueType := extractNodeText(node.ChildByFieldName("type"), file.source)
	code := extractLines(file.lines, startLine, endLine)

	var props []extraction.PropertyInfo
	for _, element := range findChildrenByType(node, "property_element") {
		nameNode := element.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = findChildByType(element, "variable_name")
		}
		if nameNode == nil {
			continue
		}

		prop := extraction.PropertyInfo{
			Name:      strings.TrimPrefix(extractNodeText(nameNode, file.source), "$"),
			Type:      valueType,
			Modifiers: modifiers,
			Code:      code,
			StartLine: startLine,
			EndLine:   endLine,
		}
		if value := propertyDefault(element, file.source); value != nil {
			prop.DefaultValue = value
		}
		props = append(props, prop)
	}
	return props
}

// propertyDefault returns the initializer text of a property element, or nil.
// Older grammars wrap it in property_initializer, newer ones expose a field.
func propertyDefault(element *sitter.Node, source []byte) *string {
	if value := element.ChildByFieldName("default_value"); value != nil {
		text := extractNodeText(value, source)
		return &text
	}
	if init := findChildByType(element, "property_initializer"); init != nil {
		text := strings.TrimSpace(strings.TrimPrefix(extractNodeText(init, source), "="))
		return &text
	}
	return nil
}

// modifiersOf collects visibility, static, abstract, final and readonly keywords.
func modifiersOf(node *sitter.Node, source []byte) extraction.Modifiers {
	var mods extraction.Modifiers
	for _, child := range children(node) {
		if strings.HasSuffix(child.Kind(), "_modifier") {
			mods = append(mods, strings.ToLower(extractNodeText(child, source)))
		}
	}
	return mods
}
