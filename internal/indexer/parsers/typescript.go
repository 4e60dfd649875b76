package parsers

import (
	"context"
	"path/filepath"
	"strings"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/mvp-joe/code-ingest/internal/indexer/extraction"
)

// typeScriptParser parses TypeScript and TSX files in-process. It reports the
// same document as the external ts parser tool, plus classes and React components.
type typeScriptParser struct {
	*treeSitterParser
	tsx *sitter.Language
}

// NewTypeScriptParser creates a new TypeScript parser. Files ending in .tsx
// are parsed with the TSX grammar.
func NewTypeScriptParser() *typeScriptParser {
	lang := sitter.NewLanguage(typescript.LanguageTypescript())
	return &typeScriptParser{
		treeSitterParser: newTreeSitterParser(lang, "typescript"),
		tsx:              sitter.NewLanguage(typescript.LanguageTSX()),
	}
}

// Parse parses a TypeScript source file.
func (p *typeScriptParser) Parse(ctx context.Context, filePath string) (*extraction.Result, error) {
	language := p.language
	if strings.EqualFold(filepath.Ext(filePath), ".tsx") {
		language = p.tsx
	}

	file, err := parseFile(language, p.lang, filePath)
	if err != nil {
		return nil, err
	}
	defer file.close()

	result := &extraction.Result{}
	p.extractStructure(file, result)
	return result, nil
}

func (p *typeScriptParser) extractStructure(file *sourceFile, result *extraction.Result) {
	walkTree(file.root(), func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_statement":
			if src := n.ChildByFieldName("source"); src != nil {
				result.Imports = append(result.Imports, unquote(extractNodeText(src, file.source)))
			}
			return false
		case "export_statement":
			result.Exports = append(result.Exports, p.extractExports(n, file)...)
			// Exported declarations are still reported as types, functions and classes.
			return true
		case "interface_declaration":
			result.Types = append(result.Types, p.extractType(n, "interface", file))
			return false
		case "type_alias_declaration":
			result.Types = append(result.Types, p.extractType(n, "type", file))
			return false
		case "class_declaration", "abstract_class_declaration":
			result.Classes = append(result.Classes, p.extractClass(n, file))
			return false
		case "function_declaration", "function_expression":
			if n.Kind() == "function_expression" && (n.Parent() == nil || n.Parent().Kind() != "export_statement") {
				return true
			}
			name := nodeName(n, file.source)
			if isComponentName(name) && containsJSX(n) {
				result.ReactComponents = append(result.ReactComponents, p.extractComponent(n, name, n.ChildByFieldName("parameters"), file))
			} else {
				result.Functions = append(result.Functions, p.extractFunction(n, name, file))
			}
			return false
		case "lexical_declaration", "variable_declaration":
			p.extractArrowComponents(n, file, result)
			return false
		}
		return true
	})
}

// extractExports converts an export statement into one entry per exported name.
func (p *typeScriptParser) extractExports(node *sitter.Node, file *sourceFile) []extraction.ExportInfo {
	if findChildByType(node, "default") != nil {
		target := node.ChildByFieldName("declaration")
		if target == nil {
			target = node.ChildByFieldName("value")
		}
		name := "default"
		export := extraction.ExportInfo{Name: &name}
		if target != nil {
			code := extractNodeText(target, file.source)
			export.Type = target.Kind()
			export.Code = &code
		}
		return []extraction.ExportInfo{export}
	}

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		code := extractNodeText(decl, file.source)
		export := extraction.ExportInfo{Type: decl.Kind(), Code: &code}
		if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
			name := extractNodeText(nameNode, file.source)
			export.Name = &name
		}
		return []extraction.ExportInfo{export}
	}

	var exports []extraction.ExportInfo
	clause := findChildByType(node, "export_clause")
	for _, spec := range findChildrenByType(clause, "export_specifier") {
		nameNode := spec.ChildByFieldName("alias")
		if nameNode == nil {
			nameNode = spec.ChildByFieldName("name")
		}
		name := extractNodeText(nameNode, file.source)
		exports = append(exports, extraction.ExportInfo{Name: &name})
	}
	return exports
}

func (p *typeScriptParser) extractType(node *sitter.Node, kind string, file *sourceFile) extraction.TypeInfo {
	return extraction.TypeInfo{
		Name: nodeName(node, file.source),
		Kind: kind,
		Code: extractNodeText(node, file.source),
	}
}

func (p *typeScriptParser) extractFunction(node *sitter.Node, name string, file *sourceFile) extraction.FunctionInfo {
	startLine, endLine := nodeLines(node)
	return extraction.FunctionInfo{
		Name:      name,
		Code:      extractNodeText(node, file.source),
		StartLine: startLine,
		EndLine:   endLine,
	}
}

// extractClass extracts a class with its methods and field definitions.
func (p *typeScriptParser) extractClass(node *sitter.Node, file *sourceFile) extraction.ClassInfo {
	startLine, endLine := nodeLines(node)
	class := extraction.ClassInfo{
		Name:      nodeName(node, file.source),
		Code:      extractNodeText(node, file.source),
		StartLine: startLine,
		EndLine:   endLine,
	}

	body := node.ChildByFieldName("body")
	for _, member := range children(body) {
		switch member.Kind() {
		case "method_definition", "abstract_method_signature":
			class.Methods = append(class.Methods, p.extractMethod(member, file))
		case "public_field_definition":
			class.Properties = append(class.Properties, p.extractField(member, file))
		}
	}

	return class
}

// extractMethod reports the method kind: "constructor", "get", "set" or "method".
func (p *typeScriptParser) extractMethod(node *sitter.Node, file *sourceFile) extraction.FunctionInfo {
	startLine, endLine := nodeLines(node)
	name := nodeName(node, file.source)

	kind := "method"
	switch {
	case name == "constructor":
		kind = "constructor"
	case findChildByType(node, "get") != nil:
		kind = "get"
	case findChildByType(node, "set") != nil:
		kind = "set"
	}

	return extraction.FunctionInfo{
		Name:      name,
		Code:      extractNodeText(node, file.source),
		StartLine: startLine,
		EndLine:   endLine,
		Modifiers: memberModifiers(node, file.source),
		Kind:      kind,
	}
}

func (p *typeScriptParser) extractField(node *sitter.Node, file *sourceFile) extraction.PropertyInfo {
	startLine, endLine := nodeLines(node)
	prop := extraction.PropertyInfo{
		Name:      nodeName(node, file.source),
		Modifiers: memberModifiers(node, file.source),
		Code:      extractNodeText(node, file.source),
		StartLine: startLine,
		EndLine:   endLine,
	}
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		prop.Type = strings.TrimSpace(strings.TrimPrefix(extractNodeText(typeNode, file.source), ":"))
	}
	if value := node.ChildByFieldName("value"); value != nil {
		text := extractNodeText(value, file.source)
		prop.DefaultValue = &text
	}
	return prop
}

// extractArrowComponents reports "const Name = (props) => <jsx/>" declarations as components.
func (p *typeScriptParser) extractArrowComponents(node *sitter.Node, file *sourceFile, result *extraction.Result) {
	for _, decl := range findChildrenByType(node, "variable_declarator") {
		name := nodeName(decl, file.source)
		value := decl.ChildByFieldName("value")
		if value == nil || !isComponentName(name) {
			continue
		}
		if value.Kind() != "arrow_function" && value.Kind() != "function_expression" && value.Kind() != "function" {
			continue
		}
		if !containsJSX(value) {
			continue
		}

		params := value.ChildByFieldName("parameters")
		if params == nil {
			// Single unparenthesized parameter: "props => ..."
			params = value.ChildByFieldName("parameter")
		}
		result.ReactComponents = append(result.ReactComponents, p.extractComponent(node, name, params, file))
	}
}

func (p *typeScriptParser) extractComponent(node *sitter.Node, name string, params *sitter.Node, file *sourceFile) extraction.ComponentInfo {
	startLine, endLine := nodeLines(node)
	return extraction.ComponentInfo{
		Name:      name,
		Code:      extractNodeText(node, file.source),
		Props:     componentProps(params, file.source),
		StartLine: startLine,
		EndLine:   endLine,
	}
}

// componentProps lists destructured prop names of the first parameter, or the
// parameter name itself when it is not destructured.
func componentProps(params *sitter.Node, source []byte) []string {
	if params == nil {
		return nil
	}
	if params.Kind() == "identifier" {
		return []string{extractNodeText(params, source)}
	}

	var first *sitter.Node
	for _, child := range children(params) {
		if child.Kind() == "required_parameter" || child.Kind() == "optional_parameter" {
			first = child
			break
		}
	}
	if first == nil {
		return nil
	}

	pattern := first.ChildByFieldName("pattern")
	if pattern == nil {
		return nil
	}
	if pattern.Kind() != "object_pattern" {
		return []string{extractNodeText(pattern, source)}
	}

	var props []string
	for _, prop := range children(pattern) {
		switch prop.Kind() {
		case "shorthand_property_identifier_pattern":
			props = append(props, extractNodeText(prop, source))
		case "pair_pattern":
			props = append(props, extractNodeText(prop.ChildByFieldName("key"), source))
		case "object_assignment_pattern":
			props = append(props, extractNodeText(prop.ChildByFieldName("left"), source))
		}
	}
	return props
}

// memberModifiers collects accessibility, static, readonly, abstract and async keywords.
func memberModifiers(node *sitter.Node, source []byte) extraction.Modifiers {
	var mods extraction.Modifiers
	for _, child := range children(node) {
		switch child.Kind() {
		case "accessibility_modifier", "override_modifier":
			mods = append(mods, extractNodeText(child, source))
		case "static", "readonly", "abstract", "async":
			mods = append(mods, child.Kind())
		}
	}
	return mods
}

func isComponentName(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

func containsJSX(node *sitter.Node) bool {
	found := false
	walkTree(node, func(n *sitter.Node) bool {
		if found {
			return false
		}
		if strings.HasPrefix(n.Kind(), "jsx_") {
			found = true
			return false
		}
		return true
	})
	return found
}
