package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mvp-joe/code-ingest/internal/chunk"
	"github.com/mvp-joe/code-ingest/internal/indexer/extraction"
)

// Chunker converts a parser result into a file chunk.
type Chunker interface {
	// BuildFileChunk builds the file chunk for file. When result has no
	// structural elements the file's raw content becomes the chunk's code.
	BuildFileChunk(file FileEntry, profile Profile, result *extraction.Result) (*chunk.Chunk, error)
}

// chunker implements the Chunker interface.
type chunker struct {
	now func() time.Time
}

// NewChunker creates a new chunker with deterministic template descriptions.
func NewChunker() Chunker {
	return &chunker{now: time.Now}
}

// BuildFileChunk assembles children in the order namespace, classes,
// functions, React components, types, dependencies, imports, exports.
func (c *chunker) BuildFileChunk(file FileEntry, profile Profile, result *extraction.Result) (*chunk.Chunk, error) {
	base := filepath.Base(file.Path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	fileChunk := &chunk.Chunk{
		ID:          chunk.NewID(),
		Type:        chunk.KindFile,
		Name:        stem,
		Description: fmt.Sprintf("%s: %s", profile.FileLabel(file.DirType), base),
		Metadata: &chunk.FileMetadata{
			Source:        filepath.ToSlash(file.RelPath),
			FileName:      stem,
			FileExtension: ext,
			FileType:      fileType(profile, ext),
			DirectoryType: file.DirType,
			Timestamp:     c.now().Format(time.RFC3339),
		},
	}

	if result != nil {
		fileChunk.Chunks = buildChildren(result)
	}

	if len(fileChunk.Chunks) == 0 {
		source, err := os.ReadFile(file.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Path, err)
		}
		fileChunk.Code = chunk.Text(string(source))
	}

	return fileChunk, nil
}

func buildChildren(result *extraction.Result) []*chunk.Chunk {
	var children []*chunk.Chunk

	if result.Namespace != nil && *result.Namespace != "" {
		children = append(children, &chunk.Chunk{
			ID:          chunk.NewID(),
			Type:        chunk.KindNamespace,
			Name:        *result.Namespace,
			Description: "Namespace: " + *result.Namespace,
		})
	}

	for _, class := range result.Classes {
		children = append(children, buildClass(class))
	}

	for _, fn := range result.Functions {
		children = append(children, &chunk.Chunk{
			ID:          chunk.NewID(),
			Type:        chunk.KindFunction,
			Name:        fn.Name,
			Description: "Global function " + fn.Name,
			Code:        optionalText(fn.Code),
			StartLine:   fn.StartLine,
			EndLine:     fn.EndLine,
			Modifiers:   fn.Modifiers,
		})
	}

	for _, comp := range result.ReactComponents {
		children = append(children, &chunk.Chunk{
			ID:          chunk.NewID(),
			Type:        chunk.KindReactComponent,
			Name:        comp.Name,
			Description: "React component: " + comp.Name,
			Code:        optionalText(comp.Code),
			StartLine:   comp.StartLine,
			EndLine:     comp.EndLine,
			Props:       comp.Props,
		})
	}

	for _, typ := range result.Types {
		children = append(children, &chunk.Chunk{
			ID:          chunk.NewID(),
			Type:        chunk.KindType,
			Name:        typ.Name,
			Description: fmt.Sprintf("Type %s (%s)", typ.Name, typ.Kind),
			Code:        optionalText(typ.Code),
			Kind:        typ.Kind,
		})
	}

	if len(result.Dependencies) > 0 {
		children = append(children, &chunk.Chunk{
			ID:           chunk.NewID(),
			Type:         chunk.KindDependencies,
			Description:  "List of dependencies",
			Dependencies: result.Dependencies,
		})
	}

	if len(result.Imports) > 0 {
		children = append(children, &chunk.Chunk{
			ID:           chunk.NewID(),
			Type:         chunk.KindImports,
			Description:  "List of imports",
			Dependencies: result.Imports,
		})
	}

	for _, exp := range result.Exports {
		name := ""
		if exp.Name != nil {
			name = *exp.Name
		}
		description := "Export"
		if name != "" {
			description += " " + name
		}
		children = append(children, &chunk.Chunk{
			ID:          chunk.NewID(),
			Type:        chunk.KindExport,
			Name:        name,
			Description: description,
			Code:        exp.Code,
			Kind:        exp.Type,
		})
	}

	return children
}

func buildClass(class extraction.ClassInfo) *chunk.Chunk {
	c := &chunk.Chunk{
		ID:          chunk.NewID(),
		Type:        chunk.KindClass,
		Name:        class.Name,
		Description: "Class definition: " + class.Name,
		Code:        optionalText(class.Code),
		StartLine:   class.StartLine,
		EndLine:     class.EndLine,
	}

	for _, m := range class.Methods {
		c.Methods = append(c.Methods, &chunk.Chunk{
			ID:          chunk.NewID(),
			Type:        chunk.KindMethod,
			Name:        m.Name,
			Description: fmt.Sprintf("Method %s in class %s", m.Name, class.Name),
			Code:        optionalText(m.Code),
			StartLine:   m.StartLine,
			EndLine:     m.EndLine,
			Modifiers:   m.Modifiers,
			Kind:        m.Kind,
		})
	}

	for _, p := range class.Properties {
		c.Properties = append(c.Properties, buildMember(chunk.KindProperty, "Property", p, class.Name))
	}

	for _, a := range class.Attributes {
		c.Attributes = append(c.Attributes, buildMember(chunk.KindAttribute, "Attribute", a, class.Name))
	}

	return c
}

func buildMember(kind chunk.Kind, label string, p extraction.PropertyInfo, className string) *chunk.Chunk {
	return &chunk.Chunk{
		ID:           chunk.NewID(),
		Type:         kind,
		Name:         p.Name,
		Description:  fmt.Sprintf("%s %s in class %s", label, p.Name, className),
		Code:         optionalText(p.Code),
		StartLine:    p.StartLine,
		EndLine:      p.EndLine,
		Modifiers:    p.Modifiers,
		ValueType:    p.Type,
		DefaultValue: p.DefaultValue,
	}
}

// fileType returns "php", "python", "ts" or "tsx".
func fileType(profile Profile, ext string) string {
	switch strings.ToLower(ext) {
	case ".tsx":
		return "tsx"
	case ".ts":
		return "ts"
	}
	return profile.Language
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return chunk.Text(s)
}
