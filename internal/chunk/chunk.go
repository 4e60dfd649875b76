// Package chunk defines the structured records produced for every ingested source file.
package chunk

// Kind identifies what a chunk describes.
type Kind string

const (
	KindFile           Kind = "file"
	KindClass          Kind = "class"
	KindMethod         Kind = "method"
	KindFunction       Kind = "function"
	KindProperty       Kind = "property"
	KindAttribute      Kind = "attribute"
	KindDependency     Kind = "dependency"
	KindDependencies   Kind = "dependencies"
	KindNamespace      Kind = "namespace"
	KindImport         Kind = "import"
	KindImports        Kind = "imports"
	KindExport         Kind = "export"
	KindReactComponent Kind = "react_component"
	KindType           Kind = "type"
)

// Chunk is one structured record describing a single code element.
// File chunks carry Metadata and nested Chunks; class chunks carry Methods
// and Properties (PHP, TypeScript) or Attributes (Python).
type Chunk struct {
	ID          string  `json:"id"`
	Type        Kind    `json:"type"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description"`
	Code        *string `json:"code,omitempty"`
	StartLine   int     `json:"start_line,omitempty"`
	EndLine     int     `json:"end_line,omitempty"`

	Modifiers    []string `json:"modifiers,omitempty"`
	ValueType    string   `json:"value_type,omitempty"`
	DefaultValue *string  `json:"default_value,omitempty"`
	Kind         string   `json:"kind,omitempty"`
	Props        []string `json:"props,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`

	Metadata *FileMetadata `json:"metadata,omitempty"`
	Chunks   []*Chunk      `json:"chunks,omitempty"`

	Methods    []*Chunk `json:"methods,omitempty"`
	Properties []*Chunk `json:"properties,omitempty"`
	Attributes []*Chunk `json:"attributes,omitempty"`
	QA         []QAPair `json:"qa,omitempty"`
}

// FileMetadata is attached to file-level chunks only.
// Source is the path relative to the project root and is the default grouping key.
type FileMetadata struct {
	Source        string `json:"source"`
	FileName      string `json:"file_name"`
	FileExtension string `json:"file_extension"`
	FileType      string `json:"file_type"`
	DirectoryType string `json:"directory_type,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// QAPair is a generated question/answer about a code element.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Context  string `json:"context,omitempty"`
}

// Text returns a pointer to s, for optional string fields.
func Text(s string) *string {
	return &s
}

// CodeText returns the chunk's code or "" when none was captured.
func (c *Chunk) CodeText() string {
	if c == nil || c.Code == nil {
		return ""
	}
	return *c.Code
}

// Walk visits c and every nested chunk depth-first, in serialization order.
func (c *Chunk) Walk(visit func(*Chunk)) {
	if c == nil {
		return
	}
	visit(c)
	for _, group := range [][]*Chunk{c.Chunks, c.Methods, c.Properties, c.Attributes} {
		for _, child := range group {
			child.Walk(visit)
		}
	}
}
