// Package extraction defines the structured document every language parser returns.
//
// The JSON shape is shared with the external PHP and TypeScript parser tools:
//
//	{"classes": [...], "functions": [...], "dependencies": [...], "namespace": "...",
//	 "react_components": [...], "types": [...], "imports": [...], "exports": [...]}
//
// or {"error": "..."} when the tool could not understand the source.
package extraction

import (
	"encoding/json"
	"fmt"
)

// Result is the parser output for a single file.
type Result struct {
	Namespace       *string         `json:"namespace"`
	Classes         []ClassInfo     `json:"classes"`
	Functions       []FunctionInfo  `json:"functions"`
	Dependencies    []string        `json:"dependencies"`
	ReactComponents []ComponentInfo `json:"react_components,omitempty"`
	Types           []TypeInfo      `json:"types,omitempty"`
	Imports         []string        `json:"imports,omitempty"`
	Exports         []ExportInfo    `json:"exports,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// Empty reports whether the parser found no structural elements.
func (r *Result) Empty() bool {
	if r == nil {
		return true
	}
	return (r.Namespace == nil || *r.Namespace == "") &&
		len(r.Classes) == 0 &&
		len(r.Functions) == 0 &&
		len(r.Dependencies) == 0 &&
		len(r.ReactComponents) == 0 &&
		len(r.Types) == 0 &&
		len(r.Imports) == 0 &&
		len(r.Exports) == 0
}

// ClassInfo describes a class declaration.
type ClassInfo struct {
	Name       string         `json:"name"`
	Code       string         `json:"code,omitempty"`
	StartLine  int            `json:"start_line,omitempty"`
	EndLine    int            `json:"end_line,omitempty"`
	Methods    []FunctionInfo `json:"methods,omitempty"`
	Properties []PropertyInfo `json:"properties,omitempty"`
	Attributes []PropertyInfo `json:"attributes,omitempty"`
}

// UnmarshalJSON accepts either a full class object or a bare class name,
// since older parser scripts only report names.
func (c *ClassInfo) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = ClassInfo{Name: name}
		return nil
	}
	type plain ClassInfo
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("class entry: %w", err)
	}
	*c = ClassInfo(p)
	return nil
}

// FunctionInfo describes a free function or a method.
type FunctionInfo struct {
	Name      string    `json:"name"`
	Code      string    `json:"code,omitempty"`
	StartLine int       `json:"start_line,omitempty"`
	EndLine   int       `json:"end_line,omitempty"`
	Modifiers Modifiers `json:"modifiers,omitempty"`
	Kind      string    `json:"kind,omitempty"` // TypeScript method kind: "method", "get", "set", "constructor"
}

// UnmarshalJSON accepts a bare function name as well as an object.
func (f *FunctionInfo) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*f = FunctionInfo{Name: name}
		return nil
	}
	type plain FunctionInfo
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("function entry: %w", err)
	}
	*f = FunctionInfo(p)
	return nil
}

// PropertyInfo describes a class property or attribute.
type PropertyInfo struct {
	Name         string    `json:"name"`
	Type         string    `json:"type,omitempty"`
	DefaultValue *string   `json:"default_value,omitempty"`
	Modifiers    Modifiers `json:"modifiers,omitempty"`
	Code         string    `json:"code,omitempty"`
	StartLine    int       `json:"start_line,omitempty"`
	EndLine      int       `json:"end_line,omitempty"`
}

// ComponentInfo describes a React component.
type ComponentInfo struct {
	Name      string   `json:"name"`
	Code      string   `json:"code,omitempty"`
	Props     []string `json:"props,omitempty"`
	StartLine int      `json:"start_line,omitempty"`
	EndLine   int      `json:"end_line,omitempty"`
}

// TypeInfo describes an interface or type alias.
type TypeInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // "interface" or "type"
	Code string `json:"code,omitempty"`
}

// ExportInfo describes an exported symbol.
type ExportInfo struct {
	Name *string `json:"name"`
	Type string  `json:"type,omitempty"`
	Code *string `json:"code"`
}

// Modifiers is a list of declaration modifiers such as "public" or "static".
// Parser tools report them in several shapes: a list, a single keyword
// ("method", "get"), or a boolean static flag.
type Modifiers []string

// UnmarshalJSON normalises every reported shape to a list.
func (m *Modifiers) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*m = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*m = nil
		} else {
			*m = Modifiers{single}
		}
		return nil
	}
	var static bool
	if err := json.Unmarshal(data, &static); err == nil {
		if static {
			*m = Modifiers{"static"}
		} else {
			*m = nil
		}
		return nil
	}
	return fmt.Errorf("unsupported modifiers value: %s", data)
}
