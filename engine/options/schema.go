// Package options implements the declarative field/type/default system
// shared by every config and task-option type. An options type is described
// by a static table of field descriptors rather than reflection: each field
// carries a name, a closed type tag, and an optional literal default.
package options

import (
	"strings"
)

// -----------------------------------------------------------------------------
// TypeTag
// -----------------------------------------------------------------------------

// TypeTag enumerates the value shapes an option field may declare.
type TypeTag int

const (
	String TypeTag = iota
	Bool
	Int
	StringList
	StringOrStringList
	BoolOrString
	StringMap
	AnyMap
	AnyList
	Any
)

func (t TypeTag) String() string {
	switch t {
	case String:
		return "string"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case StringList:
		return "list of strings"
	case StringOrStringList:
		return "string or list of strings"
	case BoolOrString:
		return "bool or string"
	case StringMap:
		return "mapping of strings"
	case AnyMap:
		return "mapping"
	case AnyList:
		return "list"
	case Any:
		return "any"
	default:
		return "unknown"
	}
}

// Check reports whether v structurally matches the tag. Union tags accept any
// of their members; mapping-like and list-like tags collapse to plain map and
// slice checks.
func (t TypeTag) Check(v any) bool {
	switch t {
	case String:
		_, ok := v.(string)
		return ok
	case Bool:
		_, ok := v.(bool)
		return ok
	case Int:
		return isInt(v)
	case StringList:
		return isStringList(v)
	case StringOrStringList:
		if _, ok := v.(string); ok {
			return true
		}
		return isStringList(v)
	case BoolOrString:
		if _, ok := v.(bool); ok {
			return true
		}
		_, ok := v.(string)
		return ok
	case StringMap:
		switch m := v.(type) {
		case map[string]string:
			return true
		case map[string]any:
			for _, item := range m {
				if _, ok := item.(string); !ok {
					return false
				}
			}
			return true
		default:
			return false
		}
	case AnyMap:
		_, ok := v.(map[string]any)
		if !ok {
			_, ok = v.(map[string]string)
		}
		return ok
	case AnyList:
		_, ok := v.([]any)
		return ok
	case Any:
		return true
	default:
		return false
	}
}

// Empty returns the tag's no-value fallback: an empty mapping for mapping
// tags, an empty list for list tags, and the zero of the first union member
// otherwise.
func (t TypeTag) Empty() any {
	switch t {
	case String:
		return ""
	case Bool:
		return false
	case Int:
		return 0
	case StringList, AnyList:
		return []any{}
	case StringOrStringList:
		return ""
	case BoolOrString:
		return false
	case StringMap, AnyMap:
		return map[string]any{}
	default:
		return nil
	}
}

func isInt(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		f := v.(float64)
		return f == float64(int64(f))
	default:
		return false
	}
}

func isStringList(v any) bool {
	switch list := v.(type) {
	case []string:
		return true
	case []any:
		for _, item := range list {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// -----------------------------------------------------------------------------
// Field / Schema
// -----------------------------------------------------------------------------

// Field declares one option: its name, type tag, and optional literal default.
type Field struct {
	Name       string
	Type       TypeTag
	Default    any
	HasDefault bool
}

// WithDefault returns a copy of the field carrying a literal default.
func (f Field) WithDefault(v any) Field {
	f.Default = v
	f.HasDefault = true
	return f
}

// Schema is the field registry of one options type. A schema may extend a
// parent schema; the effective field set is the union of the ancestor chain
// and own fields, excluding any name starting with an underscore.
type Schema struct {
	parent *Schema
	own    []Field

	// union cache, built once
	fields []Field
	byName map[string]Field
}

func NewSchema(fields ...Field) *Schema {
	s := &Schema{own: fields}
	s.build()
	return s
}

// Extend derives a schema inheriting every field of the receiver.
func (s *Schema) Extend(fields ...Field) *Schema {
	child := &Schema{parent: s, own: fields}
	child.build()
	return child
}

func (s *Schema) build() {
	merged := make(map[string]Field)
	order := make([]string, 0)
	var collect func(schema *Schema)
	collect = func(schema *Schema) {
		if schema == nil {
			return
		}
		collect(schema.parent)
		for _, f := range schema.own {
			if strings.HasPrefix(f.Name, "_") {
				continue
			}
			if _, seen := merged[f.Name]; !seen {
				order = append(order, f.Name)
			}
			merged[f.Name] = f
		}
	}
	collect(s)

	s.fields = make([]Field, 0, len(order))
	s.byName = make(map[string]Field, len(order))
	for _, name := range order {
		s.fields = append(s.fields, merged[name])
		s.byName[name] = merged[name]
	}
}

// Fields returns the cached union of ancestor and own fields. The returned
// slice must not be mutated.
func (s *Schema) Fields() []Field {
	return s.fields
}

func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		names = append(names, f.Name)
	}
	return names
}

func (s *Schema) Lookup(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

func (s *Schema) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}
