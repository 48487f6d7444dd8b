package options

import (
	"fmt"
)

// Options binds a raw mapping to a schema. Construction keeps only the
// subset of keys that are declared fields; unknown-key rejection is a
// separate validation concern, not a construction-time failure.
type Options struct {
	schema *Schema
	values map[string]any
}

func Bind(schema *Schema, raw map[string]any) *Options {
	values := make(map[string]any)
	for _, f := range schema.Fields() {
		if v, ok := raw[f.Name]; ok {
			values[f.Name] = v
		}
	}
	return &Options{schema: schema, values: values}
}

func (o *Options) Schema() *Schema {
	return o.schema
}

// Get returns the explicitly bound value if present, else the field's
// declared literal default, else the type tag's empty value. Looking up an
// undeclared key is an error, distinct from "declared but unset".
func (o *Options) Get(key string) (any, error) {
	field, ok := o.schema.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("no such option %q", key)
	}
	if v, bound := o.values[key]; bound {
		return v, nil
	}
	if field.HasDefault {
		return field.Default, nil
	}
	return field.Type.Empty(), nil
}

// GetOr behaves like Get but substitutes fallback when no explicit value is
// bound, bypassing the declared default.
func (o *Options) GetOr(key string, fallback any) any {
	if v, bound := o.values[key]; bound {
		return v
	}
	return fallback
}

// IsSet is true only if an explicit value was bound, separating "defaulted"
// from "explicit".
func (o *Options) IsSet(key string) bool {
	_, bound := o.values[key]
	return bound
}

// TypeOf resolves the declared type tag for key.
func (o *Options) TypeOf(key string) (TypeTag, error) {
	field, ok := o.schema.Lookup(key)
	if !ok {
		return Any, fmt.Errorf("no such option %q", key)
	}
	return field.Type, nil
}

// -----------------------------------------------------------------------------
// Typed accessors
// -----------------------------------------------------------------------------

func (o *Options) GetString(key string) string {
	v, err := o.Get(key)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (o *Options) GetInt(key string) int {
	v, err := o.Get(key)
	if err != nil {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func (o *Options) GetBool(key string) bool {
	v, err := o.Get(key)
	if err != nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

// GetStringList normalizes a string-or-list value to a list.
func (o *Options) GetStringList(key string) []string {
	v, err := o.Get(key)
	if err != nil {
		return nil
	}
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// GetMap normalizes mapping-typed values to map[string]any.
func (o *Options) GetMap(key string) map[string]any {
	v, err := o.Get(key)
	if err != nil {
		return map[string]any{}
	}
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, item := range m {
			out[k] = item
		}
		return out
	default:
		return map[string]any{}
	}
}
