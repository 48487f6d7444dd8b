// Package config loads, merges, and validates the project configuration:
// one root config file plus zero or more included files, combined into a
// single task namespace. The root always wins on conflicts; among includes,
// earlier-declared includes take precedence over later-declared ones.
package config

import (
	"github.com/taskwell/taskwell/engine/options"
)

// SectionTable is the top-level table holding the tool section.
const SectionTable = "tool"

// SectionName is the recognized section under SectionTable.
const SectionName = "taskwell"

// projectSchema declares the options allowed directly under tool.taskwell
// in the root config file.
var projectSchema = options.NewSchema(
	options.Field{Name: "default_task_type", Type: options.String}.WithDefault("cmd"),
	options.Field{Name: "default_array_task_type", Type: options.String}.WithDefault("sequence"),
	options.Field{Name: "default_array_item_task_type", Type: options.String}.WithDefault("ref"),
	options.Field{Name: "env", Type: options.AnyMap},
	options.Field{Name: "envfile", Type: options.StringOrStringList},
	options.Field{Name: "executor", Type: options.AnyMap},
	options.Field{Name: "include", Type: options.Any},
	options.Field{Name: "poetry_command", Type: options.String},
	options.Field{Name: "poetry_hooks", Type: options.StringMap},
	options.Field{Name: "shell_interpreter", Type: options.StringOrStringList}.WithDefault("posix"),
	options.Field{Name: "verbosity", Type: options.Int}.WithDefault(0),
	options.Field{Name: "tasks", Type: options.AnyMap},
)

// includedSchema declares the subset of options an included file may carry.
var includedSchema = options.NewSchema(
	options.Field{Name: "env", Type: options.AnyMap},
	options.Field{Name: "envfile", Type: options.StringOrStringList},
	options.Field{Name: "tasks", Type: options.AnyMap},
)

// Partition is one config source: the typed options bound to its section,
// the raw section mapping, the file it came from, and the directory its
// tasks run against.
type Partition struct {
	Options *options.Options
	Raw     map[string]any
	Path    string
	Dir     string
}

func newPartition(schema *options.Schema, section map[string]any, dir, path string) *Partition {
	return &Partition{
		Options: options.Bind(schema, section),
		Raw:     section,
		Path:    path,
		Dir:     dir,
	}
}

func (p *Partition) Get(key string) (any, error) {
	return p.Options.Get(key)
}

// IsOptionTypeValid reports whether the bound value for key structurally
// matches its declared type tag. Unset keys are vacuously valid.
func (p *Partition) IsOptionTypeValid(key string) bool {
	if !p.Options.IsSet(key) {
		return true
	}
	value, err := p.Options.Get(key)
	if err != nil {
		return false
	}
	tag, err := p.Options.TypeOf(key)
	if err != nil {
		return false
	}
	return tag.Check(value)
}

// Tasks returns the partition's own task table.
func (p *Partition) Tasks() map[string]any {
	return p.Options.GetMap("tasks")
}
