// Package env implements environment propagation for tasks: each task
// receives a snapshot of its parent's variables and extends it with its own
// bindings, never mutating the parent's copy.
package env

import (
	"fmt"
	"os"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"

	"github.com/taskwell/taskwell/engine/core"
)

// Manager holds one task's view of the environment.
type Manager struct {
	vars core.EnvMap
}

func NewManager(base core.EnvMap) *Manager {
	return &Manager{vars: base.Clone()}
}

// FromOS seeds a manager from the process environment.
func FromOS() *Manager {
	vars := make(core.EnvMap)
	for _, entry := range os.Environ() {
		if key, value, ok := strings.Cut(entry, "="); ok {
			vars[key] = value
		}
	}
	return &Manager{vars: vars}
}

// Clone snapshots the manager for a child task. Changes made by the child
// never leak back.
func (m *Manager) Clone() *Manager {
	return &Manager{vars: m.vars.Clone()}
}

// Update merges overrides on top of the current variables. An override set
// to the empty string still replaces the existing value.
func (m *Manager) Update(overrides map[string]string) error {
	merged := m.vars.Clone()
	err := mergo.Merge(&merged, core.EnvMap(overrides), mergo.WithOverride, mergo.WithOverwriteWithEmptyValue)
	if err != nil {
		return fmt.Errorf("failed to merge env vars: %w", err)
	}
	m.vars = merged
	return nil
}

func (m *Manager) Set(key, value string) {
	m.vars[key] = value
}

func (m *Manager) Get(key string) (string, bool) {
	v, ok := m.vars[key]
	return v, ok
}

func (m *Manager) Vars() core.EnvMap {
	return m.vars
}

func (m *Manager) AsSlice() []string {
	return m.vars.AsSlice()
}

// LoadFile layers the variables from an env file under the current ones:
// explicit values keep precedence over file values. A missing file is not an
// error.
func (m *Manager) LoadFile(path string) error {
	fileVars, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	merged := core.EnvMap(fileVars)
	err = mergo.Merge(&merged, m.vars, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue)
	if err != nil {
		return fmt.Errorf("failed to merge env file vars: %w", err)
	}
	m.vars = merged
	return nil
}

// Substitute expands ${VAR} and $VAR references against the current
// variables. Unknown references expand to the empty string.
func (m *Manager) Substitute(content string) string {
	return os.Expand(content, func(key string) string {
		return m.vars[key]
	})
}
