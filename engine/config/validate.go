package config

import (
	"slices"

	"github.com/taskwell/taskwell/engine/core"
	"github.com/taskwell/taskwell/engine/executor"
)

// TaskValidator is the task-kind registry surface the config layer needs
// for validation; the task package provides the implementation.
type TaskValidator interface {
	ValidateDef(name string, def any, cfg *Config) error
	IsTaskKind(key string, shape core.ContentShape) bool
	Kinds(shape core.ContentShape) []string
}

// Validate checks the loaded configuration, failing fast on the first
// violation.
func (c *Config) Validate(tasks TaskValidator) error {
	raw := c.project.Raw
	schema := c.project.Options.Schema()

	// Unknown section keys
	for key := range raw {
		if !schema.Has(key) {
			return core.NewConfigError("unsupported key in %s config: %q", SectionName, key)
		}
	}

	// Value types against declared tags
	for _, field := range schema.Fields() {
		if !c.project.IsOptionTypeValid(field.Name) {
			return core.NewConfigError(
				"unsupported value for option %q, expected %s", field.Name, field.Type,
			)
		}
	}

	// Executor config
	if err := executor.ValidateConfig(c.Executor()); err != nil {
		return core.WrapConfigError(err, "invalid executor config")
	}

	// Default task kind options must name kinds of matching content shape
	if !tasks.IsTaskKind(c.DefaultTaskType(), core.ShapeScalar) {
		return core.NewConfigError(
			"unsupported value for option `default_task_type` %q", c.DefaultTaskType(),
		)
	}
	if !tasks.IsTaskKind(c.DefaultArrayTaskType(), core.ShapeList) {
		return core.NewConfigError(
			"unsupported value for option `default_array_task_type` %q", c.DefaultArrayTaskType(),
		)
	}
	if !tasks.IsTaskKind(c.DefaultArrayItemTaskType(), core.ShapeScalar) {
		return core.NewConfigError(
			"unsupported value for option `default_array_item_task_type` %q",
			c.DefaultArrayItemTaskType(),
		)
	}

	// Env entries: plain string or single-key {default: string} record
	if err := validateEnvEntries(c.GlobalEnv()); err != nil {
		return err
	}

	// Per-task validation over the merged table, in stable order
	merged := c.Tasks()
	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := tasks.ValidateDef(name, merged[name], c); err != nil {
			return err
		}
	}

	// Shell interpreter membership
	for _, interpreter := range c.ShellInterpreter() {
		if !slices.Contains(KnownShellInterpreters, interpreter) {
			return core.NewConfigError(
				"unsupported value %q for option `shell_interpreter`", interpreter,
			)
		}
	}

	// Verbosity range
	if v := c.Verbosity(); v < -1 || v > 2 {
		return core.NewConfigError(
			"invalid value for option `verbosity`: %d, should be between -1 and 2", v,
		)
	}

	return nil
}

func validateEnvEntries(env map[string]any) error {
	for key, value := range env {
		switch entry := value.(type) {
		case string:
			continue
		case map[string]any:
			if len(entry) != 1 {
				return core.NewConfigError("invalid declaration at %q in option `env`: %v", key, value)
			}
			fallback, ok := entry["default"]
			if !ok {
				return core.NewConfigError("invalid declaration at %q in option `env`: %v", key, value)
			}
			if _, ok := fallback.(string); !ok {
				return core.NewConfigError("invalid declaration at %q in option `env`: %v", key, value)
			}
		default:
			return core.NewConfigError(
				"value of %q in option `env` should be a string, but found %T", key, value,
			)
		}
	}
	return nil
}
