package task

import (
	"slices"
	"strings"

	"github.com/taskwell/taskwell/engine/config"
	"github.com/taskwell/taskwell/engine/core"
)

// -----------------------------------------------------------------------------
// Kind resolution
// -----------------------------------------------------------------------------

// Kinds lists the task kinds accepting the given content shape.
func Kinds(shape core.ContentShape) []string {
	keys := make([]string, 0, len(allKinds))
	for _, kind := range allKinds {
		if shape == core.ShapeAny || kind.ContentShape() == shape {
			keys = append(keys, string(kind))
		}
	}
	return keys
}

// IsKind reports whether key names a task kind with the given content shape.
func IsKind(key string, shape core.ContentShape) bool {
	for _, kind := range allKinds {
		if string(kind) == key {
			return shape == core.ShapeAny || kind.ContentShape() == shape
		}
	}
	return false
}

// ResolveKind inspects a task definition's shape and keys to pick its kind.
// A bare scalar resolves to the contextual default kind; a bare list to the
// default array kind; a mapping to whichever kind key it carries.
func ResolveKind(def any, cfg *config.Config, arrayItem bool, itemKind Kind) (Kind, error) {
	switch value := def.(type) {
	case string:
		if arrayItem {
			if itemKind != "" {
				return itemKind, nil
			}
			return Kind(cfg.DefaultArrayItemTaskType()), nil
		}
		return Kind(cfg.DefaultTaskType()), nil
	case []any:
		return Kind(cfg.DefaultArrayTaskType()), nil
	case map[string]any:
		for _, kind := range allKinds {
			if _, ok := value[string(kind)]; ok {
				return kind, nil
			}
		}
		return "", core.NewConfigError("task definition must include exactly one task key: %v", keysOf(value))
	default:
		return "", core.NewConfigError("invalid task definition: %v", def)
	}
}

// NormalizeDef rewrites a bare scalar definition as a mapping under its
// resolved kind key. Mapping definitions pass through unchanged.
func NormalizeDef(def any, cfg *config.Config, arrayItem bool, itemKind Kind) (map[string]any, error) {
	if m, ok := def.(map[string]any); ok {
		return m, nil
	}
	kind, err := ResolveKind(def, cfg, arrayItem, itemKind)
	if err != nil {
		return nil, err
	}
	return map[string]any{string(kind): def}, nil
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// -----------------------------------------------------------------------------
// Spec construction
// -----------------------------------------------------------------------------

// resolveContext carries what spec construction inherits from its position
// in the tree.
type resolveContext struct {
	arrayItem bool
	itemKind  Kind
	dir       string
}

// GetTaskSpec builds the validated spec tree for one task definition. The
// tree is fully built before any runtime task exists; failures here are
// configuration errors.
func GetTaskSpec(name string, def any, cfg *config.Config) (Spec, error) {
	dir := cfg.TaskPartition(name).Dir
	if dir == "" {
		dir = cfg.ProjectDir()
	}
	return specFor(name, def, cfg, resolveContext{dir: dir})
}

// ResolveSpec looks a task up by name in the merged table and builds its
// spec tree.
func ResolveSpec(cfg *config.Config, name string) (Spec, error) {
	def, ok := cfg.Tasks()[name]
	if !ok {
		return nil, core.NewConfigError("task %q not found in config", name)
	}
	return GetTaskSpec(name, def, cfg)
}

func specFor(name string, def any, cfg *config.Config, rctx resolveContext) (Spec, error) {
	kind, err := ResolveKind(def, cfg, rctx.arrayItem, rctx.itemKind)
	if err != nil {
		return nil, err
	}
	normalized, err := NormalizeDef(def, cfg, rctx.arrayItem, rctx.itemKind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindSequence:
		return newSequenceSpec(name, normalized, cfg, rctx)
	case KindSwitch:
		return newSwitchSpec(name, normalized, cfg, rctx)
	case KindCmd, KindScript, KindShell, KindRef:
		return newLeafSpec(name, kind, normalized, cfg, rctx)
	case KindExpr:
		return newExprSpec(name, normalized, cfg, rctx)
	default:
		return nil, core.NewConfigError("unsupported task type %q for task %q", kind, name)
	}
}

// -----------------------------------------------------------------------------
// Validation
// -----------------------------------------------------------------------------

type validateOpts struct {
	anonymous    bool
	extraOptions []string
}

// ValidateDef validates one task definition against its resolved kind,
// recursing into composite content.
func ValidateDef(name string, def any, cfg *config.Config, vopts validateOpts) error {
	if !vopts.anonymous {
		if err := validateName(name); err != nil {
			return err
		}
	}

	switch value := def.(type) {
	case string:
		normalized, err := NormalizeDef(value, cfg, false, "")
		if err != nil {
			return err
		}
		return validateDefMap(name, normalized, cfg, vopts)
	case []any:
		normalized := map[string]any{cfg.DefaultArrayTaskType(): value}
		return validateDefMap(name, normalized, cfg, vopts)
	case map[string]any:
		return validateDefMap(name, value, cfg, vopts)
	default:
		return core.NewConfigError("invalid definition for task %q: %v", name, def)
	}
}

func validateName(name string) error {
	if name == "" {
		return core.NewConfigError("task names cannot be empty")
	}
	if strings.HasPrefix(name, "_") {
		return core.NewConfigError("task names may not begin with an underscore: %q", name)
	}
	if strings.ContainsAny(name, " \t\n") {
		return core.NewConfigError("task names may not contain whitespace: %q", name)
	}
	return nil
}

func validateDefMap(name string, def map[string]any, cfg *config.Config, vopts validateOpts) error {
	// exactly one kind key
	var found []Kind
	for _, kind := range allKinds {
		if _, ok := def[string(kind)]; ok {
			found = append(found, kind)
		}
	}
	if len(found) == 0 {
		return core.NewConfigError(
			"task %q must include exactly one task key, one of: %s",
			name, strings.Join(Kinds(core.ShapeAny), ", "),
		)
	}
	if len(found) > 1 {
		return core.NewConfigError("task %q includes multiple task keys: %v", name, found)
	}
	kind := found[0]

	// content shape
	content := def[string(kind)]
	switch kind.ContentShape() {
	case core.ShapeList:
		if _, ok := content.([]any); !ok {
			return core.NewConfigError("content of %s task %q must be a list", kind, name)
		}
	default:
		if _, ok := content.(string); !ok {
			return core.NewConfigError("content of %s task %q must be a string", kind, name)
		}
	}

	// unknown option keys
	schema := kind.optionsSchema()
	for key := range def {
		if key == string(kind) || schema.Has(key) || slices.Contains(vopts.extraOptions, key) {
			continue
		}
		return core.NewConfigError("unsupported option %q for task %q of type %s", key, name, kind)
	}

	// option value types
	for _, field := range schema.Fields() {
		value, ok := def[field.Name]
		if !ok {
			continue
		}
		if !field.Type.Check(value) {
			return core.NewConfigError(
				"unsupported value for option %q for task %q, expected %s",
				field.Name, name, field.Type,
			)
		}
	}

	switch kind {
	case KindSequence:
		return validateSequenceDef(name, def, cfg)
	case KindSwitch:
		return validateSwitchDef(name, def, cfg)
	case KindRef:
		return validateRefDef(name, def, cfg)
	default:
		return nil
	}
}

func validateRefDef(name string, def map[string]any, cfg *config.Config) error {
	content, _ := def[string(KindRef)].(string)
	target := strings.Fields(content)
	if len(target) == 0 {
		return core.NewConfigError("ref task %q has no target", name)
	}
	if !cfg.HasTask(target[0]) {
		return core.NewConfigError("ref task %q references unknown task %q", name, target[0])
	}
	return nil
}

// -----------------------------------------------------------------------------
// config.TaskValidator adapter
// -----------------------------------------------------------------------------

type registryValidator struct{}

// Validator exposes the kind registry to the config layer's validation
// pipeline.
func Validator() config.TaskValidator {
	return registryValidator{}
}

func (registryValidator) ValidateDef(name string, def any, cfg *config.Config) error {
	return ValidateDef(name, def, cfg, validateOpts{})
}

func (registryValidator) IsTaskKind(key string, shape core.ContentShape) bool {
	return IsKind(key, shape)
}

func (registryValidator) Kinds(shape core.ContentShape) []string {
	return Kinds(shape)
}
