package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskwell/taskwell/engine/config"
	"github.com/taskwell/taskwell/engine/core"
	"github.com/taskwell/taskwell/engine/env"
	"github.com/taskwell/taskwell/engine/options"
)

// ignore_fail policies
const (
	failFast      = "fail_fast"
	returnZero    = "return_zero"
	returnNonZero = "return_non_zero"
)

// SequenceSpec describes an ordered composite: child specs run in order
// with a configurable failure policy.
type SequenceSpec struct {
	BaseSpec
	Subtasks []Spec
}

func newSequenceSpec(
	name string,
	def map[string]any,
	cfg *config.Config,
	rctx resolveContext,
) (*SequenceSpec, error) {
	base := newBaseSpec(name, KindSequence, def, cfg, rctx.dir)

	items, ok := def[string(KindSequence)].([]any)
	if !ok {
		return nil, core.NewConfigError("content of sequence task %q must be a list", name)
	}

	itemKind := Kind(base.opts.GetString("default_item_type"))
	subtasks := make([]Spec, 0, len(items))
	for index, item := range items {
		child, err := specFor(
			subtaskName(name, index),
			item,
			cfg,
			resolveContext{arrayItem: true, itemKind: itemKind, dir: rctx.dir},
		)
		if err != nil {
			return nil, err
		}
		subtasks = append(subtasks, child)
	}

	return &SequenceSpec{BaseSpec: base, Subtasks: subtasks}, nil
}

// subtaskName synthesizes the deterministic child name for one index.
func subtaskName(taskName string, index int) string {
	return fmt.Sprintf("%s[%d]", taskName, index)
}

func (s *SequenceSpec) Instantiate(inst Instantiation) (Task, error) {
	t := &SequenceTask{
		BaseTask: newBaseTask(&s.BaseSpec, inst),
		spec:     s,
	}
	t.subtasks = make([]Task, 0, len(s.Subtasks))
	for _, childSpec := range s.Subtasks {
		child, err := childSpec.Instantiate(Instantiation{
			Invocation:  []string{childSpec.Name()},
			Inheritance: inheritanceFrom(&t.BaseTask),
		})
		if err != nil {
			return nil, err
		}
		t.subtasks = append(t.subtasks, child)
	}
	return t, nil
}

// SequenceTask runs its children strictly in order, each receiving the
// accumulated environment.
type SequenceTask struct {
	BaseTask
	spec     *SequenceSpec
	subtasks []Task
}

func (t *SequenceTask) Run(
	ctx context.Context,
	rc *RunContext,
	extraArgs []string,
	parentEnv *env.Manager,
) (int, error) {
	taskEnv, err := t.taskEnv(parentEnv)
	if err != nil {
		return 0, err
	}
	named, err := t.namedArgValues(extraArgs, taskEnv)
	if err != nil {
		return 0, err
	}
	if err := taskEnv.Update(named); err != nil {
		return 0, err
	}
	if !t.hasArgs() && anyNonBlank(extraArgs) {
		return 0, core.NewConfigError("sequence task %q does not accept arguments", t.Name())
	}

	if len(t.subtasks) > 1 {
		rc.MarkMultistage()
	}

	policy, err := ignoreFailPolicy(t.spec.opts)
	if err != nil {
		return 0, core.NewConfigError("invalid ignore_fail option for task %q: %s", t.Name(), err)
	}

	var failed []string
	for _, subtask := range t.subtasks {
		code, err := subtask.Run(ctx, rc, nil, taskEnv)
		if err != nil {
			return 0, err
		}
		if code == 0 {
			continue
		}
		if policy == failFast {
			return 0, core.NewExecutionError(t.Name(),
				"sequence aborted after failed subtask %q", subtask.Name())
		}
		failed = append(failed, subtask.Name())
	}

	if policy == returnNonZero && len(failed) > 0 {
		return 0, core.NewExecutionError(t.Name(),
			"subtasks %s returned non-zero exit status", strings.Join(failed, ", "))
	}
	return 0, nil
}

// ignoreFailPolicy maps the ignore_fail option onto its three behaviors:
// false aborts on the first failure, true and "return_zero" run everything
// and report success, "return_non_zero" runs everything and reports failure
// if anything failed.
func ignoreFailPolicy(opts *options.Options) (string, error) {
	value, err := opts.Get("ignore_fail")
	if err != nil {
		return "", err
	}
	switch v := value.(type) {
	case bool:
		if v {
			return returnZero, nil
		}
		return failFast, nil
	case string:
		switch v {
		case returnZero, returnNonZero:
			return v, nil
		default:
			return "", fmt.Errorf(
				`expected one of (true, false, "return_zero", "return_non_zero"), found %q`, v)
		}
	default:
		return "", fmt.Errorf(
			`expected one of (true, false, "return_zero", "return_non_zero"), found %v`, value)
	}
}

func validateSequenceDef(name string, def map[string]any, cfg *config.Config) error {
	if itemType, ok := def["default_item_type"]; ok {
		key, isString := itemType.(string)
		if !isString || !IsKind(key, core.ShapeScalar) {
			return core.NewConfigError(
				"unsupported value for option `default_item_type` for task %q, expected one of %v",
				name, Kinds(core.ShapeScalar),
			)
		}
	}

	if rawIgnore, ok := def["ignore_fail"]; ok {
		valid := false
		switch v := rawIgnore.(type) {
		case bool:
			valid = true
		case string:
			valid = v == returnZero || v == returnNonZero
		}
		if !valid {
			return core.NewConfigError(
				"unsupported value for option `ignore_fail` for task %q, "+
					`expected one of (true, false, "return_zero", "return_non_zero")`, name)
		}
	}

	items, _ := def[string(KindSequence)].([]any)
	itemKind := Kind("")
	if key, ok := def["default_item_type"].(string); ok {
		itemKind = Kind(key)
	}
	for index, item := range items {
		if m, isMap := item.(map[string]any); isMap {
			if args, hasArgs := m["args"]; hasArgs && args != nil {
				return core.NewConfigError(
					"unsupported option `args` for task declared inside sequence task %q", name)
			}
			if err := ValidateDef(subtaskName(name, index), m, cfg, validateOpts{anonymous: true}); err != nil {
				return err
			}
			continue
		}
		normalized, err := NormalizeDef(item, cfg, true, itemKind)
		if err != nil {
			return err
		}
		if err := ValidateDef(subtaskName(name, index), normalized, cfg, validateOpts{anonymous: true}); err != nil {
			return err
		}
	}
	return nil
}
