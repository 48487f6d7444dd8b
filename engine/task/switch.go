package task

import (
	"context"
	"fmt"

	"github.com/taskwell/taskwell/engine/config"
	"github.com/taskwell/taskwell/engine/core"
	"github.com/taskwell/taskwell/engine/env"
)

// DefaultCaseKey is the dispatch key of a case table that declares no
// `case` value.
const DefaultCaseKey = "__default__"

// switchCase pairs one case spec with the dispatch keys that select it. A
// list-valued `case` yields multiple keys for the same spec.
type switchCase struct {
	keys []string
	spec Spec
}

// SwitchSpec describes a conditional composite: a control task whose
// captured output selects one case task to run.
type SwitchSpec struct {
	BaseSpec
	Control Spec
	Cases   []switchCase
}

func newSwitchSpec(
	name string,
	def map[string]any,
	cfg *config.Config,
	rctx resolveContext,
) (*SwitchSpec, error) {
	base := newBaseSpec(name, KindSwitch, def, cfg, rctx.dir)
	switchArgs := def["args"]

	controlDef, err := normalizeControlDef(name, def["control"], cfg, switchArgs)
	if err != nil {
		return nil, err
	}
	control, err := specFor(
		controlName(name), controlDef, cfg, resolveContext{dir: rctx.dir},
	)
	if err != nil {
		return nil, err
	}

	items, ok := def[string(KindSwitch)].([]any)
	if !ok {
		return nil, core.NewConfigError("content of switch task %q must be a list", name)
	}
	cases := make([]switchCase, 0, len(items))
	for index, item := range items {
		caseDef, isMap := item.(map[string]any)
		if !isMap {
			return nil, core.NewConfigError(
				"case %d of switch task %q must be a table", index, name)
		}
		if switchArgs != nil {
			caseDef = withArgs(caseDef, switchArgs)
		}
		caseSpec, err := specFor(
			subtaskName(name, index), caseDef, cfg, resolveContext{dir: rctx.dir},
		)
		if err != nil {
			return nil, err
		}
		cases = append(cases, switchCase{keys: caseKeys(caseDef), spec: caseSpec})
	}

	return &SwitchSpec{BaseSpec: base, Control: control, Cases: cases}, nil
}

func controlName(taskName string) string {
	return taskName + "[control]"
}

// normalizeControlDef rewrites a scalar control definition as a mapping
// under its resolved kind key and forwards the parent's args declaration.
func normalizeControlDef(name string, raw any, cfg *config.Config, switchArgs any) (map[string]any, error) {
	if raw == nil {
		return nil, core.NewConfigError("switch task %q has no control task", name)
	}
	controlDef, isMap := raw.(map[string]any)
	if !isMap {
		kind, err := ResolveKind(raw, cfg, false, "")
		if err != nil {
			return nil, err
		}
		controlDef = map[string]any{string(kind): raw}
	}
	if switchArgs != nil {
		controlDef = withArgs(controlDef, switchArgs)
	}
	return controlDef, nil
}

// withArgs copies a task definition with the parent's args declaration
// injected, leaving the original untouched.
func withArgs(def map[string]any, args any) map[string]any {
	copied := make(map[string]any, len(def)+1)
	for key, value := range def {
		copied[key] = value
	}
	copied["args"] = args
	return copied
}

// caseKeys returns the dispatch keys declared by one case table. A missing
// `case` value marks the default case.
func caseKeys(caseDef map[string]any) []string {
	raw, ok := caseDef["case"]
	if !ok {
		return []string{DefaultCaseKey}
	}
	if list, isList := raw.([]any); isList {
		keys := make([]string, 0, len(list))
		for _, item := range list {
			keys = append(keys, caseKeyString(item))
		}
		return keys
	}
	return []string{caseKeyString(raw)}
}

func caseKeyString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

func (s *SwitchSpec) Instantiate(inst Instantiation) (Task, error) {
	t := &SwitchTask{
		BaseTask: newBaseTask(&s.BaseSpec, inst),
		spec:     s,
	}

	// When the switch declares args the control and case tasks see the
	// same cli arguments, so their invocation identity must include them.
	argsExtension := []string{}
	if t.hasArgs() && len(inst.Invocation) > 1 {
		argsExtension = inst.Invocation[1:]
	}

	controlInvocation := append([]string{s.Control.Name()}, argsExtension...)
	control, err := s.Control.Instantiate(Instantiation{
		Invocation:    controlInvocation,
		CaptureStdout: true,
		Inheritance:   inheritanceFrom(&t.BaseTask),
	})
	if err != nil {
		return nil, err
	}
	t.control = control

	// An explicit capture_stdout option on the switch wins over whatever
	// the instantiation requested.
	caseCapture := t.captureStdout
	if s.opts.IsSet("capture_stdout") {
		caseCapture = s.opts.GetBool("capture_stdout")
	}

	t.dispatch = make(map[string]Task)
	for _, c := range s.Cases {
		caseTask, err := c.spec.Instantiate(Instantiation{
			Invocation:    append([]string{c.spec.Name()}, argsExtension...),
			CaptureStdout: caseCapture,
			Inheritance:   inheritanceFrom(&t.BaseTask),
		})
		if err != nil {
			return nil, err
		}
		for _, key := range c.keys {
			t.dispatch[key] = caseTask
		}
	}
	return t, nil
}

// SwitchTask runs its control task with output capture, then dispatches to
// the case task whose key matches the captured output exactly.
type SwitchTask struct {
	BaseTask
	spec     *SwitchSpec
	control  Task
	dispatch map[string]Task
}

func (t *SwitchTask) Run(
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
		return 0, core.NewConfigError("switch task %q does not accept arguments", t.Name())
	}

	rc.MarkMultistage()

	controlArgs := []string(nil)
	if t.hasArgs() {
		controlArgs = extraArgs
	}
	code, err := t.control.Run(ctx, rc, controlArgs, taskEnv)
	if err != nil {
		return 0, err
	}
	if code != 0 {
		return 0, core.NewExecutionError(t.Name(),
			"switch task %q aborted after failed control task", t.Name())
	}

	if rc.IsDry() {
		rc.Reporter().UnresolvedCase(t.Name())
		return 0, nil
	}

	output, _ := rc.GetOutput(t.control.Invocation())
	caseTask, ok := t.dispatch[output]
	if !ok {
		caseTask, ok = t.dispatch[DefaultCaseKey]
	}
	if !ok {
		if t.spec.opts.GetString("default") == "pass" {
			return 0, nil
		}
		return 0, core.NewExecutionError(t.Name(),
			"control value %q did not match any cases in switch task %q", output, t.Name())
	}

	return caseTask.Run(ctx, rc, extraArgs, taskEnv)
}

func validateSwitchDef(name string, def map[string]any, cfg *config.Config) error {
	rawControl, ok := def["control"]
	if !ok || rawControl == nil {
		return core.NewConfigError("switch task %q has no control task", name)
	}
	if controlDef, isMap := rawControl.(map[string]any); isMap {
		hasControlKind := false
		for _, kind := range controlKinds {
			if _, present := controlDef[string(kind)]; present {
				hasControlKind = true
				break
			}
		}
		if !hasControlKind {
			return core.NewConfigError(
				"control task for %q must have a type that is one of %v", name, controlKinds)
		}
	}
	if err := ValidateDef(controlName(name), rawControl, cfg, validateOpts{anonymous: true}); err != nil {
		return err
	}

	items, _ := def[string(KindSwitch)].([]any)
	seen := make(map[string]int)
	for index, item := range items {
		caseDef, isMap := item.(map[string]any)
		if !isMap {
			return core.NewConfigError(
				"case %d of switch task %q must be a table", index, name)
		}

		keys := caseKeys(caseDef)
		for _, key := range keys {
			seen[key]++
		}

		for _, invalidOption := range []string{"args", "deps"} {
			if _, present := caseDef[invalidOption]; present {
				if keys[0] == DefaultCaseKey {
					return core.NewConfigError(
						"default case of switch task %q includes invalid option %q",
						name, invalidOption)
				}
				return core.NewConfigError(
					"case %q of switch task %q includes invalid option %q",
					keys[0], name, invalidOption)
			}
		}

		if err := ValidateDef(
			fmt.Sprintf("%s[%s]", name, keys[0]),
			caseDef,
			cfg,
			validateOpts{anonymous: true, extraOptions: []string{"case"}},
		); err != nil {
			return err
		}
	}

	for key, count := range seen {
		if count > 1 {
			if key == DefaultCaseKey {
				return core.NewConfigError(
					"switch task %q includes more than one default case", name)
			}
			return core.NewConfigError(
				"switch task %q includes more than one case for %q", name, key)
		}
	}

	if rawDefault, present := def["default"]; present {
		value, isString := rawDefault.(string)
		if !isString || (value != "pass" && value != "fail") {
			return core.NewConfigError(
				`the "default" option for switch task %q should be one of ("pass", "fail")`, name)
		}
		if _, hasDefaultCase := seen[DefaultCaseKey]; hasDefaultCase {
			return core.NewConfigError(
				`switch task %q should not have both a default case and the "default" option`, name)
		}
	}
	return nil
}
