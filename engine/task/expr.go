package task

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/taskwell/taskwell/engine/config"
	"github.com/taskwell/taskwell/engine/core"
	"github.com/taskwell/taskwell/engine/env"
)

// ExprSpec describes an expression task: a CEL expression evaluated against
// the run environment, whose rendered result is the task's output.
type ExprSpec struct {
	BaseSpec
	Expression string
}

func newExprSpec(
	name string,
	def map[string]any,
	cfg *config.Config,
	rctx resolveContext,
) (*ExprSpec, error) {
	expression, ok := def[string(KindExpr)].(string)
	if !ok {
		return nil, core.NewConfigError("content of expr task %q must be a string", name)
	}
	if strings.TrimSpace(expression) == "" {
		return nil, core.NewConfigError("expr task %q has empty content", name)
	}
	return &ExprSpec{
		BaseSpec:   newBaseSpec(name, KindExpr, def, cfg, rctx.dir),
		Expression: expression,
	}, nil
}

func (s *ExprSpec) Instantiate(inst Instantiation) (Task, error) {
	evaluator, err := NewCELEvaluator()
	if err != nil {
		return nil, err
	}
	return &ExprTask{
		BaseTask:  newBaseTask(&s.BaseSpec, inst),
		spec:      s,
		evaluator: evaluator,
	}, nil
}

type ExprTask struct {
	BaseTask
	spec      *ExprSpec
	evaluator *CELEvaluator
}

func (t *ExprTask) Run(
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
		return 0, core.NewConfigError("expr task %q does not accept arguments", t.Name())
	}

	rc.Reporter().RunningTask(t.Name(), rc.IsDry())
	if rc.IsDry() {
		return 0, nil
	}

	data := map[string]any{
		"env":  map[string]string(taskEnv.Vars()),
		"args": named,
	}
	if named == nil {
		data["args"] = map[string]string{}
	}
	result, err := t.evaluator.Evaluate(ctx, t.spec.Expression, data)
	if err != nil {
		return 0, core.NewExecutionError(t.Name(), "expr task %q failed: %s", t.Name(), err)
	}

	if t.captureStdout {
		rc.RecordOutput(t.invocation, formatScalar(result))
	} else {
		fmt.Println(formatScalar(result))
	}
	return 0, nil
}

// formatScalar renders an evaluation result or case value as the string
// used for output and dispatch.
func formatScalar(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case uint64:
		return strconv.FormatUint(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}
