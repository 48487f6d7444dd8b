package task

import (
	"context"
	"strings"

	"github.com/google/shlex"

	"github.com/taskwell/taskwell/engine/config"
	"github.com/taskwell/taskwell/engine/core"
	"github.com/taskwell/taskwell/engine/env"
	"github.com/taskwell/taskwell/engine/executor"
)

// LeafSpec describes a scalar-content task executed at the process
// boundary: cmd, script, shell, or ref.
type LeafSpec struct {
	BaseSpec
	Content string
}

func newLeafSpec(
	name string,
	kind Kind,
	def map[string]any,
	cfg *config.Config,
	rctx resolveContext,
) (*LeafSpec, error) {
	content, ok := def[string(kind)].(string)
	if !ok {
		return nil, core.NewConfigError("content of %s task %q must be a string", kind, name)
	}
	if strings.TrimSpace(content) == "" {
		return nil, core.NewConfigError("%s task %q has empty content", kind, name)
	}
	return &LeafSpec{
		BaseSpec: newBaseSpec(name, kind, def, cfg, rctx.dir),
		Content:  content,
	}, nil
}

func (s *LeafSpec) Instantiate(inst Instantiation) (Task, error) {
	if s.kind == KindRef {
		return newRefTask(s, inst)
	}
	return &LeafTask{
		BaseTask: newBaseTask(&s.BaseSpec, inst),
		spec:     s,
	}, nil
}

// LeafTask runs one subprocess via the run context's executor.
type LeafTask struct {
	BaseTask
	spec *LeafSpec
}

func (t *LeafTask) Run(
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

	argv, err := t.buildArgv(taskEnv)
	if err != nil {
		return 0, err
	}
	if !t.hasArgs() {
		// without declared args, extra invocation args pass through verbatim
		argv = append(argv, extraArgs...)
	}

	rc.Reporter().RunningTask(t.Name(), rc.IsDry())
	if rc.IsDry() {
		return 0, nil
	}

	code, output, err := rc.Executor().Execute(ctx, &executor.Job{
		TaskName:      t.Name(),
		Argv:          argv,
		Env:           taskEnv.Vars(),
		Dir:           t.workingDir(),
		CaptureStdout: t.captureStdout,
	})
	if err != nil {
		return 0, core.NewExecutionError(t.Name(), "task %q failed to start: %s", t.Name(), err)
	}
	if t.captureStdout {
		rc.RecordOutput(t.invocation, output)
	}
	return code, nil
}

func (t *LeafTask) buildArgv(taskEnv *env.Manager) ([]string, error) {
	content := taskEnv.Substitute(t.spec.Content)

	switch t.spec.kind {
	case KindCmd:
		argv, err := shlex.Split(content)
		if err != nil {
			return nil, core.NewConfigError("could not parse command for task %q: %s", t.Name(), err)
		}
		return argv, nil
	case KindScript:
		argv, err := shlex.Split(content)
		if err != nil {
			return nil, core.NewConfigError("could not parse script for task %q: %s", t.Name(), err)
		}
		// script targets resolve against the owning config's directory
		base := &core.PathCWD{Path: t.spec.dir}
		argv[0] = base.Join(argv[0])
		return argv, nil
	case KindShell:
		return append(interpreterCommand(t.spec.cfg.ShellInterpreter()), content), nil
	default:
		return nil, core.NewConfigError("task %q has unsupported leaf type %q", t.Name(), t.spec.kind)
	}
}

// interpreterCommand maps a configured shell interpreter preference to the
// command prefix the script is piped through.
func interpreterCommand(interpreters []string) []string {
	name := "posix"
	if len(interpreters) > 0 {
		name = interpreters[0]
	}
	switch name {
	case "posix", "sh":
		return []string{"sh", "-c"}
	case "bash", "zsh", "fish":
		return []string{name, "-c"}
	case "pwsh", "powershell":
		return []string{name, "-Command"}
	case "python":
		return []string{"python", "-c"}
	default:
		return []string{"sh", "-c"}
	}
}

// -----------------------------------------------------------------------------
// Ref
// -----------------------------------------------------------------------------

// RefTask delegates to another named task, instantiated under the referring
// invocation.
type RefTask struct {
	BaseTask
	target    Task
	refArgs   []string
	targetRef string
}

func newRefTask(spec *LeafSpec, inst Instantiation) (*RefTask, error) {
	tokens := strings.Fields(spec.Content)
	if len(tokens) == 0 {
		return nil, core.NewConfigError("ref task %q has no target", spec.name)
	}
	targetName := tokens[0]

	targetSpec, err := ResolveSpec(spec.cfg, targetName)
	if err != nil {
		return nil, err
	}
	target, err := targetSpec.Instantiate(Instantiation{
		Invocation:    []string{targetName},
		CaptureStdout: inst.CaptureStdout,
		Inheritance:   inst.Inheritance,
	})
	if err != nil {
		return nil, err
	}
	return &RefTask{
		BaseTask:  newBaseTask(&spec.BaseSpec, inst),
		target:    target,
		refArgs:   tokens[1:],
		targetRef: targetName,
	}, nil
}

func (t *RefTask) Run(
	ctx context.Context,
	rc *RunContext,
	extraArgs []string,
	parentEnv *env.Manager,
) (int, error) {
	taskEnv, err := t.taskEnv(parentEnv)
	if err != nil {
		return 0, err
	}
	args := make([]string, 0, len(t.refArgs)+len(extraArgs))
	args = append(args, t.refArgs...)
	args = append(args, extraArgs...)
	return t.target.Run(ctx, rc, args, taskEnv)
}
