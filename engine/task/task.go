// Package task implements the task definition and execution engine: a
// closed set of task kinds, the two-phase spec/instance model, and the
// composite control-flow kinds (sequence, switch) built on it. A task
// definition is first resolved into an immutable validated spec tree, then
// instantiated per invocation into runtime tasks sharing one RunContext.
package task

import (
	"context"
	"strings"

	"github.com/taskwell/taskwell/engine/config"
	"github.com/taskwell/taskwell/engine/core"
	"github.com/taskwell/taskwell/engine/env"
	"github.com/taskwell/taskwell/engine/options"
)

// -----------------------------------------------------------------------------
// Kind
// -----------------------------------------------------------------------------

// Kind identifies a task type. The set is closed: a definition's shape and
// keys pick exactly one variant.
type Kind string

const (
	KindCmd      Kind = "cmd"
	KindScript   Kind = "script"
	KindExpr     Kind = "expr"
	KindRef      Kind = "ref"
	KindShell    Kind = "shell"
	KindSequence Kind = "sequence"
	KindSwitch   Kind = "switch"
)

// allKinds is ordered for deterministic resolution and messages.
var allKinds = []Kind{
	KindCmd,
	KindScript,
	KindExpr,
	KindRef,
	KindShell,
	KindSequence,
	KindSwitch,
}

// controlKinds are the kinds allowed as a switch control task: they produce
// a scalar output value.
var controlKinds = []Kind{KindCmd, KindScript, KindExpr}

func (k Kind) ContentShape() core.ContentShape {
	switch k {
	case KindSequence, KindSwitch:
		return core.ShapeList
	default:
		return core.ShapeScalar
	}
}

func (k Kind) optionsSchema() *options.Schema {
	switch k {
	case KindSequence:
		return sequenceSchema
	case KindSwitch:
		return switchSchema
	default:
		return baseSchema
	}
}

// -----------------------------------------------------------------------------
// Option schemas
// -----------------------------------------------------------------------------

// baseSchema declares the options shared by every task kind.
var baseSchema = options.NewSchema(
	options.Field{Name: "args", Type: options.Any},
	options.Field{Name: "capture_stdout", Type: options.Bool},
	options.Field{Name: "cwd", Type: options.String},
	options.Field{Name: "deps", Type: options.StringList},
	options.Field{Name: "env", Type: options.StringMap},
	options.Field{Name: "envfile", Type: options.StringOrStringList},
	options.Field{Name: "help", Type: options.String},
	options.Field{Name: "uses", Type: options.StringMap},
)

var sequenceSchema = baseSchema.Extend(
	options.Field{Name: "ignore_fail", Type: options.BoolOrString}.WithDefault(false),
	options.Field{Name: "default_item_type", Type: options.String},
)

var switchSchema = baseSchema.Extend(
	options.Field{Name: "control", Type: options.Any},
	options.Field{Name: "default", Type: options.String}.WithDefault("fail"),
)

// -----------------------------------------------------------------------------
// Spec
// -----------------------------------------------------------------------------

// Spec is an immutable, validated description of one task: name, resolved
// kind, typed options, and (for composite kinds) nested child specs. A spec
// is built once from a definition and its owning config, is never mutated,
// and carries no invocation state.
type Spec interface {
	Name() string
	Kind() Kind
	Options() *options.Options
	Instantiate(inst Instantiation) (Task, error)
}

// BaseSpec carries the state shared by every spec kind.
type BaseSpec struct {
	name string
	kind Kind
	opts *options.Options
	cfg  *config.Config
	dir  string
}

func newBaseSpec(name string, kind Kind, def map[string]any, cfg *config.Config, dir string) BaseSpec {
	return BaseSpec{
		name: name,
		kind: kind,
		opts: options.Bind(kind.optionsSchema(), def),
		cfg:  cfg,
		dir:  dir,
	}
}

func (s *BaseSpec) Name() string              { return s.name }
func (s *BaseSpec) Kind() Kind                { return s.kind }
func (s *BaseSpec) Options() *options.Options { return s.opts }
func (s *BaseSpec) Config() *config.Config    { return s.cfg }
func (s *BaseSpec) SourceDir() string         { return s.dir }

// -----------------------------------------------------------------------------
// Task
// -----------------------------------------------------------------------------

// Task is a runtime object bound to one invocation. It references (never
// owns) its spec; composite instances own their instantiated children. Run
// returns the task's exit status; a non-nil error unwinds every enclosing
// composite frame unmodified.
type Task interface {
	Name() string
	Invocation() []string
	Run(ctx context.Context, rc *RunContext, extraArgs []string, parentEnv *env.Manager) (int, error)
}

// Instantiation is the invocation-scoped input to spec instantiation.
type Instantiation struct {
	Invocation    []string
	CaptureStdout bool
	Inheritance   *Inheritance
}

// Inheritance is the context a parent task hands down when instantiating
// children.
type Inheritance struct {
	CWD string
}

func inheritanceFrom(t *BaseTask) *Inheritance {
	return &Inheritance{CWD: t.workingDir()}
}

// BaseTask carries the invocation state shared by every task kind.
type BaseTask struct {
	spec          *BaseSpec
	invocation    []string
	captureStdout bool
	inheritance   *Inheritance
}

func newBaseTask(spec *BaseSpec, inst Instantiation) BaseTask {
	return BaseTask{
		spec:          spec,
		invocation:    inst.Invocation,
		captureStdout: inst.CaptureStdout,
		inheritance:   inst.Inheritance,
	}
}

func (t *BaseTask) Name() string {
	return t.spec.name
}

func (t *BaseTask) Invocation() []string {
	return t.invocation
}

// workingDir resolves the task's working directory: its own cwd option
// (relative to the owning config's directory), else the inherited cwd, else
// the owning directory itself.
func (t *BaseTask) workingDir() string {
	if cwd := t.spec.opts.GetString("cwd"); cwd != "" {
		base := &core.PathCWD{Path: t.spec.dir}
		return base.Join(cwd)
	}
	if t.inheritance != nil && t.inheritance.CWD != "" {
		return t.inheritance.CWD
	}
	return t.spec.dir
}

// taskEnv snapshots the parent environment and extends it with the task's
// own envfile and env option. The parent's copy is never mutated.
func (t *BaseTask) taskEnv(parent *env.Manager) (*env.Manager, error) {
	e := parent.Clone()
	for _, envfile := range t.spec.opts.GetStringList("envfile") {
		base := &core.PathCWD{Path: t.spec.dir}
		if err := e.LoadFile(base.Join(envfile)); err != nil {
			return nil, err
		}
	}
	if envOpt := t.spec.opts.GetMap("env"); len(envOpt) > 0 {
		overrides := make(map[string]string, len(envOpt))
		for key, value := range envOpt {
			if s, ok := value.(string); ok {
				overrides[key] = e.Substitute(s)
			}
		}
		if err := e.Update(overrides); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// hasArgs reports whether the task declares named arguments.
func (t *BaseTask) hasArgs() bool {
	return t.spec.opts.IsSet("args")
}

// namedArgValues binds declared named arguments from the invocation's extra
// arguments, falling back to declared defaults.
func (t *BaseTask) namedArgValues(extraArgs []string, e *env.Manager) (map[string]string, error) {
	if !t.hasArgs() {
		return nil, nil
	}
	raw, err := t.spec.opts.Get("args")
	if err != nil {
		return nil, err
	}
	specs, err := parseArgSpecs(raw)
	if err != nil {
		return nil, core.NewConfigError("invalid args option for task %q: %s", t.Name(), err)
	}
	return bindArgValues(t.Name(), specs, extraArgs, e)
}

func anyNonBlank(args []string) bool {
	for _, arg := range args {
		if strings.TrimSpace(arg) != "" {
			return true
		}
	}
	return false
}
