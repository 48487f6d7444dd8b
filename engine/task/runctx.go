package task

import (
	"strings"

	"github.com/google/uuid"

	"github.com/taskwell/taskwell/engine/executor"
	"github.com/taskwell/taskwell/pkg/logger"
)

// RunContext is the shared state of one top-level invocation: the dry-run
// flag, the multistage flag, and the captured outputs keyed by invocation
// identity. It is threaded explicitly through execution and is not safe for
// concurrent runs.
type RunContext struct {
	runID      string
	dry        bool
	multistage bool
	exec       executor.Executor
	reporter   Reporter
	outputs    map[string]string
}

type RunOption func(*RunContext)

func WithDryRun(dry bool) RunOption {
	return func(rc *RunContext) { rc.dry = dry }
}

func WithExecutor(exec executor.Executor) RunOption {
	return func(rc *RunContext) { rc.exec = exec }
}

func WithReporter(reporter Reporter) RunOption {
	return func(rc *RunContext) { rc.reporter = reporter }
}

func NewRunContext(opts ...RunOption) *RunContext {
	rc := &RunContext{
		runID:   uuid.NewString(),
		outputs: make(map[string]string),
	}
	for _, opt := range opts {
		opt(rc)
	}
	if rc.exec == nil {
		rc.exec = executor.NewDefault()
	}
	if rc.reporter == nil {
		rc.reporter = &logReporter{log: logger.NewLogger(nil)}
	}
	return rc
}

func (rc *RunContext) RunID() string {
	return rc.runID
}

func (rc *RunContext) IsDry() bool {
	return rc.dry
}

// MarkMultistage flags the run as having more than one execution stage.
func (rc *RunContext) MarkMultistage() {
	rc.multistage = true
}

func (rc *RunContext) IsMultistage() bool {
	return rc.multistage
}

func (rc *RunContext) RecordOutput(invocation []string, output string) {
	rc.outputs[invocationKey(invocation)] = output
}

func (rc *RunContext) GetOutput(invocation []string) (string, bool) {
	output, ok := rc.outputs[invocationKey(invocation)]
	return output, ok
}

func (rc *RunContext) Executor() executor.Executor {
	return rc.exec
}

func (rc *RunContext) Reporter() Reporter {
	return rc.reporter
}

func invocationKey(invocation []string) string {
	return strings.Join(invocation, "\x1f")
}

// -----------------------------------------------------------------------------
// Reporter
// -----------------------------------------------------------------------------

// Reporter receives progress and dry-run messaging; the CLI supplies a
// styled implementation.
type Reporter interface {
	RunningTask(name string, dry bool)
	UnresolvedCase(name string)
}

type logReporter struct {
	log logger.Logger
}

func (r *logReporter) RunningTask(name string, dry bool) {
	if dry {
		r.log.Info("would run task", "task", name)
		return
	}
	r.log.Debug("running task", "task", name)
}

func (r *logReporter) UnresolvedCase(name string) {
	r.log.Info("unresolved case for switch task", "task", name)
}
