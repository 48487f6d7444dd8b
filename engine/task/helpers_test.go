package task

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskwell/taskwell/engine/config"
	"github.com/taskwell/taskwell/engine/env"
	"github.com/taskwell/taskwell/engine/executor"
)

func testConfig(t *testing.T, table map[string]any) *config.Config {
	t.Helper()
	if _, ok := table["tasks"]; !ok {
		table["tasks"] = map[string]any{}
	}
	cfg := config.New("/proj", config.WithTable(table))
	require.NoError(t, cfg.Load(""))
	return cfg
}

type fakeResult struct {
	code   int
	output string
}

// fakeExecutor records every job and replays scripted results keyed by the
// joined argv.
type fakeExecutor struct {
	jobs    []executor.Job
	results map[string]fakeResult
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{results: make(map[string]fakeResult)}
}

func (f *fakeExecutor) script(argv string, code int, output string) {
	f.results[argv] = fakeResult{code: code, output: output}
}

func (f *fakeExecutor) Execute(_ context.Context, job *executor.Job) (int, string, error) {
	f.jobs = append(f.jobs, *job)
	if r, ok := f.results[strings.Join(job.Argv, " ")]; ok {
		return r.code, r.output, nil
	}
	return 0, "", nil
}

func (f *fakeExecutor) argvs() []string {
	out := make([]string, 0, len(f.jobs))
	for _, job := range f.jobs {
		out = append(out, strings.Join(job.Argv, " "))
	}
	return out
}

type fakeReporter struct {
	running    []string
	unresolved []string
}

func (r *fakeReporter) RunningTask(name string, _ bool) {
	r.running = append(r.running, name)
}

func (r *fakeReporter) UnresolvedCase(name string) {
	r.unresolved = append(r.unresolved, name)
}

func newTestRunContext(fe *fakeExecutor, opts ...RunOption) (*RunContext, *fakeReporter) {
	reporter := &fakeReporter{}
	all := append([]RunOption{WithExecutor(fe), WithReporter(reporter)}, opts...)
	return NewRunContext(all...), reporter
}

func runNamed(
	t *testing.T,
	cfg *config.Config,
	name string,
	extraArgs []string,
	rc *RunContext,
) (int, error) {
	t.Helper()
	spec, err := ResolveSpec(cfg, name)
	require.NoError(t, err)
	task, err := spec.Instantiate(Instantiation{
		Invocation:  append([]string{name}, extraArgs...),
		Inheritance: &Inheritance{CWD: cfg.ProjectDir()},
	})
	require.NoError(t, err)
	return task.Run(context.Background(), rc, extraArgs, env.NewManager(nil))
}
