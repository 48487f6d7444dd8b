package task

import (
	"context"

	"github.com/taskwell/taskwell/engine/config"
	"github.com/taskwell/taskwell/engine/core"
	"github.com/taskwell/taskwell/engine/env"
)

// RunTask resolves a named task from the merged table and runs it with the
// project-level environment. The returned int is the task's exit status;
// a non-nil error means the run could not proceed or aborted.
func RunTask(
	ctx context.Context,
	cfg *config.Config,
	name string,
	extraArgs []string,
	rc *RunContext,
) (int, error) {
	spec, err := ResolveSpec(cfg, name)
	if err != nil {
		return 0, err
	}

	baseEnv, err := BaseEnv(cfg)
	if err != nil {
		return 0, err
	}

	t, err := spec.Instantiate(Instantiation{
		Invocation:  append([]string{name}, extraArgs...),
		Inheritance: &Inheritance{CWD: cfg.ProjectDir()},
	})
	if err != nil {
		return 0, err
	}
	return t.Run(ctx, rc, extraArgs, baseEnv)
}

// BaseEnv builds the project-level environment: the process environment
// extended by global envfiles and global env entries. Entries declared as
// {default: value} only apply when the variable is not already set.
func BaseEnv(cfg *config.Config) (*env.Manager, error) {
	e := env.FromOS()

	base := &core.PathCWD{Path: cfg.ProjectDir()}
	for _, envfile := range cfg.GlobalEnvfiles() {
		if err := e.LoadFile(base.Join(envfile)); err != nil {
			return nil, core.WrapConfigError(err, "invalid global envfile")
		}
	}

	for key, value := range cfg.GlobalEnv() {
		switch entry := value.(type) {
		case string:
			e.Set(key, e.Substitute(entry))
		case map[string]any:
			fallback, _ := entry["default"].(string)
			if _, set := e.Get(key); !set {
				e.Set(key, e.Substitute(fallback))
			}
		}
	}
	return e, nil
}
