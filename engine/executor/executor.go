// Package executor defines the process-level boundary of the task engine.
// Tasks describe the job to run; how the subprocess is spawned, wired, and
// captured lives entirely behind the Executor interface.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/taskwell/taskwell/engine/core"
	"github.com/taskwell/taskwell/pkg/logger"
)

type Type string

const (
	TypeAuto   Type = "auto"
	TypeSimple Type = "simple"
)

var knownTypes = map[Type]bool{
	TypeAuto:   true,
	TypeSimple: true,
}

// Job describes one subprocess invocation.
type Job struct {
	TaskName      string
	Argv          []string
	Env           core.EnvMap
	Dir           string
	CaptureStdout bool
}

// Executor runs jobs on behalf of tasks. Execute returns the process exit
// status together with the captured standard output when requested;
// captured output has trailing newlines trimmed before it is returned.
type Executor interface {
	Execute(ctx context.Context, job *Job) (exitCode int, output string, err error)
}

// ValidateConfig checks the executor section of a project config.
func ValidateConfig(cfg map[string]any) error {
	raw, ok := cfg["type"]
	if !ok {
		return errors.New("executor config requires a `type` key")
	}
	typeName, ok := raw.(string)
	if !ok {
		return fmt.Errorf("executor `type` should be a string, found %T", raw)
	}
	if !knownTypes[Type(typeName)] {
		return fmt.Errorf("unsupported executor type %q", typeName)
	}
	return nil
}

// New builds the executor for a configured type name.
func New(typeName string) (Executor, error) {
	if !knownTypes[Type(typeName)] {
		return nil, fmt.Errorf("unsupported executor type %q", typeName)
	}
	return NewDefault(), nil
}

// -----------------------------------------------------------------------------
// Default executor
// -----------------------------------------------------------------------------

// Default runs jobs via os/exec, inheriting the parent's stdio except where
// capture is requested.
type Default struct{}

func NewDefault() *Default {
	return &Default{}
}

func (e *Default) Execute(ctx context.Context, job *Job) (int, string, error) {
	if len(job.Argv) == 0 {
		return -1, "", fmt.Errorf("task %q produced an empty command", job.TaskName)
	}
	log := logger.FromContext(ctx)
	log.Debug("executing task", "task", job.TaskName, "argv", job.Argv)

	cmd := exec.CommandContext(ctx, job.Argv[0], job.Argv[1:]...)
	cmd.Env = job.Env.AsSlice()
	if job.Dir != "" {
		cmd.Dir = job.Dir
	}
	cmd.Stdin = os.Stdin
	cmd.Stderr = os.Stderr

	var stdout bytes.Buffer
	if job.CaptureStdout {
		cmd.Stdout = &stdout
	} else {
		cmd.Stdout = os.Stdout
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), trimOutput(stdout.String()), nil
		}
		return -1, "", fmt.Errorf("failed to execute task %q: %w", job.TaskName, err)
	}
	return 0, trimOutput(stdout.String()), nil
}

// trimOutput strips trailing newlines from captured output so switch case
// matching sees the bare value.
func trimOutput(out string) string {
	return strings.TrimRight(out, "\r\n")
}
