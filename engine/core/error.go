package core

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// ConfigError
// -----------------------------------------------------------------------------

// ConfigError reports a problem discovering, parsing, or validating
// configuration. It is always fatal: the run aborts before any task executes.
type ConfigError struct {
	msg   string
	cause error
}

func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// WrapConfigError attaches an underlying error, typically a parser error.
func WrapConfigError(cause error, format string, args ...any) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...), cause: cause}
}

func (e *ConfigError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.cause)
	}
	return e.msg
}

func (e *ConfigError) Unwrap() error {
	return e.cause
}

func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// -----------------------------------------------------------------------------
// ExecutionError
// -----------------------------------------------------------------------------

// ExecutionError is raised by a running task to unwind the call stack. It
// propagates unmodified through every enclosing composite frame.
type ExecutionError struct {
	TaskName string
	msg      string
}

func NewExecutionError(taskName, format string, args ...any) *ExecutionError {
	return &ExecutionError{TaskName: taskName, msg: fmt.Sprintf(format, args...)}
}

func (e *ExecutionError) Error() string {
	return e.msg
}

func IsExecutionError(err error) bool {
	var target *ExecutionError
	return errors.As(err, &target)
}
