// Package run executes external commands for the acquisition pipeline.
//
// Every subprocess this tool spawns goes through this package so that
// all call sites share one logging and failure-translation path: the
// command line is logged before and after execution, and a non-zero
// exit becomes an *ExitError carrying the exact argv.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Option configures the command before it is started.
type Option func(*exec.Cmd)

// Dir sets the working directory of the command.
func Dir(dir string) Option {
	return func(c *exec.Cmd) { c.Dir = dir }
}

// Env appends key=value to the command's environment on top of the
// current process environment.
func Env(key, value string) Option {
	return func(c *exec.Cmd) {
		if c.Env == nil {
			c.Env = os.Environ()
		}
		c.Env = append(c.Env, key+"="+value)
	}
}

// ExitError reports a subprocess that exited unsuccessfully.
type ExitError struct {
	Argv []string
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q failed: %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Run executes name with args, inheriting the process's stdout and
// stderr, and waits for completion. A non-zero exit status is returned
// as an *ExitError; once a command has started there is no retry.
func Run(ctx context.Context, logger *log.Logger, name string, args []string, opts ...Option) error {
	cmd := command(ctx, name, args, opts...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logger.Info("executing", "cmd", argvString(cmd))
	if err := cmd.Run(); err != nil {
		return &ExitError{Argv: cmd.Args, Err: err}
	}
	logger.Debug("command finished", "cmd", argvString(cmd))
	return nil
}

// Output executes name with args and returns its captured stdout.
// Stderr is inherited. Used by callers that need to parse tool output,
// such as the version gate.
func Output(ctx context.Context, logger *log.Logger, name string, args []string, opts ...Option) ([]byte, error) {
	cmd := command(ctx, name, args, opts...)
	cmd.Stderr = os.Stderr

	logger.Info("executing", "cmd", argvString(cmd))
	out, err := cmd.Output()
	if err != nil {
		return nil, &ExitError{Argv: cmd.Args, Err: err}
	}
	logger.Debug("command finished", "cmd", argvString(cmd))
	return out, nil
}

// IsNotFound reports whether err means the program does not exist on
// the executable search path. Probes use this to treat a missing tool
// as a negative result instead of a failure.
func IsNotFound(err error) bool {
	var ee *ExitError
	if errors.As(err, &ee) {
		err = ee.Err
	}
	return errors.Is(err, exec.ErrNotFound)
}

func command(ctx context.Context, name string, args []string, opts ...Option) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	for _, opt := range opts {
		opt(cmd)
	}
	return cmd
}

func argvString(cmd *exec.Cmd) string {
	return strings.Join(cmd.Args, " ")
}
