// Package proc runs planned commands as external processes.
package proc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/polydev/polyd/internal/logger"
	"github.com/polydev/polyd/internal/telemetry"
	"github.com/polydev/polyd/pkg/plan"
)

// ExitError reports a command that ran and exited non-zero. The child's
// exit code is preserved so the orchestrator can re-exit with it.
type ExitError struct {
	Name string
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Name, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Runner executes planned commands, wiring the child's output through to
// the given writers. The zero value is not usable; call New.
type Runner struct {
	stdout io.Writer
	stderr io.Writer
}

// New returns a Runner writing child output to stdout and stderr.
func New() *Runner {
	return &Runner{stdout: os.Stdout, stderr: os.Stderr}
}

// NewWithOutput returns a Runner writing child output to the given writers.
func NewWithOutput(stdout, stderr io.Writer) *Runner {
	return &Runner{stdout: stdout, stderr: stderr}
}

// Run executes the command and blocks until it exits.
//
// The command's environment entries are merged over the parent environment.
// A non-zero exit surfaces as *ExitError; context cancellation surfaces as
// the context's error. Any failure is fatal to the orchestration run, so
// callers stop at the first non-nil return.
func (r *Runner) Run(ctx context.Context, c plan.Command) error {
	if len(c.Argv) == 0 {
		return errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	cmd.Stdin = os.Stdin

	logger.Debug("running command", "argv", c.Argv, "dir", c.Dir, "env", c.Env)

	_, span := telemetry.StartProcSpan(ctx, filepath.Base(c.Name()), c.Argv,
		telemetry.ProcDir(c.Dir))
	defer span.End()

	err := cmd.Run()
	if err == nil {
		span.SetAttributes(telemetry.ProcExitCode(0))
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		span.SetAttributes(telemetry.ProcExitCode(exitErr.ExitCode()))
		return &ExitError{Name: c.Name(), Code: exitErr.ExitCode(), Err: err}
	}
	span.RecordError(err)
	return fmt.Errorf("failed to run %s: %w", c.Name(), err)
}
