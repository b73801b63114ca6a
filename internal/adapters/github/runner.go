package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandRunner abstracts gh invocation for testability.
type CommandRunner interface {
	// Run executes one gh command and returns its trimmed stdout.
	Run(ctx context.Context, args ...string) (string, error)
}

// GHRunner is the production CommandRunner. It shells out to the gh
// CLI with a per-command deadline, so a hung network call never stalls
// a run past the configured timeout.
type GHRunner struct {
	timeout time.Duration
}

// NewGHRunner creates a runner with the given per-command timeout.
// Zero disables the deadline.
func NewGHRunner(timeout time.Duration) *GHRunner {
	return &GHRunner{timeout: timeout}
}

// Run executes gh with the runner's deadline applied.
func (r *GHRunner) Run(ctx context.Context, args ...string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "gh", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", r.timeout, err)
		}
		return "", &RunError{
			Command: "gh " + strings.Join(args, " "),
			Stderr:  stderr.String(),
			Err:     err,
		}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// RunError wraps command execution errors with context.
type RunError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *RunError) Error() string {
	if e.Stderr != "" {
		return e.Command + ": " + e.Stderr + ": " + e.Err.Error()
	}
	return e.Command + ": " + e.Err.Error()
}

func (e *RunError) Unwrap() error {
	return e.Err
}
