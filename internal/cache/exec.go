// internal/cache/exec.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Executor runs a shell command and returns its combined output.
type Executor interface {
	Execute(ctx context.Context, command string) ([]byte, error)
}

// ExitError reports a command that ran but exited with a nonzero status.
type ExitError struct {
	Command string
	Code    int
	Output  string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with status %d", e.Command, e.Code)
}

// ShellExecutor runs commands through /bin/sh -c. A positive Timeout kills
// the command once it has been running that long.
type ShellExecutor struct {
	Shell   string
	Timeout time.Duration
}

// Execute implements Executor.
func (s ShellExecutor) Execute(ctx context.Context, command string) ([]byte, error) {
	shell := s.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	// Grandchildren may hold the output pipe open after the shell is killed.
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, fmt.Errorf("command %q aborted: %w", command, ctxErr)
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return out, &ExitError{Command: command, Code: ee.ExitCode(), Output: string(out)}
		}
		return out, fmt.Errorf("could not run %q: %w", command, err)
	}
	return out, nil
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, command string) ([]byte, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, command string) ([]byte, error) {
	return f(ctx, command)
}
