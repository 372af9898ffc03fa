// ABOUTME: Shell command execution with a hard wall-clock timeout and process-group cleanup.
// ABOUTME: Non-zero exit is a result, not an error; only failure to start the command is an error.

package workflow

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// DefaultCommandTimeout bounds each subprocess invocation when no timeout is configured.
const DefaultCommandTimeout = 300 * time.Second

// CommandResult holds the outcome of one shell command execution.
type CommandResult struct {
	Success  bool
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Runner executes a shell command in a working directory.
type Runner interface {
	Run(ctx context.Context, command, dir string) (CommandResult, error)
}

// ShellRunner runs commands through `sh -c` with a per-invocation timeout.
type ShellRunner struct {
	Timeout time.Duration
}

// Run executes the command. A non-zero exit code is reported via
// Success=false, never as an error. Timeout expiry kills the whole process
// group and reports TimedOut=true with a synthesized stderr. An error return
// means the command could not be started at all.
func (r *ShellRunner) Run(ctx context.Context, command, dir string) (CommandResult, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", command)

	// Set process group so we can kill the entire tree on timeout
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// When context expires, kill the entire process group (not just the main
	// process) so children spawned by the shell are also terminated.
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			pgid, err := syscall.Getpgid(cmd.Process.Pid)
			if err == nil {
				_ = syscall.Kill(-pgid, syscall.SIGKILL)
			}
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = 3 * time.Second

	if dir != "" {
		cmd.Dir = dir
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	runErr := cmd.Run()

	result := CommandResult{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if runErr != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			result.TimedOut = true
			result.ExitCode = -1
			result.Stderr = fmt.Sprintf("command timed out after %s", timeout)
			return result, nil
		}
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		// The shell itself could not be started. This is structurally
		// different from a failing command.
		return result, fmt.Errorf("start command %q: %w", command, runErr)
	}

	result.Success = true
	return result, nil
}
