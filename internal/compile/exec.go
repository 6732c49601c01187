package compile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// waitDelay bounds how long Run waits for I/O after the process is killed.
// Cargo spawns rustc children that may keep the output pipes open.
const waitDelay = 5 * time.Second

// ExecToolchain runs toolchain commands as local subprocesses.
type ExecToolchain struct{}

func (ExecToolchain) Run(ctx context.Context, inv *Invocation) (*Outcome, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, inv.Command, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &LaunchError{Command: inv.Command, Err: err}
	}

	err := cmd.Wait()
	killProcessGroup(cmd)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		exitErr := (*exec.ExitError)(nil)
		switch {
		case errors.As(err, &exitErr):
		case errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil:
		default:
			return nil, fmt.Errorf("compile.ExecToolchain: %w", err)
		}
	}

	return &Outcome{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}, nil
}
