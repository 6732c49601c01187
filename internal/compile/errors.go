package compile

import (
	"errors"
	"fmt"
	"time"
)

// ErrNonZeroExit is wrapped by ProvisionError when a scaffolding step ran but failed.
var ErrNonZeroExit = errors.New("exited with non-zero code")

// ProvisionError reports a workspace that could not be prepared.
type ProvisionError struct {
	Step string
	Err  error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provision workspace: %s: %v", e.Step, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// LaunchError reports a toolchain process that could not be started.
// It is distinct from a process that started and exited with a non-zero code.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a pipeline that exceeded its deadline.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("build timed out after %s", e.Timeout)
}
