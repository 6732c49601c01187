package compile

import (
	"context"
)

// Toolchain runs a single toolchain command to completion.
//
// Run returns an Outcome when the process ran, whatever its exit code.
// It returns a *LaunchError when the process could not be started,
// and the context's error when the context ended first.
type Toolchain interface {
	Run(ctx context.Context, inv *Invocation) (*Outcome, error)
}

type Invocation struct {
	Command string
	Args    []string
	Dir     string // host path of the working directory
}

type Outcome struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

func (o *Outcome) Succeeded() bool {
	return o.ExitCode == 0
}
