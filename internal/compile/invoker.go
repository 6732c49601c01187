package compile

import (
	"context"
	"log/slog"
)

// Invoker runs the release build of a workspace.
type Invoker struct {
	Toolchain       Toolchain    // required
	Log             *slog.Logger // required
	Target          string       // required
	Cargo           string       // required
	Rustup          string       // required
	SkipTargetSetup bool
}

// Invoke builds the workspace for the configured target.
// It returns the build outcome, or an error when the build didn't run to completion.
func (i *Invoker) Invoke(ctx context.Context, ws *Workspace) (*Outcome, error) {
	// Add target. Best effort, the build reports a missing target itself.
	if !i.SkipTargetSetup {
		setupOutcome, err := i.Toolchain.Run(ctx, &Invocation{
			Command: i.Rustup,
			Args:    []string{"target", "add", i.Target},
			Dir:     ws.Dir,
		})
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			i.Log.Debug("didn't add target", "target", i.Target, "error", err)
		case !setupOutcome.Succeeded():
			i.Log.Debug("didn't add target", "target", i.Target, "exit_code", setupOutcome.ExitCode)
		}
	}

	// Build.
	return i.Toolchain.Run(ctx, &Invocation{
		Command: i.Cargo,
		Args:    []string{"build", "--target", i.Target, "--release"},
		Dir:     ws.Dir,
	})
}
