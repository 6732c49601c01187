package compile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	manifestFile = "Cargo.toml"
	sourceFile   = "src/lib.rs"
)

// Workspace is a disposable project directory owned by one compile.
type Workspace struct {
	Dir         string
	ProjectName string
}

// ArtifactName returns the file name cargo gives the library of project.
// Cargo replaces "-" with "_" in library target names.
func ArtifactName(project string) string {
	return strings.ReplaceAll(project, "-", "_") + ".wasm"
}

// ArtifactPath returns where a release build for target puts the artifact.
func (w *Workspace) ArtifactPath(target string) string {
	return filepath.Join(w.Dir, "target", target, "release", ArtifactName(w.ProjectName))
}

// Remove deletes the workspace and everything under it.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.Dir)
}

// Provisioner creates workspaces seeded with a cargo project and user source.
type Provisioner struct {
	Toolchain Toolchain    // required
	Log       *slog.Logger // required
	TempDir   string
	Cargo     string // required
}

// Provision creates a workspace for req.
// On error no workspace is left behind.
func (p *Provisioner) Provision(ctx context.Context, req *Request) (*Workspace, error) {
	dir, err := os.MkdirTemp(p.TempDir, "contract-*")
	if err != nil {
		return nil, &ProvisionError{Step: "create workspace", Err: err}
	}
	ws := &Workspace{Dir: dir, ProjectName: req.ProjectName}

	maybeRemove := func() {
		if removeErr := ws.Remove(); removeErr != nil {
			p.Log.Error("didn't remove workspace", "dir", ws.Dir, "error", removeErr)
		}
	}
	defer func() {
		if maybeRemove != nil {
			maybeRemove()
		}
	}()

	// Scaffold the project.
	initOutcome, err := p.Toolchain.Run(ctx, &Invocation{
		Command: p.Cargo,
		Args:    []string{"init", "--name", req.ProjectName, "--lib"},
		Dir:     ws.Dir,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ProvisionError{Step: "initialize project", Err: err}
	}
	if !initOutcome.Succeeded() {
		err = fmt.Errorf("%w %d", ErrNonZeroExit, initOutcome.ExitCode)
		if stderr := strings.TrimSpace(string(initOutcome.Stderr)); stderr != "" {
			err = fmt.Errorf("%w: %s", err, stderr)
		}
		return nil, &ProvisionError{Step: "initialize project", Err: err}
	}

	// Clear build cache. Best effort.
	cleanOutcome, err := p.Toolchain.Run(ctx, &Invocation{
		Command: p.Cargo,
		Args:    []string{"clean"},
		Dir:     ws.Dir,
	})
	switch {
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		p.Log.Debug("didn't clean workspace", "error", err)
	case !cleanOutcome.Succeeded():
		p.Log.Debug("didn't clean workspace", "exit_code", cleanOutcome.ExitCode)
	}

	// Write manifest.
	manifest, err := NewManifest(req.ProjectName).Marshal()
	if err != nil {
		return nil, &ProvisionError{Step: "write manifest", Err: err}
	}
	if err = os.WriteFile(filepath.Join(ws.Dir, manifestFile), manifest, 0o666); err != nil {
		return nil, &ProvisionError{Step: "write manifest", Err: err}
	}

	// Write source.
	if err = os.WriteFile(filepath.Join(ws.Dir, filepath.FromSlash(sourceFile)), []byte(req.SourceText), 0o666); err != nil {
		return nil, &ProvisionError{Step: "write source", Err: err}
	}

	maybeRemove = nil
	return ws, nil
}

// isContextError reports whether err came from an ended context.
func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
