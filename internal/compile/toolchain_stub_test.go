package compile

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/naoina/toml"
)

const invalidSourceMarker = "{{{"

// StubToolchain imitates cargo and rustup on the local filesystem.
// Init creates src/, build writes an artifact whose content is the source.
// Source containing invalidSourceMarker fails to build.
// Each Func field, when set, replaces the stub behavior of that command.
type StubToolchain struct {
	InitFunc        func(ctx context.Context, inv *Invocation) (*Outcome, error)
	CleanFunc       func(ctx context.Context, inv *Invocation) (*Outcome, error)
	TargetSetupFunc func(ctx context.Context, inv *Invocation) (*Outcome, error)
	BuildFunc       func(ctx context.Context, inv *Invocation) (*Outcome, error)

	mu    sync.Mutex
	calls []string
}

func (s *StubToolchain) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

func (s *StubToolchain) Run(ctx context.Context, inv *Invocation) (*Outcome, error) {
	call := inv.Command
	if len(inv.Args) > 0 {
		call += " " + inv.Args[0]
	}
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()

	switch call {
	case "cargo init":
		if s.InitFunc != nil {
			return s.InitFunc(ctx, inv)
		}
		return stubInit(inv)
	case "cargo clean":
		if s.CleanFunc != nil {
			return s.CleanFunc(ctx, inv)
		}
		return &Outcome{}, nil
	case "rustup target":
		if s.TargetSetupFunc != nil {
			return s.TargetSetupFunc(ctx, inv)
		}
		return &Outcome{}, nil
	case "cargo build":
		if s.BuildFunc != nil {
			return s.BuildFunc(ctx, inv)
		}
		return stubBuild(inv)
	default:
		return nil, &LaunchError{Command: inv.Command, Err: os.ErrNotExist}
	}
}

func stubInit(inv *Invocation) (*Outcome, error) {
	if err := os.Mkdir(filepath.Join(inv.Dir, "src"), 0o777); err != nil {
		return &Outcome{Stderr: []byte(err.Error()), ExitCode: 101}, nil
	}
	if err := os.WriteFile(filepath.Join(inv.Dir, "src", "lib.rs"), []byte("// scaffold\n"), 0o666); err != nil {
		return &Outcome{Stderr: []byte(err.Error()), ExitCode: 101}, nil
	}
	return &Outcome{Stderr: []byte("    Creating library package\n")}, nil
}

func stubBuild(inv *Invocation) (*Outcome, error) {
	manifestData, err := os.ReadFile(filepath.Join(inv.Dir, "Cargo.toml"))
	if err != nil {
		return &Outcome{Stderr: []byte(err.Error()), ExitCode: 101}, nil
	}
	var m Manifest
	if err = toml.Unmarshal(manifestData, &m); err != nil {
		return &Outcome{Stderr: []byte("error: failed to parse manifest: " + err.Error()), ExitCode: 101}, nil
	}

	source, err := os.ReadFile(filepath.Join(inv.Dir, "src", "lib.rs"))
	if err != nil {
		return &Outcome{Stderr: []byte(err.Error()), ExitCode: 101}, nil
	}
	if strings.Contains(string(source), invalidSourceMarker) {
		return &Outcome{
			Stdout:   []byte(""),
			Stderr:   []byte("error: expected one of `!` or `::`, found `is`\n"),
			ExitCode: 101,
		}, nil
	}

	target := ""
	if i := slices.Index(inv.Args, "--target"); i >= 0 && i+1 < len(inv.Args) {
		target = inv.Args[i+1]
	}
	releaseDir := filepath.Join(inv.Dir, "target", target, "release")
	if err = os.MkdirAll(releaseDir, 0o777); err != nil {
		return &Outcome{Stderr: []byte(err.Error()), ExitCode: 101}, nil
	}
	if err = os.WriteFile(filepath.Join(releaseDir, ArtifactName(m.Package.Name)), source, 0o666); err != nil {
		return &Outcome{Stderr: []byte(err.Error()), ExitCode: 101}, nil
	}

	return &Outcome{Stdout: []byte(""), Stderr: []byte("")}, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// readDirNames returns the names of dir entries, failing on error.
func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
