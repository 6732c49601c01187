//go:build unix

package compile

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// tickerScript starts a background loop that appends to $1 forever,
// then replaces itself with a long sleep.
const tickerScript = `( while :; do echo tick >> "$1"; sleep 0.05; done ) & exec sleep 60`

func fileSize(t *testing.T, name string) int64 {
	t.Helper()
	info, err := os.Stat(name)
	if errors.Is(err, os.ErrNotExist) {
		return 0
	}
	if err != nil {
		t.Fatalf("didn't want %q", err)
	}
	return info.Size()
}

func TestExecToolchainProcessGroup(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("skipping without sh")
	}

	t.Run("kills background descendants at deadline", func(t *testing.T) {
		ticks := filepath.Join(t.TempDir(), "ticks")
		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()

		_, err := ExecToolchain{}.Run(ctx, &Invocation{
			Command: "sh",
			Args:    []string{"-c", tickerScript, "sh", ticks},
		})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("got %v err, want %v", err, context.DeadlineExceeded)
		}

		before := fileSize(t, ticks)
		time.Sleep(500 * time.Millisecond)
		if after := fileSize(t, ticks); after != before {
			t.Errorf("got ticks growing from %d to %d bytes, want background loop dead", before, after)
		}
	})

	t.Run("kills background descendants after exit", func(t *testing.T) {
		ticks := filepath.Join(t.TempDir(), "ticks")

		outcome, err := ExecToolchain{}.Run(context.Background(), &Invocation{
			Command: "sh",
			Args:    []string{"-c", `( while :; do echo tick >> "$1"; sleep 0.05; done ) >/dev/null 2>&1 & exit 0`, "sh", ticks},
		})
		if err != nil {
			t.Fatalf("didn't want %q", err)
		}
		if !outcome.Succeeded() {
			t.Errorf("got %d ExitCode, want 0", outcome.ExitCode)
		}

		before := fileSize(t, ticks)
		time.Sleep(500 * time.Millisecond)
		if after := fileSize(t, ticks); after != before {
			t.Errorf("got ticks growing from %d to %d bytes, want background loop dead", before, after)
		}
	})
}

func TestCompilerWithExecToolchain(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("skipping without sh")
	}

	t.Run("leaves no workspace after timeout", func(t *testing.T) {
		// The fake cargo's build keeps recreating files in the workspace from a background loop.
		cargo := filepath.Join(t.TempDir(), "cargo")
		script := `#!/bin/sh
D=$PWD
case "$1" in
init) mkdir -p src ;;
build) ( while :; do mkdir -p "$D/target/x"; touch "$D/target/x/tick"; sleep 0.05; done ) & exec sleep 60 ;;
esac
exit 0
`
		if err := os.WriteFile(cargo, []byte(script), 0o755); err != nil {
			t.Fatal(err)
		}
		compiler, tempDir := newTestCompiler(t, ExecToolchain{}, &Config{
			Cargo:           cargo,
			SkipTargetSetup: true,
			Timeout:         300 * time.Millisecond,
		})

		result := compiler.Compile(context.Background(), &Request{SourceText: helloWorldSource, ProjectName: "hello"})

		if got, want := derefString(result.Errors), "build timed out after 300ms"; got != want {
			t.Errorf("got %q Errors, want %q", got, want)
		}
		time.Sleep(500 * time.Millisecond)
		assertNoWorkspaces(t, tempDir)
	})
}
