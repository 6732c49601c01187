// Command compile compiles one contract source file with the local toolchain
// and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/k11v/nearc/internal/compile"
)

// errCompileFailed is returned after a failed result has been printed.
var errCompileFailed = errors.New("compile failed")

type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

type result struct {
	Success  bool    `json:"success"`
	Output   string  `json:"output"`
	Errors   *string `json:"errors"`
	WasmSize *int64  `json:"wasm_size"`
}

func main() {
	run := func() int {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cmd := newCommand(compile.ExecToolchain{}, os.Stdout, os.Stderr)
		err := cmd.ExecuteContext(ctx)
		var usageErr *usageError
		switch {
		case err == nil:
			return 0
		case errors.Is(err, errCompileFailed):
			return 1
		case errors.As(err, &usageErr):
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 2
		default:
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
	}
	os.Exit(run())
}

func newCommand(toolchain compile.Toolchain, stdout, stderr io.Writer) *cobra.Command {
	var (
		cfg     compile.Config
		name    string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:           "compile <file>",
		Short:         "Compile a NEAR contract source file to WebAssembly",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return &usageError{err: err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return &usageError{err: errors.New("missing --name flag")}
			}

			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

			compiler := compile.NewCompiler(&cfg, toolchain, log)
			res := compiler.Compile(cmd.Context(), &compile.Request{
				SourceText:  string(source),
				ProjectName: name,
			})

			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result{
				Success:  res.Success,
				Output:   res.Output,
				Errors:   res.Errors,
				WasmSize: res.ArtifactSize,
			}); err != nil {
				return err
			}

			if !res.Success {
				return errCompileFailed
			}
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := cmd.Flags()
	flags.StringVar(&name, "name", "", "contract (cargo package) name")
	flags.StringVar(&cfg.Target, "target", "", "compilation target (default wasm32-unknown-unknown)")
	flags.DurationVar(&cfg.Timeout, "timeout", 5*time.Minute, "time limit for the whole compile")
	flags.StringVar(&cfg.TempDir, "temp-dir", "", "parent directory for build workspaces")
	flags.BoolVar(&cfg.SkipTargetSetup, "skip-target-setup", false, "don't run rustup target add")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log pipeline steps to stderr")

	return cmd
}
