// Command server serves the contract compile API over HTTP.
//
//	@title			NEAR Contract Compiler API
//	@version		1.0
//	@description	Compiles NEAR smart contract sources to WebAssembly.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/k11v/nearc/internal/compile"
	"github.com/k11v/nearc/internal/compile/compiledocker"
	"github.com/k11v/nearc/internal/server"
)

func main() {
	run := func() int {
		cfg, err := parseConfig(os.Environ())
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}

		log := newLogger(os.Stderr, cfg.Development)

		toolchain, err := newToolchain(cfg, log)
		if err != nil {
			log.Error("didn't create toolchain", "error", err)
			return 1
		}
		compiler := compile.NewCompiler(&cfg.Compile, toolchain, log)
		srv := server.New(&cfg.Server, log, compiler, cfg.Development)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info("starting server", "addr", srv.Addr, "toolchain", cfg.Toolchain)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("stopping server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout())
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		if err := g.Wait(); err != nil {
			log.Error("server failed", "error", err)
			return 1
		}

		return 0
	}
	os.Exit(run())
}

func newLogger(w io.Writer, development bool) *slog.Logger {
	if development {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}

func newToolchain(cfg *config, log *slog.Logger) (compile.Toolchain, error) {
	switch cfg.Toolchain {
	case "", toolchainExec:
		return compile.ExecToolchain{}, nil
	case toolchainDocker:
		t, err := compiledocker.New(&cfg.Docker, log)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown toolchain %q", cfg.Toolchain)
	}
}
