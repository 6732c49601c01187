package compile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Compiler runs the compile pipeline: provision, invoke, interpret, remove.
// It is safe for concurrent use; every call owns its workspace.
type Compiler struct {
	log         *slog.Logger
	provisioner *Provisioner
	invoker     *Invoker
	target      string
	timeout     time.Duration
	sem         *semaphore.Weighted // nil when unlimited
}

func NewCompiler(cfg *Config, toolchain Toolchain, log *slog.Logger) *Compiler {
	subLogger := log.With("component", "compiler")

	c := &Compiler{
		log: subLogger,
		provisioner: &Provisioner{
			Toolchain: toolchain,
			Log:       subLogger,
			TempDir:   cfg.TempDir,
			Cargo:     cfg.cargo(),
		},
		invoker: &Invoker{
			Toolchain:       toolchain,
			Log:             subLogger,
			Target:          cfg.target(),
			Cargo:           cfg.cargo(),
			Rustup:          cfg.rustup(),
			SkipTargetSetup: cfg.SkipTargetSetup,
		},
		target:  cfg.target(),
		timeout: cfg.timeout(),
	}
	if cfg.MaxConcurrency > 0 {
		c.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrency))
	}
	return c
}

// Compile compiles req and always returns a Result.
// Failures of any step are reported in the Result, never as a panic.
func (c *Compiler) Compile(ctx context.Context, req *Request) (result *Result) {
	log := c.log.With("request_id", uuid.New(), "project", req.ProjectName)

	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered from panic", "panic", r)
			result = errorResult(fmt.Errorf("internal error: %v", r))
		}
	}()

	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			log.Info("didn't start compile", "error", err)
			return errorResult(fmt.Errorf("compile canceled: %w", err))
		}
		defer c.sem.Release(1)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	log.Info("compiling")

	ws, err := c.provisioner.Provision(timeoutCtx, req)
	if err != nil {
		err = c.contextError(ctx, err)
		log.Error("didn't provision workspace", "error", err)
		return errorResult(err)
	}
	defer func() {
		if removeErr := ws.Remove(); removeErr != nil {
			log.Error("didn't remove workspace", "dir", ws.Dir, "error", removeErr)
		}
	}()

	outcome, err := c.invoker.Invoke(timeoutCtx, ws)
	if err != nil {
		err = c.contextError(ctx, err)
		log.Error("didn't build", "error", err)
		outcome = nil
	}

	result = Interpret(log, ws, c.target, outcome, err)
	switch {
	case result.Success && result.ArtifactSize != nil:
		log.Info("compiled", "duration", time.Since(start), "artifact_size", *result.ArtifactSize)
	case result.Success:
		log.Info("compiled", "duration", time.Since(start))
	default:
		log.Info("didn't compile", "duration", time.Since(start))
	}
	return result
}

// contextError replaces an error caused by an ended context
// with a TimeoutError or a cancellation error.
// parent is the caller's context, not the one with the pipeline deadline.
func (c *Compiler) contextError(parent context.Context, err error) error {
	if !isContextError(err) {
		return err
	}
	if parentErr := parent.Err(); parentErr != nil {
		return fmt.Errorf("compile canceled: %w", parentErr)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Timeout: c.timeout}
	}
	return err
}
