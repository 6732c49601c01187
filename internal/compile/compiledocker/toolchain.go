// Package compiledocker runs toolchain commands in throwaway Docker containers.
package compiledocker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/k11v/nearc/internal/compile"
)

const (
	workspaceTarget = "/workspace"
	removeTimeout   = 30 * time.Second
)

// defaultCapAdd are the capabilities Docker grants by default.
// See https://github.com/moby/moby/blob/master/oci/caps/defaults.go.
var defaultCapAdd = strslice.StrSlice{
	"CAP_CHOWN",
	"CAP_DAC_OVERRIDE",
	"CAP_FSETID",
	"CAP_FOWNER",
	"CAP_MKNOD",
	"CAP_NET_RAW",
	"CAP_SETGID",
	"CAP_SETUID",
	"CAP_SETFCAP",
	"CAP_SETPCAP",
	"CAP_NET_BIND_SERVICE",
	"CAP_SYS_CHROOT",
	"CAP_KILL",
	"CAP_AUDIT_WRITE",
}

// Config holds the Docker toolchain configuration.
type Config struct {
	Image       string `env:"IMAGE"`        // default: "nearc-toolchain"
	Network     string `env:"NETWORK"`      // default: Docker's default network
	MemoryBytes int64  `env:"MEMORY_BYTES"` // default: 2GiB
	User        string `env:"USER"`         // default: uid:gid of this process
}

func (c *Config) image() string {
	i := c.Image
	if i == "" {
		i = "nearc-toolchain"
	}
	return i
}

func (c *Config) memoryBytes() int64 {
	m := c.MemoryBytes
	if m <= 0 {
		m = 2 * 1024 * 1024 * 1024 // 2GiB
	}
	return m
}

func (c *Config) user() string {
	u := c.User
	if u == "" {
		u = fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid())
	}
	return u
}

// containerAPI is the part of *client.Client the toolchain uses.
type containerAPI interface {
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerAttach(ctx context.Context, container string, options container.AttachOptions) (types.HijackedResponse, error)
	ContainerStart(ctx context.Context, container string, options container.StartOptions) error
	ContainerWait(ctx context.Context, container string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerRemove(ctx context.Context, container string, options container.RemoveOptions) error
}

var _ containerAPI = (*client.Client)(nil)

// Toolchain implements compile.Toolchain with one container per invocation.
// The invocation's working directory is bind-mounted at /workspace.
// The image must already contain the build target,
// since target setup done in one container doesn't outlive it.
type Toolchain struct {
	api containerAPI
	cfg *Config
	log *slog.Logger
}

var _ compile.Toolchain = (*Toolchain)(nil)

// New returns a toolchain that reaches the Docker daemon configured by the environment.
func New(cfg *Config, log *slog.Logger) (*Toolchain, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("compiledocker.New: %w", err)
	}
	return newToolchain(cli, cfg, log), nil
}

func newToolchain(api containerAPI, cfg *Config, log *slog.Logger) *Toolchain {
	return &Toolchain{api: api, cfg: cfg, log: log.With("component", "docker")}
}

func (t *Toolchain) Run(ctx context.Context, inv *compile.Invocation) (*compile.Outcome, error) {
	// Create container.
	createResp, err := t.api.ContainerCreate(
		ctx,
		&container.Config{
			Image:      t.cfg.image(),
			Entrypoint: strslice.StrSlice{inv.Command},
			Cmd:        strslice.StrSlice(inv.Args),
			WorkingDir: workspaceTarget,
			User:       t.cfg.user(),
			Env: []string{
				"HOME=" + workspaceTarget,
				"CARGO_HOME=" + workspaceTarget + "/.cargo",
			},
			AttachStdout: true,
			AttachStderr: true,
		},
		&container.HostConfig{
			NetworkMode: container.NetworkMode(t.cfg.Network),
			CapDrop:     strslice.StrSlice{"ALL"},
			CapAdd:      defaultCapAdd,
			Mounts: []mount.Mount{{
				Type:   mount.TypeBind,
				Source: inv.Dir,
				Target: workspaceTarget,
			}},
			Resources: container.Resources{
				Memory: t.cfg.memoryBytes(),
			},
			LogConfig: container.LogConfig{
				Type: "none",
			},
		},
		nil,
		nil,
		"",
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &compile.LaunchError{Command: inv.Command, Err: err}
	}
	if len(createResp.Warnings) > 0 {
		t.log.Warn("created container with warnings", "id", createResp.ID, "warnings", createResp.Warnings)
	}
	defer func() {
		removeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), removeTimeout)
		defer cancel()
		err := t.api.ContainerRemove(removeCtx, createResp.ID, container.RemoveOptions{Force: true})
		if err != nil {
			t.log.Error("didn't remove container", "id", createResp.ID, "error", err)
		}
	}()

	// Attach container streams.
	attachResp, err := t.api.ContainerAttach(ctx, createResp.ID, container.AttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &compile.LaunchError{Command: inv.Command, Err: err}
	}
	defer attachResp.Close()

	// Start container.
	err = t.api.ContainerStart(ctx, createResp.ID, container.StartOptions{})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &compile.LaunchError{Command: inv.Command, Err: err}
	}

	// Read container stdout and stderr until the container exits.
	var stdout, stderr bytes.Buffer
	copyErrCh := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		copyErrCh <- err
	}()
	select {
	case err = <-copyErrCh:
		if err != nil {
			return nil, fmt.Errorf("compiledocker.Toolchain: %w", err)
		}
	case <-ctx.Done():
		attachResp.Close()
		<-copyErrCh
		return nil, ctx.Err()
	}

	// Check container exit code.
	waitRespCh, waitErrCh := t.api.ContainerWait(ctx, createResp.ID, container.WaitConditionNotRunning)
	var waitResp container.WaitResponse
	select {
	case err = <-waitErrCh:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("compiledocker.Toolchain: %w", err)
	case waitResp = <-waitRespCh:
	}
	if waitResp.Error != nil {
		return nil, fmt.Errorf("compiledocker.Toolchain: %w", errors.New(waitResp.Error.Message))
	}

	return &compile.Outcome{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: int(waitResp.StatusCode),
	}, nil
}
