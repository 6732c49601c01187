package main

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/k11v/nearc/internal/compile"
	"github.com/k11v/nearc/internal/compile/compiledocker"
	"github.com/k11v/nearc/internal/server"
)

const (
	toolchainExec   = "exec"
	toolchainDocker = "docker"
)

// config holds the application configuration.
type config struct {
	Development     bool                 `env:"NEARC_DEVELOPMENT"`
	ShutdownTimeout time.Duration        `env:"NEARC_SHUTDOWN_TIMEOUT"` // default: 30s
	Toolchain       string               `env:"NEARC_TOOLCHAIN"`        // "exec" (default) or "docker"
	Server          server.Config        `envPrefix:"NEARC_SERVER_"`
	Compile         compile.Config       `envPrefix:"NEARC_COMPILE_"`
	Docker          compiledocker.Config `envPrefix:"NEARC_DOCKER_"`
}

func (c *config) shutdownTimeout() time.Duration {
	t := c.ShutdownTimeout
	if t <= 0 {
		t = 30 * time.Second
	}
	return t
}

// parseConfig parses the application configuration from the environment variables.
func parseConfig(environ []string) (*config, error) {
	var cfg config

	err := env.ParseWithOptions(&cfg, env.Options{
		Environment: env.ToMap(environ),
	})
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
