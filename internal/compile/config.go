package compile

import (
	"time"
)

// Config holds the compile pipeline configuration.
type Config struct {
	TempDir         string        `env:"TEMP_DIR"`          // default: os.TempDir()
	Target          string        `env:"TARGET"`            // default: "wasm32-unknown-unknown"
	Timeout         time.Duration `env:"TIMEOUT"`           // default: 5m
	MaxConcurrency  int           `env:"MAX_CONCURRENCY"`   // default: 0, unlimited
	SkipTargetSetup bool          `env:"SKIP_TARGET_SETUP"` // skip "rustup target add"
	Cargo           string        `env:"CARGO"`             // default: "cargo"
	Rustup          string        `env:"RUSTUP"`            // default: "rustup"
}

func (c *Config) target() string {
	t := c.Target
	if t == "" {
		t = "wasm32-unknown-unknown"
	}
	return t
}

func (c *Config) timeout() time.Duration {
	t := c.Timeout
	if t <= 0 {
		t = 5 * time.Minute
	}
	return t
}

func (c *Config) cargo() string {
	p := c.Cargo
	if p == "" {
		p = "cargo"
	}
	return p
}

func (c *Config) rustup() string {
	p := c.Rustup
	if p == "" {
		p = "rustup"
	}
	return p
}
