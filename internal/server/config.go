package server

import (
	"time"
)

// Config holds the server configuration.
type Config struct {
	Host              string        `env:"HOST"` // default: "127.0.0.1"
	Port              int           `env:"PORT"` // default: 8080
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT"`
	AllowedOrigin     string        `env:"ALLOWED_ORIGIN"`    // default: "http://localhost:3000"
	MaxRequestBytes   int64         `env:"MAX_REQUEST_BYTES"` // 0 means unlimited
	RateLimit         float64       `env:"RATE_LIMIT"`        // compiles per second per client, 0 means off
	RateBurst         int           `env:"RATE_BURST"`        // default: 5
}

func (c *Config) host() string {
	h := c.Host
	if h == "" {
		h = "127.0.0.1"
	}
	return h
}

func (c *Config) port() int {
	p := c.Port
	if p == 0 {
		p = 8080
	}
	return p
}

func (c *Config) allowedOrigin() string {
	o := c.AllowedOrigin
	if o == "" {
		o = "http://localhost:3000"
	}
	return o
}

func (c *Config) rateBurst() int {
	b := c.RateBurst
	if b == 0 {
		b = 5
	}
	return b
}
