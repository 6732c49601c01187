package server

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
)

// New returns a new HTTP server.
// It should be started with http.Server's ListenAndServe.
func New(cfg *Config, log *slog.Logger, compiler Compiler, development bool) *http.Server {
	addr := net.JoinHostPort(cfg.host(), strconv.Itoa(cfg.port()))

	subLogger := log.With("component", "server")
	subLogLogger := slog.NewLogLogger(subLogger.Handler(), slog.LevelError)

	h := newHandler(cfg, subLogger, compiler, development)

	return &http.Server{
		Addr:              addr,
		ErrorLog:          subLogLogger,
		Handler:           withCORS(h, cfg.allowedOrigin()),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
