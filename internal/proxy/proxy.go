// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package proxy serves the HLS relay endpoints: rewritten playlists on
// /hls-proxy and streamed segments and keys on /seg.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Server is the relay's HTTP listener.
type Server struct {
	addr       string
	httpServer *http.Server
	logger     zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// Config holds the configuration for the relay server.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "127.0.0.1:8080")
	ListenAddr string

	// Handler serves every request, normally the result of NewRouter.
	Handler http.Handler

	// Logger is the logger instance to use
	Logger zerolog.Logger

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration // 0 keeps long segment streams alive
	IdleTimeout    time.Duration
	MaxHeaderBytes int
}

// New creates a new relay server.
func New(cfg Config) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("handler is required")
	}

	return &Server{
		addr:   cfg.ListenAddr,
		logger: cfg.Logger,
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           cfg.Handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			MaxHeaderBytes:    cfg.MaxHeaderBytes,
		},
	}, nil
}

// Start listens and serves until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("relay server listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("starting relay server (HTTP)")
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("relay server failed: %w", err)
	}
	return nil
}

// Addr returns the bound address once Start is listening, or the
// configured address before that.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Shutdown gracefully shuts down the relay server. In-flight segment
// streams are given until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down relay server")
	return s.httpServer.Shutdown(ctx)
}
