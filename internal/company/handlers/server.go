// Package handlers exposes the company, employee and authentication services
// over HTTP. It binds and validates request payloads, maps service errors to
// status codes and wires the cache, rate limiting, versioning and auth
// middleware around the routes.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Server runs the HTTP API.
type Server struct {
	httpServer   *http.Server
	logger       *zap.Logger
	httpEndpoint string

	mu       sync.Mutex
	listener net.Listener
}

// NewServer constructs a Server listening on port. Port 0 picks a free port.
func NewServer(port int, handler http.Handler, logger *zap.Logger) *Server {
	endpoint := fmt.Sprintf(":%d", port)
	return &Server{
		httpServer: &http.Server{
			Addr:              endpoint,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:       logger.Named("server"),
		httpEndpoint: endpoint,
	}
}

// Start serves requests until Stop is called. It returns nil after a graceful stop.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.httpEndpoint)
	if err != nil {
		return fmt.Errorf("HTTP listen error: %w", err)
	}
	s.mu.Lock()
	s.listener = lis
	s.mu.Unlock()

	s.logger.Info("Starting HTTP server", zap.String("endpoint", lis.Addr().String()))
	if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP serve error: %w", err)
	}
	return nil
}

// Addr returns the bound address once Start is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	s.logger.Info("Server stopped")
}
