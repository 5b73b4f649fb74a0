package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"wallet-ledger-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Server is the HTTP front of the wallet
type Server struct {
	httpServer *http.Server
}

// NewServer wraps handler in an http.Server. With EnableH2C the server also
// accepts cleartext HTTP/2, for deployments behind a proxy that speaks it.
func NewServer(cfg models.ServerConfig, handler http.Handler) *Server {
	if cfg.EnableH2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Start serves until the server is shut down
func (s *Server) Start() error {
	zap.L().Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	zap.L().Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
