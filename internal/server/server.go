package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/theblitlabs/perfcounters/internal/config"
	"github.com/theblitlabs/perfcounters/pkg/logger"
)

type Server struct {
	httpServer *http.Server
}

// NewServer serves handler on the configured address. The write timeout is
// left unset so websocket streams are not cut off.
func NewServer(cfg config.ServerConfig, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 15 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start blocks until the server is stopped. A graceful Stop is not an error.
func (s *Server) Start() error {
	log := logger.WithComponent("server")
	log.Info().Str("addr", s.httpServer.Addr).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	log := logger.WithComponent("server")
	log.Info().Msg("Shutting down HTTP server...")

	return s.httpServer.Shutdown(ctx)
}
