// Package server provides the HTTP server hosting the transfer
// endpoint.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jizi-network/s2d/internal/config"
	"github.com/jizi-network/s2d/internal/notifier"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	ListenAddr string
	Config     *config.Config
	Notifier   notifier.Notifier
}

// Server is the HTTP server for the relay.
type Server struct {
	httpServer *http.Server
}

// New creates a Server serving the transfer endpoint on the given
// address.
func New(opts Options) *Server {
	handler := NewHandler(opts.Config, opts.Notifier)
	return &Server{
		httpServer: &http.Server{
			Addr:              opts.ListenAddr,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe serves requests until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
