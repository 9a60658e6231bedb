package app

import (
	"context"
	"fmt"
	"github.com/bootcamp67/ms-transaction/internal/config"
	"github.com/bootcamp67/ms-transaction/internal/errors"
	"github.com/bootcamp67/ms-transaction/pkg/log"
	"github.com/rs/zerolog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	shutdownTimeout   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type shutdownHook struct {
	name string
	fn   func() error
}

type Service struct {
	config *config.Config
	hooks  []shutdownHook
	logger *zerolog.Logger
}

// NewService creates a new instance of the service
func NewService(cfg *config.Config) *Service {
	l := log.GetLogger()
	return &Service{config: cfg, logger: &l}
}

// OnShutdown registers fn to run after the server has drained, in registration order.
func (s *Service) OnShutdown(name string, fn func() error) {
	s.hooks = append(s.hooks, shutdownHook{name: name, fn: fn})
}

// Run serves handler until ctx is cancelled or the process is signalled, then shuts down.
func (s *Service) Run(ctx context.Context, handler http.Handler) error {
	listener, err := net.Listen("tcp", s.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("%s: %w", errors.ErrorFailedToRunTheServer, err)
	}
	s.serve(ctx, listener, handler)
	return nil
}

func (s *Service) serve(ctx context.Context, listener net.Listener, handler http.Handler) {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg(errors.ErrorFailedToRunTheServer)
		}
	}()

	s.logger.Info().Msg(fmt.Sprintf("Server is listening on %s", listener.Addr()))
	s.shutdown(ctx, server)
}

// shutdown gracefully shuts down the server without interrupting any active connections.
func (s *Service) shutdown(ctx context.Context, server *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("Server is shutting down due to context cancellation...")
	case <-quit:
		s.logger.Info().Msg("Server is shutting down...")
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		s.logger.Error().Err(err).Msg(errors.ErrorFailedToShutdownTheServer)
	}

	for _, hook := range s.hooks {
		if err := hook.fn(); err != nil {
			s.logger.Error().Err(err).Str("hook", hook.name).Msg("Shutdown hook failed")
		}
	}

	s.logger.Info().Msg("Server stopped")
}
