// Package server wires the record store, the services and the HTTP router
// into a runnable server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/iudanet/checkkeeper/internal/crypto"
	"github.com/iudanet/checkkeeper/internal/server/config"
	"github.com/iudanet/checkkeeper/internal/server/middleware"
	"github.com/iudanet/checkkeeper/internal/server/service"
	"github.com/iudanet/checkkeeper/internal/server/storage"
)

// readHeaderTimeout защищает от медленных клиентов (Slowloris)
const readHeaderTimeout = 10 * time.Second

// Server is the HTTP server together with the resources it owns
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      storage.Store
	limiter    *middleware.RouteRateLimiter
	httpServer *http.Server
	listener   net.Listener
}

// New opens the store and builds the services and the router
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	hasher, err := crypto.NewHasher(cfg.Auth.HashAlgorithm, []byte(cfg.Auth.HashingSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to create hasher: %w", err)
	}

	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Driver, err)
	}

	// Одна блокировка на оба сервиса: оба меняют запись пользователя
	locks := service.NewKeyedMutex()
	tokens := service.NewTokenService(store, hasher, cfg.Auth.TokenTTL, logger)

	svc := Services{
		Accounts: service.NewAccountService(store, hasher, tokens, locks, logger),
		Tokens:   tokens,
		Checks:   service.NewCheckService(store, tokens, locks, cfg.Checks.MaxPerUser, logger),
	}

	limiter := NewRateLimiter(cfg.RateLimit, logger)

	return &Server{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		limiter: limiter,
		httpServer: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           NewRouter(logger, svc, limiter.Middleware),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

// Listen binds the configured address. Run calls it if it was not called before.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run serves requests until ctx is canceled, then shuts down gracefully
// within the configured timeout and releases the store.
func (s *Server) Run(ctx context.Context) error {
	defer s.close()

	if err := s.Listen(); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", slog.String("address", s.listener.Addr().String()))
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("Server shutdown completed")
	return nil
}

func (s *Server) close() {
	s.limiter.Stop()
	if err := s.store.Close(); err != nil {
		s.logger.Error("failed to close store", slog.Any("error", err))
	}
}
