// Package adminapi is the kernel's control-plane HTTP service: load a
// scenario, start/stop its runtime, inspect correlation state, and seed
// envelopes for smoke-testing — in the teacher's exact server shape
// (NewServer, a middleware chain, RFC 7807 errors, graceful shutdown).
package adminapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/correlator-io/correlator/internal/adminapi/apikey"
	"github.com/correlator-io/correlator/internal/adminapi/middleware"
	"github.com/correlator-io/correlator/internal/bus"
	"github.com/correlator-io/correlator/internal/config"
)

// Server is the admin API's HTTP server.
type Server struct {
	httpServer  *http.Server
	logger      *slog.Logger
	config      config.KernelConfig
	bus         bus.Bus
	registry    *registry
	apiKeyStore apikey.Store
	rateLimiter middleware.RateLimiter
	startTime   time.Time
}

// NewServer wires the admin API together. busValue is required — every
// scenario started through this server dispatches through it — and
// NewServer panics if it is nil, matching the teacher's
// required-dependency convention. apiKeyStore and rateLimiter are
// optional; nil disables the corresponding middleware.
func NewServer(cfg config.KernelConfig, busValue bus.Bus, apiKeyStore apikey.Store, rateLimiter middleware.RateLimiter) *Server {
	if busValue == nil {
		panic("adminapi: bus is required — cannot start the control plane without one")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	s := &Server{
		logger:      logger,
		config:      cfg,
		bus:         busValue,
		registry:    newRegistry(),
		apiKeyStore: apiKeyStore,
		rateLimiter: rateLimiter,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	if apiKeyStore != nil {
		logger.Info("API key authentication enabled for /v1/* routes")
	} else {
		logger.Warn("no API key store configured - /v1/* routes are unauthenticated")
	}

	handler := middleware.Apply(mux,
		middleware.WithCorrelationID(),
		middleware.WithRecovery(logger),
		middleware.WithAuth(apiKeyStore, logger),
		middleware.WithRateLimit(rateLimiter, logger),
		middleware.WithRequestLogger(logger),
		middleware.WithCORS(cfg.ToCORSConfig()),
	)

	s.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// Start starts the HTTP server and blocks until a shutdown signal or
// server error. On a shutdown signal it gracefully shuts down every
// running scenario and the server; a server error is returned as is.
func (s *Server) Start() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid admin API configuration: %w", err)
	}

	s.startTime = time.Now()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("starting admin API", slog.String("address", s.config.Address()))

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("admin API failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case sig := <-stop:
		s.logger.Info("received shutdown signal", slog.String("signal", sig.String()))

		return s.shutdown()
	}
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	for _, name := range s.registry.list() {
		if entry, ok := s.registry.get(name); ok {
			entry.runtimeValue.Stop()
		}
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("admin API shutdown failed: %w", err)
	}

	s.logger.Info("admin API shutdown completed")

	return nil
}
