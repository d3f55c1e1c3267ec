package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	ginhandler "user-wire-service/internal/adapter/gin/handler"
	"user-wire-service/internal/config"
)

// Server holds the wire listener and the optional admin server
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	Wire   *Listener
	Admin  *http.Server
}

// New creates a new server instance. The admin server is built only when enabled.
func New(cfg *config.Config, l *zap.Logger, handler ConnHandler, adminHandler *ginhandler.AdminHandler) *Server {
	s := &Server{
		Config: cfg,
		Logger: l,
		Wire:   NewListener(cfg.Server.Address(), cfg.Server.Concurrent, handler, l),
	}
	if cfg.Admin.Enabled && adminHandler != nil {
		s.Admin = SetupAdminServer(adminHandler, cfg.Admin.Address(), l)
	}
	return s
}

// Start binds the wire listener and serves until ctx is canceled or a server fails.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Wire.Listen(ctx); err != nil {
		return fmt.Errorf("failed to start wire listener: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Wire.Serve(gctx)
	})

	if s.Admin != nil {
		g.Go(func() error {
			s.Logger.Info("admin server running", zap.String("address", s.Admin.Addr))
			if err := s.Admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout())
			defer cancel()
			if err := s.Admin.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("admin shutdown: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Shutdown stops accepting and waits for in-flight connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.Wire.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.Wire.Wait(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) shutdownTimeout() time.Duration {
	return time.Duration(s.Config.Server.ShutdownTimeoutSeconds) * time.Second
}
