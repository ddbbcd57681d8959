// Package httpapi serves the daemon's status endpoints: health, metrics,
// and the current project list.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/extd/internal/config"
	"github.com/fyrsmithlabs/extd/internal/extension"
	"github.com/fyrsmithlabs/extd/internal/logging"
)

// Server is the status HTTP server.
type Server struct {
	echo   *echo.Echo
	cfg    config.ServerConfig
	logger *logging.Logger
}

// New creates the server and installs routes.
func New(cfg config.ServerConfig, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, cfg: cfg, logger: logger.Named("httpapi")}

	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/projects", s.projects)

	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully within
// the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.logger.Info(ctx, "status server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down status server: %w", err)
	}
	return nil
}

func (s *Server) health(c echo.Context) error {
	status := "ok"
	if extension.Current() == nil {
		status = "inactive"
	}
	return c.JSON(http.StatusOK, map[string]string{"status": status})
}

func (s *Server) projects(c echo.Context) error {
	session := extension.Current()
	if session == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "extension not activated",
		})
	}
	return c.JSON(http.StatusOK, session.Provider.Projects())
}
