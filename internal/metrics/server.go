package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health is the body of the /health endpoint
type Health struct {
	Status string         `json:"status"`
	Time   string         `json:"time"`
	Checks map[string]any `json:"checks,omitempty"`
}

// HealthFunc reports the current health of the bot
type HealthFunc func(ctx context.Context) Health

// Server exposes /health and /metrics for operators
type Server struct {
	addr string
	echo *echo.Echo
}

// NewServer creates an ops server listening on addr
func NewServer(addr string, health HealthFunc) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		h := health(ctx)
		h.Time = time.Now().Format(time.RFC3339)

		status := http.StatusOK
		if h.Status == "error" {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, h)
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &Server{addr: addr, echo: e}
}

// Handler returns the HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves in the background until Shutdown is called
func (s *Server) Start() {
	slog.Info("Starting ops server", "addr", s.addr)
	go func() {
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Ops server failed", "error", err)
		}
	}()
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
