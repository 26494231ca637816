package webhook

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nhle/duetask/internal/logger"
	"github.com/nhle/duetask/internal/model"
)

// Server is the webhook HTTP server.
type Server struct {
	echo *echo.Echo
	addr string
}

// NewServer wires the handler onto cfg.Path with request ids, request
// logging and panic recovery.
func NewServer(h *Handler, cfg model.ServerConfig) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger)
	e.Use(middleware.Recover())

	e.Any(cfg.Path, h.Receive)
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	return &Server{echo: e, addr: cfg.Addr}
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server run under any http.Handler host.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// requestLogger puts a request-scoped logger in the request context and
// logs each request once it completes.
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		id := c.Response().Header().Get(echo.HeaderXRequestID)
		ctx := logger.With(req.Context(), "request_id", id)
		c.SetRequest(req.WithContext(ctx))

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		logger.From(ctx).Info().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", c.Response().Status).
			Dur("latency", time.Since(start)).
			Msg("request")
		return nil
	}
}
