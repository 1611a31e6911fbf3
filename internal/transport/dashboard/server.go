// Package dashboard serves read-only JSON and SSE views of the activity log.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sandevgo/tuskbridge/internal/service/activity"
	"github.com/sandevgo/tuskbridge/pkg/log"
	"github.com/sandevgo/tuskbridge/pkg/retry"
)

// SessionCounter reports how many conversations have a stored session.
type SessionCounter func(ctx context.Context) (int, error)

type Status struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Entries  int    `json:"entries"`
	Sessions *int   `json:"sessions,omitempty"`
}

type Server struct {
	echo     *echo.Echo
	activity *activity.Log
	addr     string
	version  string
	sessions SessionCounter
	retrier  *retry.Retrier
}

type Option func(*Server)

func WithSessionCounter(fn SessionCounter) Option {
	return func(s *Server) { s.sessions = fn }
}

func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

func NewServer(ctx context.Context, port int, act *activity.Log, opts ...Option) *Server {
	s := &Server{
		echo:     echo.New(),
		activity: act,
		addr:     fmt.Sprintf(":%d", port),
		retrier:  retry.NewDefaultRetrier(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(requestLogger(ctx))

	s.echo.GET("/favicon.ico", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	s.echo.GET("/dashboard", s.status)
	s.echo.GET("/dashboard/", s.status)
	s.echo.GET("/dashboard/api/logs", s.logs)
	s.echo.GET("/dashboard/api/stream", s.stream)

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens until Shutdown. A busy port is retried with backoff, since a
// previous instance may still be releasing it.
func (s *Server) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	var ln net.Listener
	err := s.retrier.Do(ctx, func() error {
		var err error
		ln, err = net.Listen("tcp", s.addr)
		if err != nil {
			logger.Warn().Err(err).Str("addr", s.addr).Msg("dashboard port unavailable, retrying")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.echo.Listener = ln
	logger.Info().Str("addr", ln.Addr().String()).Msg("dashboard available at /dashboard")

	if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("dashboard server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.activity.Close()
	return s.echo.Shutdown(ctx)
}

func (s *Server) status(c echo.Context) error {
	st := Status{
		Status:  "ok",
		Version: s.version,
		Entries: s.activity.Len(),
	}

	if s.sessions != nil {
		n, err := s.sessions(c.Request().Context())
		if err != nil {
			log.FromCtx(c.Request().Context()).Error().Err(err).Msg("failed to count sessions")
		} else {
			st.Sessions = &n
		}
	}

	return c.JSON(http.StatusOK, st)
}

func (s *Server) logs(c echo.Context) error {
	return c.JSON(http.StatusOK, s.activity.Entries())
}

func (s *Server) stream(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// Subscribe before the headers go out so a client that sees them cannot
	// miss an entry.
	entries := s.activity.Subscribe(c.Request().Context())

	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte("\n")); err != nil {
		return nil
	}
	w.Flush()

	for e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode entry %d: %w", e.ID, err)
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return nil
		}
		w.Flush()
	}
	return nil
}

func requestLogger(ctx context.Context) echo.MiddlewareFunc {
	logger := log.FromCtx(ctx)
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogMethod:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("dashboard request")
			return nil
		},
	})
}
