// Package health exposes the HTTP endpoints used by container health checks and
// Prometheus scrapes.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"valley_bot/internal/logging"
)

const (
	storePingTimeout  = 2 * time.Second
	readHeaderTimeout = 2 * time.Second
)

// StoreChecker is the part of the storage backend the health check needs.
type StoreChecker interface {
	Ping(ctx context.Context) error
}

// Server hosts /healthz and, when configured, /metrics.
type Server struct {
	server  *http.Server
	logger  *logrus.Entry
	checker StoreChecker
	driver  string
}

// Option customizes a Server.
type Option func(*Server, *http.ServeMux)

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(_ *Server, mux *http.ServeMux) {
		if h != nil {
			mux.Handle("/metrics", h)
		}
	}
}

// WithDriver reports the storage driver name in the health body.
func WithDriver(driver string) Option {
	return func(s *Server, _ *http.ServeMux) {
		s.driver = driver
	}
}

type response struct {
	Status string `json:"status"`
	Driver string `json:"driver,omitempty"`
	Store  string `json:"store,omitempty"`
}

// NewServer constructs a server listening on port.
func NewServer(port int, checker StoreChecker, logger *logrus.Entry, opts ...Option) *Server {
	if logger == nil {
		logger = logging.Logger()
	}

	srv := &Server{
		logger:  logger,
		checker: checker,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	for _, opt := range opts {
		opt(srv, mux)
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return srv
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.WithFields(logging.Fields{
		"event": "health_listen",
		"addr":  s.server.Addr,
	}).Info("starting health server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server listen: %w", err)
	}

	s.logger.WithField("event", "health_stopped").Info("health server stopped")
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := response{Status: "ok", Driver: s.driver}

	if err := s.pingStore(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Store = "error"
		s.logger.WithFields(logging.Fields{
			"event":  "health_store_error",
			"driver": s.driver,
		}).WithError(err).Warn("store ping failed during health check")
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.WithField("event", "health_write_error").WithError(err).Error("failed to encode health response")
	}
}

func (s *Server) pingStore(ctx context.Context) error {
	if s.checker == nil {
		return errors.New("store checker is not configured")
	}

	pingCtx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()

	return s.checker.Ping(pingCtx)
}
