package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"valley_bot/internal/metrics"
)

type stubChecker struct {
	err error
}

func (s stubChecker) Ping(context.Context) error {
	return s.err
}

func TestHealthHandlerOK(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	server := NewServer(0, stubChecker{}, logrus.NewEntry(logger), WithDriver("sqlite"))

	rr := serve(server, "/healthz")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", rr.Code)
	}

	body := strings.TrimSpace(rr.Body.String())
	if body != `{"status":"ok","driver":"sqlite"}` {
		t.Fatalf("unexpected body: %s", body)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}
}

func TestHealthHandlerStoreError(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	server := NewServer(0, stubChecker{err: errors.New("connection refused")}, logrus.NewEntry(logger))

	rr := serve(server, "/healthz")

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected HTTP 503, got %d", rr.Code)
	}

	body := strings.TrimSpace(rr.Body.String())
	if body != `{"status":"degraded","store":"error"}` {
		t.Fatalf("unexpected body: %s", body)
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Data["event"] != "health_store_error" {
		t.Fatalf("expected health_store_error log, got %v", entry)
	}
}

func TestHealthHandlerMissingChecker(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	server := NewServer(0, nil, logrus.NewEntry(logger))

	rr := serve(server, "/healthz")

	body := strings.TrimSpace(rr.Body.String())
	if body != `{"status":"degraded","store":"error"}` {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	m := metrics.New()
	m.ObserveUpdate("/start")

	server := NewServer(0, stubChecker{}, logrus.NewEntry(logger), WithMetricsHandler(m.Handler()))
	rr := serve(server, "/metrics")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "valley_bot_updates_total") {
		t.Fatalf("expected bot counters in metrics output")
	}
}

func TestMetricsNotMountedByDefault(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	server := NewServer(0, stubChecker{}, logrus.NewEntry(logger))

	if rr := serve(server, "/metrics"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected HTTP 404, got %d", rr.Code)
	}
}

func serve(server *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}
