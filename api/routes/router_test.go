package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luisherrera/milltrack-agent/internal/netmon"
	"github.com/luisherrera/milltrack-agent/internal/queue"
	"github.com/luisherrera/milltrack-agent/pkg/auth/session"
	"github.com/luisherrera/milltrack-agent/pkg/config"
	"github.com/luisherrera/milltrack-agent/pkg/events"
	"github.com/luisherrera/milltrack-agent/pkg/logger"
)

type offlineProbe struct{}

func (offlineProbe) Check(ctx context.Context) bool { return false }

type noSessions struct{}

func (noSessions) IsAuthenticated(ctx context.Context) bool { return false }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc := queue.NewService(queue.ServiceParams{Store: queue.NewMemoryStore(), Logger: logg})
	mon := netmon.New(netmon.Params{
		Probe:    offlineProbe{},
		Queue:    svc,
		Sessions: noSessions{},
		Logger:   logg,
	})
	return NewRouter(Deps{
		Config:   &config.Config{},
		Logger:   logg,
		Queue:    svc,
		Monitor:  mon,
		Sessions: session.NewManager(config.SessionConfig{}),
		Bus:      events.NewBus(),
		Registry: prometheus.NewRegistry(),
	})
}

func TestRouterServesCoreEndpoints(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health/live", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodGet, "/api/v1/queue", http.StatusOK},
		{http.MethodGet, "/api/v1/queue/counts", http.StatusOK},
		{http.MethodGet, "/api/v1/sync/status", http.StatusOK},
		{http.MethodGet, "/api/v1/session", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/api/v1/sync", http.StatusConflict},
		{http.MethodGet, "/api/v1/missing", http.StatusNotFound},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s %s: expected %d, got %d: %s", tc.method, tc.path, tc.status, rec.Code, rec.Body.String())
		}
	}
}

func TestRouterRejectsInvalidEnqueue(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/queue", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
