package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luisherrera/milltrack-agent/pkg/config"
	"github.com/luisherrera/milltrack-agent/pkg/db"
	"github.com/luisherrera/milltrack-agent/pkg/redis"
)

// The queue store selected at boot is what readiness reports on, so both
// backends must expose the ping surface.
var (
	_ db.Pinger = (*db.Client)(nil)
	_ db.Pinger = (*redis.Client)(nil)
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(ctx context.Context) error { return s.err }

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func TestHealthReadyReportsStoreOutage(t *testing.T) {
	handler := HealthReady(testConfig(), testLogger(), &stubPinger{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the queue store is unreachable, got %d", rec.Code)
	}
}

func TestHealthReadySucceedsOnHealthyStore(t *testing.T) {
	handler := HealthReady(testConfig(), testLogger(), &stubPinger{})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Milltrack-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}
