package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/luisherrera/milltrack-agent/pkg/config"
	pkgerrors "github.com/luisherrera/milltrack-agent/pkg/errors"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token() (string, error) {
	return s.token, s.err
}

func newSubmitter(baseURL string) *RESTSubmitter {
	return NewRESTSubmitter(
		config.BackendConfig{BaseURL: baseURL, APIKey: "key-123"},
		config.SyncConfig{DuplicateCode: "23505", RequestTimeout: 5 * time.Second},
		staticTokens{token: "jwt-abc"},
	)
}

func TestSubmitSuccess(t *testing.T) {
	var gotPath, gotAuth, gotFactory string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotFactory = r.Header.Get("X-Milltrack-Factory")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := newSubmitter(srv.URL).Submit(context.Background(), "production_actuals",
		json.RawMessage(`{"units":5}`), Scope{FactoryID: "factory-1", UserID: "worker-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/rest/v1/production_actuals" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer jwt-abc" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotFactory != "factory-1" {
		t.Fatalf("unexpected factory header %q", gotFactory)
	}
}

func TestSubmitDuplicateConflictCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"code": "23505", "message": "duplicate key value"})
	}))
	defer srv.Close()

	err := newSubmitter(srv.URL).Submit(context.Background(), "daily_logs", nil, Scope{})
	if !IsDuplicate(err) {
		t.Fatalf("expected duplicate conflict, got %v", err)
	}
}

func TestSubmitDeliveryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"code": "42601", "message": "bad column"})
	}))
	defer srv.Close()

	err := newSubmitter(srv.URL).Submit(context.Background(), "daily_logs", nil, Scope{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeDelivery) {
		t.Fatalf("expected delivery error, got %v", err)
	}
	if IsDuplicate(err) {
		t.Fatalf("non-duplicate code must not collapse to success")
	}
}

func TestSubmitNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream broke</html>"))
	}))
	defer srv.Close()

	err := newSubmitter(srv.URL).Submit(context.Background(), "daily_logs", nil, Scope{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeDelivery) {
		t.Fatalf("expected delivery error, got %v", err)
	}
}

func TestSubmitWithoutTokenIsNotReady(t *testing.T) {
	sub := NewRESTSubmitter(
		config.BackendConfig{BaseURL: "http://unused"},
		config.SyncConfig{DuplicateCode: "23505"},
		staticTokens{err: context.DeadlineExceeded},
	)
	err := sub.Submit(context.Background(), "daily_logs", nil, Scope{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotReady) {
		t.Fatalf("expected not-ready error, got %v", err)
	}
}

func TestSubmitNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // deliberately unreachable

	err := newSubmitter(srv.URL).Submit(context.Background(), "daily_logs", nil, Scope{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeDelivery) {
		t.Fatalf("expected delivery error for unreachable backend, got %v", err)
	}
}
