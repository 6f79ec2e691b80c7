package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/luisherrera/milltrack-agent/pkg/errors"
)

func TestWriteSuccessWrapsData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if envelope.Data["status"] != "ok" {
		t.Fatalf("unexpected body %v", envelope)
	}
}

func TestWriteErrorUsesCodeMetadata(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeNotReady, "device is offline")
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeNotReady) {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
	if envelope.Error.Message != "device is offline" {
		t.Fatalf("expected caller message passthrough, got %q", envelope.Error.Message)
	}
}

func TestWriteErrorHidesInternalMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("dsn user=admin"), "dsn user=admin")
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if envelope.Error.Message != "internal error" {
		t.Fatalf("internal details must not leak, got %q", envelope.Error.Message)
	}
}

func TestWriteErrorWrapsUntypedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for untyped error, got %d", rec.Code)
	}
}
