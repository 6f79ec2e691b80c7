package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/luisherrera/milltrack-agent/pkg/config"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestIsAuthenticatedLifecycle(t *testing.T) {
	m := NewManager(config.SessionConfig{Leeway: time.Minute})
	ctx := context.Background()

	if m.IsAuthenticated(ctx) {
		t.Fatalf("expected unauthenticated before token set")
	}

	token := signedToken(t, jwt.MapClaims{
		"sub": "worker-41",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if err := m.SetToken(token); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if !m.IsAuthenticated(ctx) {
		t.Fatalf("expected authenticated with fresh token")
	}
	if m.Subject() != "worker-41" {
		t.Fatalf("unexpected subject %q", m.Subject())
	}

	m.Clear()
	if m.IsAuthenticated(ctx) {
		t.Fatalf("expected unauthenticated after clear")
	}
	if _, err := m.Token(); err != ErrNoSession {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestExpiredTokenWithinLeewayStillCounts(t *testing.T) {
	m := NewManager(config.SessionConfig{Leeway: 5 * time.Minute})
	now := time.Now()
	m.now = func() time.Time { return now }

	token := signedToken(t, jwt.MapClaims{
		"sub": "worker-9",
		"exp": now.Add(-time.Minute).Unix(),
	})
	if err := m.SetToken(token); err != nil {
		t.Fatalf("set token: %v", err)
	}

	if !m.IsAuthenticated(context.Background()) {
		t.Fatalf("expected token inside leeway window to count")
	}

	m.now = func() time.Time { return now.Add(10 * time.Minute) }
	if m.IsAuthenticated(context.Background()) {
		t.Fatalf("expected token beyond leeway to be rejected")
	}
}

func TestSetTokenRejectsGarbage(t *testing.T) {
	m := NewManager(config.SessionConfig{})
	if err := m.SetToken(""); err == nil {
		t.Fatalf("expected error for empty token")
	}
	if err := m.SetToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestTokenWithoutExpiryIsTrusted(t *testing.T) {
	m := NewManager(config.SessionConfig{})
	token := signedToken(t, jwt.MapClaims{"sub": "worker-2"})
	if err := m.SetToken(token); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if !m.IsAuthenticated(context.Background()) {
		t.Fatalf("expected token without exp to be trusted")
	}
}
