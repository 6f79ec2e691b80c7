package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/luisherrera/milltrack-agent/pkg/config"
)

var ErrNoSession = errors.New("no active session")

// Checker exposes the read-only surface the sync engine consults before a cycle.
type Checker interface {
	IsAuthenticated(ctx context.Context) bool
}

// Manager holds the worker's backend-issued JWT. The agent never mints or
// refreshes tokens; the UI layer hands one over after login and clears it on
// logout. A session counts as active while the token parses and has not
// expired (with configured leeway).
type Manager struct {
	mu     sync.RWMutex
	token  string
	claims jwt.MapClaims
	leeway time.Duration
	now    func() time.Time
}

// NewManager constructs a session manager with the configured clock leeway.
func NewManager(cfg config.SessionConfig) *Manager {
	leeway := cfg.Leeway
	if leeway < 0 {
		leeway = 0
	}
	return &Manager{leeway: leeway, now: time.Now}
}

// SetToken stores the worker's token after validating its shape. The signature
// is not verified locally: the agent has no backend secret, and a forged token
// only produces backend rejections that the retry policy already handles.
func (m *Manager) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.claims = claims
	return nil
}

// Clear drops the stored session.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.claims = nil
}

// Token returns the stored token for backend requests.
func (m *Manager) Token() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return "", ErrNoSession
	}
	return m.token, nil
}

// Subject returns the token subject (the submitting worker's user id).
func (m *Manager) Subject() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.claims == nil {
		return ""
	}
	sub, err := m.claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// IsAuthenticated reports whether a non-expired token is present.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return false
	}
	exp, err := m.claims.GetExpirationTime()
	if err != nil {
		return false
	}
	if exp == nil {
		// Tokens without expiry are trusted until cleared.
		return true
	}
	return m.now().Before(exp.Time.Add(m.leeway))
}
