package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/luisherrera/milltrack-agent/pkg/config"
	pkgerrors "github.com/luisherrera/milltrack-agent/pkg/errors"
)

// Scope carries the tenant and submitting-user identifiers. The agent never
// interprets them; the backend uses them for authorization.
type Scope struct {
	FactoryID string
	UserID    string
}

// Submitter delivers one payload to a backend collection.
type Submitter interface {
	Submit(ctx context.Context, collection string, doc json.RawMessage, scope Scope) error
}

type tokenSource interface {
	Token() (string, error)
}

// errorEnvelope is the backend's rejection body.
type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RESTSubmitter posts documents to the hosted backend's REST surface. A
// response carrying the configured duplicate code is reported as
// DUPLICATE_CONFLICT so the sync engine can collapse it into success.
type RESTSubmitter struct {
	baseURL       string
	apiKey        string
	duplicateCode string
	tokens        tokenSource
	client        *http.Client
}

func NewRESTSubmitter(cfg config.BackendConfig, syncCfg config.SyncConfig, tokens tokenSource) *RESTSubmitter {
	return &RESTSubmitter{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		duplicateCode: syncCfg.DuplicateCode,
		tokens:        tokens,
		client:        &http.Client{Timeout: syncCfg.RequestTimeout},
	}
}

func (s *RESTSubmitter) Submit(ctx context.Context, collection string, doc json.RawMessage, scope Scope) error {
	token, err := s.tokens.Token()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotReady, err, "no session token for delivery")
	}

	url := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(doc))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDelivery, err, "building backend request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
	}
	req.Header.Set("X-Milltrack-Factory", scope.FactoryID)
	req.Header.Set("X-Milltrack-User", scope.UserID)

	resp, err := s.client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDelivery, err, "posting to backend")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var envelope errorEnvelope
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Message == "" {
		envelope.Message = fmt.Sprintf("backend returned status %d", resp.StatusCode)
	}

	if envelope.Code != "" && envelope.Code == s.duplicateCode {
		return pkgerrors.New(pkgerrors.CodeDuplicateConflict, envelope.Message).
			WithDetails(map[string]any{"code": envelope.Code})
	}

	return pkgerrors.New(pkgerrors.CodeDelivery, envelope.Message).
		WithDetails(map[string]any{"code": envelope.Code, "status": resp.StatusCode})
}

// IsDuplicate reports whether err marks an idempotent duplicate.
func IsDuplicate(err error) bool {
	return pkgerrors.HasCode(err, pkgerrors.CodeDuplicateConflict)
}
