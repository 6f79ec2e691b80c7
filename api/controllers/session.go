package controllers

import (
	"net/http"

	"github.com/luisherrera/milltrack-agent/api/responses"
	"github.com/luisherrera/milltrack-agent/api/validators"
	"github.com/luisherrera/milltrack-agent/pkg/auth/session"
	"github.com/luisherrera/milltrack-agent/pkg/errors"
	"github.com/luisherrera/milltrack-agent/pkg/logger"
)

type sessionRequest struct {
	Token string `json:"token" validate:"required"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Subject       string `json:"subject,omitempty"`
}

// SessionSet stores the backend token the UI obtained at login. The agent
// holds it for sync requests until the UI clears it or it expires.
func SessionSet(manager *session.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body sessionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := manager.SetToken(body.Token); err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeValidation, err, "invalid session token"))
			return
		}

		responses.WriteSuccess(w, sessionResponse{
			Authenticated: manager.IsAuthenticated(r.Context()),
			Subject:       manager.Subject(),
		})
	}
}

// SessionClear drops the held token, typically on operator logout.
func SessionClear(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		manager.Clear()
		responses.WriteSuccess(w, sessionResponse{Authenticated: false})
	}
}

// SessionStatus reports whether a usable session is held.
func SessionStatus(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := sessionResponse{Authenticated: manager.IsAuthenticated(r.Context())}
		if resp.Authenticated {
			resp.Subject = manager.Subject()
		}
		responses.WriteSuccess(w, resp)
	}
}
