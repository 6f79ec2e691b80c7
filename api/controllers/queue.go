package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/luisherrera/milltrack-agent/api/responses"
	"github.com/luisherrera/milltrack-agent/api/validators"
	"github.com/luisherrera/milltrack-agent/internal/queue"
	"github.com/luisherrera/milltrack-agent/pkg/auth/session"
	"github.com/luisherrera/milltrack-agent/pkg/config"
	"github.com/luisherrera/milltrack-agent/pkg/enums"
	"github.com/luisherrera/milltrack-agent/pkg/errors"
	"github.com/luisherrera/milltrack-agent/pkg/logger"
)

type enqueueRequest struct {
	FormType  string          `json:"formType" validate:"required"`
	TableName string          `json:"tableName" validate:"required"`
	Payload   json.RawMessage `json:"payload" validate:"required"`
	FactoryID string          `json:"factoryId"`
	UserID    string          `json:"userId"`
}

type enqueueResponse struct {
	ID     string        `json:"id"`
	Counts queueCountsTO `json:"counts"`
}

type queueCountsTO struct {
	PendingCount int `json:"pendingCount"`
	FailedCount  int `json:"failedCount"`
}

// QueueEnqueue accepts a form submission from the station UI and stores it
// locally. Storage failures are absorbed by the queue service, so the UI
// always gets an id back.
func QueueEnqueue(svc *queue.Service, sessions *session.Manager, cfg config.AgentConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body enqueueRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		formType, err := enums.ParseFormType(body.FormType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeValidation, err, "unknown form type"))
			return
		}

		factoryID := body.FactoryID
		if factoryID == "" {
			factoryID = cfg.FactoryID
		}
		userID := body.UserID
		if userID == "" {
			userID = sessions.Subject()
		}

		id := svc.Enqueue(r.Context(), queue.EnqueueInput{
			FormType:  formType,
			TableName: body.TableName,
			Payload:   body.Payload,
			FactoryID: factoryID,
			UserID:    userID,
		})

		counts := svc.Counts(r.Context())
		responses.WriteSuccessStatus(w, http.StatusAccepted, enqueueResponse{
			ID: id,
			Counts: queueCountsTO{
				PendingCount: counts.PendingCount,
				FailedCount:  counts.FailedCount,
			},
		})
	}
}

// QueueList returns every queued submission in enqueue order.
func QueueList(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs := svc.Snapshot(r.Context())
		if subs == nil {
			subs = []queue.Submission{}
		}
		responses.WriteSuccess(w, subs)
	}
}

// QueueCounts returns the pending and failed totals the UI badges show.
func QueueCounts(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts := svc.Counts(r.Context())
		responses.WriteSuccess(w, queueCountsTO{
			PendingCount: counts.PendingCount,
			FailedCount:  counts.FailedCount,
		})
	}
}

// QueueClearFailed discards submissions parked after exhausting retries.
func QueueClearFailed(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ClearFailed(r.Context())
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

// QueueClearAll discards the whole queue, including pending work.
func QueueClearAll(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.ClearAll(r.Context())
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
