package controllers

import (
	"net/http"

	"github.com/luisherrera/milltrack-agent/api/responses"
	"github.com/luisherrera/milltrack-agent/pkg/config"
	"github.com/luisherrera/milltrack-agent/pkg/db"
	"github.com/luisherrera/milltrack-agent/pkg/errors"
	"github.com/luisherrera/milltrack-agent/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Milltrack-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the local store the queue depends on. Backend
// reachability is deliberately not part of readiness, the agent works
// offline.
func HealthReady(cfg *config.Config, logg *logger.Logger, store db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Milltrack-Env", cfg.App.Env)
		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeStorageUnavailable, err, "local store unreachable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
