package controllers

import (
	"net/http"

	"github.com/luisherrera/milltrack-agent/api/responses"
	"github.com/luisherrera/milltrack-agent/internal/netmon"
	"github.com/luisherrera/milltrack-agent/pkg/logger"
)

// SyncNow runs a drain cycle at the user's request. Being offline is an
// error here, unlike the automatic triggers which stay silent.
func SyncNow(mon *netmon.Monitor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := mon.ManualSync(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SyncRetryFailed resets parked submissions and drains when reachable.
func SyncRetryFailed(mon *netmon.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count := mon.RetryFailed(r.Context())
		responses.WriteSuccess(w, map[string]int{"reset": count})
	}
}

// SyncStatus reports connectivity so the UI can show an offline banner.
func SyncStatus(mon *netmon.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]bool{"online": mon.Online()})
	}
}
