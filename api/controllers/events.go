package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/luisherrera/milltrack-agent/pkg/events"
	"github.com/luisherrera/milltrack-agent/pkg/logger"
)

// QueueEvents streams queue count updates to the UI as server-sent events.
// The first event carries the current counts so a reconnecting client does
// not wait for the next change.
func QueueEvents(bus *events.Bus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		sub := bus.Subscribe()
		defer sub.Close()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case counts, open := <-sub.C():
				if !open {
					return
				}
				payload, err := json.Marshal(counts)
				if err != nil {
					logg.Error(ctx, "encoding queue counts failed", err)
					continue
				}
				if _, err := fmt.Fprintf(w, "event: queue\ndata: %s\n\n", payload); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
