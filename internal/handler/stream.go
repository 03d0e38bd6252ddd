package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"nof0-arena/internal/svc"
	"nof0-arena/internal/types"
	"nof0-arena/pkg/streambus"
)

// streamLiveHandler handles GET /trade-stream/live?types=&agentIds=, an SSE
// stream: an initial "connected" event, then up to streambus.DefaultCatchupCap
// historical matching events, then live events; heartbeats every ~5s;
// closes on client disconnect (spec.md §6).
func streamLiveHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, fmt.Errorf("streaming unsupported"))
			return
		}

		filter := streambus.Filter{
			Types:    parseCSV(r, "types"),
			AgentIDs: parseCSV(r, "agentIds"),
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		writeSSEEvent(w, "connected", "", map[string]string{"status": "connected"})
		flusher.Flush()

		ctx := r.Context()
		sub := svcCtx.StreamBus.Subscribe(ctx, filter)
		defer sub.Unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case e, open := <-sub.Events:
				if !open {
					return
				}
				writeSSEEvent(w, string(e.Type), e.ID, e)
				flusher.Flush()
			case <-sub.Heartbeats:
				fmt.Fprintf(w, ": heartbeat %s\n\n", time.Now().UTC().Format(time.RFC3339))
				flusher.Flush()
			}
		}
	}
}

// writeSSEEvent renders one SSE frame: event: names the type, id: carries
// the event id (omitted when empty), data: carries the JSON payload.
func writeSSEEvent(w http.ResponseWriter, event, id string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logx.Errorf("handler: marshal sse payload: %v", err)
		return
	}
	fmt.Fprintf(w, "event: %s\n", event)
	if id != "" {
		fmt.Fprintf(w, "id: %s\n", id)
	}
	fmt.Fprintf(w, "data: %s\n\n", body)
}

// streamEventsHandler handles GET /trade-stream/events, the polling
// fallback: newest-first with filter, optionally restricted to events
// after the since timestamp.
func streamEventsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r, streambus.DefaultCatchupCap, 500)
		if err != nil {
			writeError(w, err)
			return
		}
		filter := streambus.Filter{
			Types:    parseCSV(r, "types"),
			AgentIDs: parseCSV(r, "agentId"),
		}

		var since time.Time
		if raw := r.URL.Query().Get("since"); raw != "" {
			since, err = time.Parse(time.RFC3339, raw)
			if err != nil {
				writeError(w, fmt.Errorf("invalid since timestamp: %w", err))
				return
			}
		}

		events := svcCtx.StreamBus.Snapshot(filter, limit)
		if !since.IsZero() {
			kept := events[:0:0]
			for _, e := range events {
				if e.Timestamp.After(since) {
					kept = append(kept, e)
				}
			}
			events = kept
		}
		writeJSON(w, http.StatusOK, types.EventsResponse{Events: events})
	}
}
