package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/rodopt/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time event stream for run state, run directory, history and optimizer output",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"run-state-changed":     events.RunStateChangedEvent{},
		"run-directory-changed": events.RunDirectoryChangedEvent{},
		"history-updated":       events.HistoryUpdatedEvent{},
		"process-output":        events.ProcessOutputEvent{},
		"run-elapsed":           events.RunElapsedEvent{},
		"session-reset":         events.SessionResetEvent{},
		"study-changed":         events.StudyChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Output lines can arrive in bursts
		eventCh := make(chan any, 64)

		unsubscribe := events.SubscribeRunEvents(s.eventBus, eventCh)
		defer unsubscribe()

		// Send the current state first so clients do not wait for a transition
		if s.runs != nil {
			st := s.runs.Status()
			if err := send.Data(events.RunStateChangedEvent{
				SessionID: st.SessionID,
				State:     st.State.String(),
				Previous:  st.State.String(),
				Reason:    "connected",
				ExitCode:  st.ExitCode,
				Timestamp: time.Now().Format(time.RFC3339),
			}); err != nil {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
