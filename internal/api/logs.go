package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/rodopt/internal/events"
	"github.com/smazurov/rodopt/internal/logging"
)

type logStreamInput struct {
	Tail   int    `query:"tail" minimum:"0" default:"200" doc:"Number of buffered entries to replay first, 0 for none"`
	Module string `query:"module" example:"supervisor" doc:"Only stream entries of this module"`
	Since  uint64 `query:"since" doc:"Replay buffered entries after this sequence number instead of the tail"`
}

func logEvent(entry logging.LogEntry) events.LogEntryEvent {
	return events.LogEntryEvent{
		Seq:        entry.Seq,
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}

// registerLogRoutes registers the application log SSE endpoint.
func (s *Server) registerLogRoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Application logs via Server-Sent Events. Replays the most recent buffered entries, then streams new ones.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, input *logStreamInput, send sse.Sender) {
		keep := func(module string) bool {
			return input.Module == "" || input.Module == module
		}

		var replayed uint64
		if buffer := logging.GetBuffer(); buffer != nil {
			var backlog []logging.LogEntry
			switch {
			case input.Since > 0:
				backlog = buffer.Since(input.Since)
			case input.Tail > 0:
				backlog = buffer.Tail(input.Tail)
			}
			for _, entry := range backlog {
				replayed = entry.Seq
				if !keep(entry.Module) {
					continue
				}
				if err := send.Data(logEvent(entry)); err != nil {
					return
				}
			}
		}

		eventCh := make(chan any, 100)
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if entry, ok := event.(events.LogEntryEvent); ok {
					if !keep(entry.Module) || (entry.Seq != 0 && entry.Seq <= replayed) {
						continue
					}
				}
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
