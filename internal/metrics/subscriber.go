package metrics

import (
	"github.com/smazurov/rodopt/internal/events"
)

// Attach keeps the metrics in sync with run events published on bus.
// The returned function detaches all subscriptions.
func Attach(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.RunStateChangedEvent) {
			SetRunState(e.State)
			if e.Previous == "stopped" && e.State == "running" {
				RecordStart()
			}
			if e.State == "stopped" {
				RecordStop(e.Reason)
			}
		}),
		bus.Subscribe(func(e events.RunElapsedEvent) {
			SetElapsed(e.Seconds)
		}),
		bus.Subscribe(func(e events.ProcessOutputEvent) {
			RecordOutputLine(e.Source)
		}),
		bus.Subscribe(func(e events.HistoryUpdatedEvent) {
			optimal := len(e.Analysis.Pareto)
			if e.Analysis.Best != nil {
				optimal = 1
			}
			SetHistory(e.Snapshot.Len(), e.Analysis.FeasibleCount, optimal)
		}),
		bus.Subscribe(func(_ events.SessionResetEvent) {
			SetHistory(0, 0, 0)
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
