package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/rodopt/internal/analysis"
	"github.com/smazurov/rodopt/internal/history"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan RunStateChangedEvent, 1)

	unsub := bus.Subscribe(func(e RunStateChangedEvent) {
		received <- e
	})
	defer unsub()

	event := RunStateChangedEvent{
		SessionID: "s1",
		State:     "running",
		Previous:  "stopped",
		Timestamp: "2025-01-27T10:30:00Z",
	}
	bus.Publish(event)

	got := <-received
	if got.State != event.State || got.SessionID != event.SessionID {
		t.Errorf("Expected %+v, got %+v", event, got)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan RunDirectoryChangedEvent, 1)
	received2 := make(chan RunDirectoryChangedEvent, 1)

	unsub1 := bus.Subscribe(func(e RunDirectoryChangedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e RunDirectoryChangedEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(RunDirectoryChangedEvent{Path: "/work/run-S"})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan ProcessOutputEvent, 1)

	unsub := bus.Subscribe(func(e ProcessOutputEvent) {
		received <- e
	})

	bus.Publish(ProcessOutputEvent{Line: "first"})
	<-received

	unsub()

	bus.Publish(ProcessOutputEvent{Line: "second"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	stateReceived := make(chan bool, 1)
	resetReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ RunStateChangedEvent) {
		stateReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ SessionResetEvent) {
		resetReceived <- true
	})
	defer unsub2()

	bus.Publish(RunStateChangedEvent{State: "paused"})
	<-stateReceived

	select {
	case <-resetReceived:
		t.Fatal("Reset subscriber should NOT have received RunStateChangedEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}

	bus.Publish(SessionResetEvent{SessionID: "s2"})
	<-resetReceived

	select {
	case <-stateReceived:
		t.Fatal("State subscriber should NOT have received SessionResetEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ ProcessOutputEvent) {
		receivedCh <- true
	})
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(ProcessOutputEvent{
					Source:    "stdout",
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestBus_AllEventTypes(t *testing.T) {
	bus := New()

	tests := []struct {
		name  string
		event Event
	}{
		{"RunStateChanged", RunStateChangedEvent{State: "running"}},
		{"RunDirectoryChanged", RunDirectoryChangedEvent{Path: "/w"}},
		{"HistoryUpdated", HistoryUpdatedEvent{SessionID: "s"}},
		{"ProcessOutput", ProcessOutputEvent{Line: "x"}},
		{"RunElapsed", RunElapsedEvent{Seconds: 1}},
		{"SessionReset", SessionResetEvent{SessionID: "s"}},
		{"StudyChanged", StudyChangedEvent{Name: "S"}},
		{"LogEntry", LogEntryEvent{Message: "m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(_ *testing.T) {
			received := make(chan Event, 1)

			var unsub func()
			switch tt.event.(type) {
			case RunStateChangedEvent:
				unsub = bus.Subscribe(func(e RunStateChangedEvent) { received <- e })
			case RunDirectoryChangedEvent:
				unsub = bus.Subscribe(func(e RunDirectoryChangedEvent) { received <- e })
			case HistoryUpdatedEvent:
				unsub = bus.Subscribe(func(e HistoryUpdatedEvent) { received <- e })
			case ProcessOutputEvent:
				unsub = bus.Subscribe(func(e ProcessOutputEvent) { received <- e })
			case RunElapsedEvent:
				unsub = bus.Subscribe(func(e RunElapsedEvent) { received <- e })
			case SessionResetEvent:
				unsub = bus.Subscribe(func(e SessionResetEvent) { received <- e })
			case StudyChangedEvent:
				unsub = bus.Subscribe(func(e StudyChangedEvent) { received <- e })
			case LogEntryEvent:
				unsub = bus.Subscribe(func(e LogEntryEvent) { received <- e })
			}
			defer unsub()

			bus.Publish(tt.event)
			<-received
		})
	}
}

func TestBus_UnknownHandler(_ *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestEventJSONSerialization(t *testing.T) {
	best := 0
	code := 3
	tests := []struct {
		name  string
		event any
	}{
		{
			"RunStateChangedEvent",
			RunStateChangedEvent{
				SessionID: "s1",
				State:     "stopped",
				Previous:  "running",
				Reason:    "exited",
				ExitCode:  &code,
				Timestamp: "2025-01-27T10:30:00Z",
			},
		},
		{
			"HistoryUpdatedEvent",
			HistoryUpdatedEvent{
				SessionID: "s1",
				Snapshot: &history.Snapshot{
					Header: []string{"x", "f", "feasible"},
					Rows:   [][]string{{"1", "2", "1.0"}},
				},
				Analysis:       analysis.Result{Feasible: []bool{true}, Best: &best, Pareto: []int{}},
				VisibleColumns: []int{1},
				Timestamp:      "2025-01-27T10:30:00Z",
			},
		},
		{
			"RunElapsedEvent",
			RunElapsedEvent{SessionID: "s1", State: "paused", Seconds: 75, Formatted: "1m 15s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("Failed to marshal: %v", err)
			}

			var result map[string]any
			if unmarshalErr := json.Unmarshal(data, &result); unmarshalErr != nil {
				t.Fatalf("Failed to unmarshal: %v", unmarshalErr)
			}

			if len(result) == 0 {
				t.Fatal("Unmarshaled to empty object")
			}
		})
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 10)

	unsub := SubscribeToChannel[RunDirectoryChangedEvent](bus, ch)
	defer unsub()

	event := RunDirectoryChangedEvent{SessionID: "s", Path: "/work/run-S-1"}
	bus.Publish(event)

	received := <-ch
	dirEvent, ok := received.(RunDirectoryChangedEvent)
	if !ok {
		t.Fatalf("Expected RunDirectoryChangedEvent, got %T", received)
	}
	if dirEvent.Path != event.Path {
		t.Errorf("Expected path %s, got %s", event.Path, dirEvent.Path)
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any) // No buffer

	unsub := SubscribeToChannel[ProcessOutputEvent](bus, ch)
	defer unsub()

	done := make(chan bool, 1)
	go func() {
		bus.Publish(ProcessOutputEvent{Line: "x"})
		done <- true
	}()

	<-done // Should complete without blocking
}

func TestSubscribeRunEvents(t *testing.T) {
	bus := New()
	ch := make(chan any, 16)

	unsub := SubscribeRunEvents(bus, ch)

	published := []Event{
		RunStateChangedEvent{State: "running", Previous: "stopped"},
		RunDirectoryChangedEvent{Path: "/work/run-S-1"},
		HistoryUpdatedEvent{SessionID: "s"},
		ProcessOutputEvent{Line: "x"},
		RunElapsedEvent{Seconds: 1},
		SessionResetEvent{SessionID: "s"},
		StudyChangedEvent{Name: "S"},
		LogEntryEvent{Message: "not a run event"},
	}
	for _, ev := range published {
		bus.Publish(ev)
	}

	seen := make(map[string]bool)
	timeout := time.After(time.Second)
	for len(seen) < len(published)-1 {
		select {
		case ev := <-ch:
			if _, isLog := ev.(LogEntryEvent); isLog {
				t.Fatal("Log entries must not be forwarded")
			}
			seen[fmt.Sprintf("%T", ev)] = true
		case <-timeout:
			t.Fatalf("Received %d of %d run events", len(seen), len(published)-1)
		}
	}

	unsub()
	bus.Publish(RunElapsedEvent{Seconds: 2})
	select {
	case ev := <-ch:
		t.Errorf("Received %T after unsubscribe", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
