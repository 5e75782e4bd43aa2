package api

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/rodopt/internal/events"
)

func openStream(t *testing.T, url string) <-chan string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("Failed to connect to SSE: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("Expected SSE content type, got %s", resp.Header.Get("Content-Type"))
	}

	messages := make(chan string, 32)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data:") {
				messages <- line
			}
		}
		close(messages)
	}()
	return messages
}

func nextMessage(t *testing.T, messages <-chan string) string {
	t.Helper()
	select {
	case msg, ok := <-messages:
		if !ok {
			t.Fatal("SSE stream closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for SSE message")
	}
	return ""
}

func TestSSEConnectionAndEvents(t *testing.T) {
	bus := events.New()
	ts := newTestServer(t, newMockRunController(), func(o *Options) {
		o.AuthUsername = "test"
		o.AuthPassword = "test"
		o.EventBus = bus
	})

	credentials := base64.StdEncoding.EncodeToString([]byte("test:test"))
	messages := openStream(t, fmt.Sprintf("%s/api/events?auth=%s", ts.URL, credentials))

	// Initial state snapshot
	msg := nextMessage(t, messages)
	if !strings.Contains(msg, `"state":"stopped"`) || !strings.Contains(msg, `"reason":"connected"`) {
		t.Errorf("Expected initial state message, got: %s", msg)
	}

	bus.Publish(events.RunDirectoryChangedEvent{
		SessionID: "session-1",
		Path:      "/work/run-Study1-1",
		Timestamp: time.Now().Format(time.RFC3339),
	})
	msg = nextMessage(t, messages)
	if !strings.Contains(msg, "run-Study1-1") {
		t.Errorf("Expected run directory event, got: %s", msg)
	}

	bus.Publish(events.ProcessOutputEvent{
		SessionID: "session-1",
		Source:    "stderr",
		Line:      "iteration 12",
		Timestamp: time.Now().Format(time.RFC3339),
	})
	msg = nextMessage(t, messages)
	if !strings.Contains(msg, "iteration 12") {
		t.Errorf("Expected process output event, got: %s", msg)
	}
}

func TestSSERequiresAuth(t *testing.T) {
	ts := newTestServer(t, newMockRunController(), func(o *Options) {
		o.AuthUsername = "test"
		o.AuthPassword = "test"
	})

	resp, err := http.Get(ts.URL + "/api/events")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}

func TestLogStreamForwardsEntries(t *testing.T) {
	bus := events.New()
	ts := newTestServer(t, newMockRunController(), func(o *Options) { o.EventBus = bus })

	// Headers may not be flushed before the first entry, so publish in the background
	done := make(chan struct{})
	defer close(done)
	go func() {
		tick := time.NewTicker(20 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				bus.Publish(events.LogEntryEvent{
					Timestamp: time.Now().Format(time.RFC3339Nano),
					Level:     "INFO",
					Module:    "supervisor",
					Message:   "history reloaded",
				})
			}
		}
	}()

	messages := openStream(t, ts.URL+"/api/logs/stream")
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				t.Fatal("SSE stream closed")
			}
			if strings.Contains(msg, "history reloaded") {
				return
			}
		case <-deadline:
			t.Fatal("Timeout waiting for log entry")
		}
	}
}

func TestLogStreamModuleFilter(t *testing.T) {
	bus := events.New()
	ts := newTestServer(t, newMockRunController(), func(o *Options) { o.EventBus = bus })

	done := make(chan struct{})
	defer close(done)
	go func() {
		tick := time.NewTicker(20 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				bus.Publish(events.LogEntryEvent{Module: "http", Message: "request"})
				bus.Publish(events.LogEntryEvent{Module: "history", Message: "rows parsed"})
			}
		}
	}()

	messages := openStream(t, ts.URL+"/api/logs/stream?tail=0&module=history")
	for range 3 {
		msg := nextMessage(t, messages)
		if !strings.Contains(msg, `"module":"history"`) {
			t.Fatalf("Unexpected module in filtered stream: %s", msg)
		}
	}
}
