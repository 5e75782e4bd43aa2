package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(RunStateChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event dispatches on the static type, so unwrap the interface first
	switch e := ev.(type) {
	case RunStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case RunDirectoryChangedEvent:
		event.Publish(b.dispatcher, e)
	case HistoryUpdatedEvent:
		event.Publish(b.dispatcher, e)
	case ProcessOutputEvent:
		event.Publish(b.dispatcher, e)
	case RunElapsedEvent:
		event.Publish(b.dispatcher, e)
	case SessionResetEvent:
		event.Publish(b.dispatcher, e)
	case StudyChangedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e RunStateChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(RunStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RunDirectoryChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(HistoryUpdatedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProcessOutputEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RunElapsedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SessionResetEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StudyChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}
