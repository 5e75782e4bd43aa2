package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T to ch for select-loop
// consumers such as SSE handlers. Events are dropped when ch is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// SubscribeRunEvents forwards every run-related event to ch. Log entries
// are not included.
func SubscribeRunEvents(bus *Bus, ch chan<- any) func() {
	unsubs := []func(){
		SubscribeToChannel[RunStateChangedEvent](bus, ch),
		SubscribeToChannel[RunDirectoryChangedEvent](bus, ch),
		SubscribeToChannel[HistoryUpdatedEvent](bus, ch),
		SubscribeToChannel[ProcessOutputEvent](bus, ch),
		SubscribeToChannel[RunElapsedEvent](bus, ch),
		SubscribeToChannel[SessionResetEvent](bus, ch),
		SubscribeToChannel[StudyChangedEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
