package mocks

import (
	"sync"

	"github.com/mcoot/sketchguess/internal/model"
)

// Published is a single recorded publish
type Published struct {
	Topic string
	Event model.Event
}

// RecordingBroadcaster captures every published event for assertions
type RecordingBroadcaster struct {
	mu        sync.Mutex
	published []Published
}

// NewRecordingBroadcaster creates an empty RecordingBroadcaster
func NewRecordingBroadcaster() *RecordingBroadcaster {
	return &RecordingBroadcaster{}
}

// Publish records the event
func (b *RecordingBroadcaster) Publish(topic string, event model.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, Published{Topic: topic, Event: event})
}

// All returns a copy of everything published so far
func (b *RecordingBroadcaster) All() []Published {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Published, len(b.published))
	copy(out, b.published)
	return out
}

// OfType returns the events of one type published to a topic, in order
func (b *RecordingBroadcaster) OfType(topic string, eventType model.EventType) []model.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []model.Event
	for _, p := range b.published {
		if p.Topic == topic && p.Event.Type == eventType {
			out = append(out, p.Event)
		}
	}
	return out
}

// Last returns the most recent event of a type on a topic
func (b *RecordingBroadcaster) Last(topic string, eventType model.EventType) (model.Event, bool) {
	events := b.OfType(topic, eventType)
	if len(events) == 0 {
		return model.Event{}, false
	}
	return events[len(events)-1], true
}

// Reset discards everything recorded
func (b *RecordingBroadcaster) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}
