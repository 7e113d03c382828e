package broadcast

import (
	"github.com/mcoot/sketchguess/internal/model"
)

// Broadcaster fans events out to subscribers of a topic.
// Delivery is best-effort and at-most-once; ordering is only kept within a topic.
type Broadcaster interface {
	Publish(topic string, event model.Event)
}

// Fanout publishes every event to each of its broadcasters in turn
type Fanout []Broadcaster

// Ensure Fanout implements Broadcaster
var _ Broadcaster = Fanout(nil)

// Publish forwards the event to every wrapped broadcaster
func (f Fanout) Publish(topic string, event model.Event) {
	for _, b := range f {
		b.Publish(topic, event)
	}
}

// Nop discards every event
type Nop struct{}

// Publish does nothing
func (Nop) Publish(string, model.Event) {}
