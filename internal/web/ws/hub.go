package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mcoot/sketchguess/internal/broadcast"
	"github.com/mcoot/sketchguess/internal/model"
)

// Hub routes published events to the websocket connections subscribed to each topic
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*conn]struct{}
	logger *slog.Logger
}

var _ broadcast.Broadcaster = (*Hub)(nil)

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[*conn]struct{}),
		logger: logger.With(slog.String("component", "ws")),
	}
}

func (h *Hub) subscribe(c *conn, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range topics {
		subs, ok := h.topics[topic]
		if !ok {
			subs = make(map[*conn]struct{})
			h.topics[topic] = subs
		}
		subs[c] = struct{}{}
	}
}

// unsubscribe drops a connection from every topic. It reports how many other
// sockets the same player still has open on the same room.
func (h *Hub) unsubscribe(c *conn) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, subs := range h.topics {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}

	siblings := 0
	for other := range h.topics[model.RoomTopic(c.roomID)] {
		if other.playerID == c.playerID {
			siblings++
		}
	}
	return siblings
}

// Subscribers returns the number of connections listening on a topic
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Publish queues the event on every subscribed connection. Slow connections drop it.
func (h *Hub) Publish(topic string, event model.Event) {
	h.mu.RLock()
	subs := make([]*conn, 0, len(h.topics[topic]))
	for c := range h.topics[topic] {
		subs = append(subs, c)
	}
	h.mu.RUnlock()
	if len(subs) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("ws failed to encode event",
			slog.String("topic", topic),
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return
	}
	for _, c := range subs {
		if !c.enqueue(data) {
			h.logger.Warn("ws message dropped - client buffer full",
				slog.String("player_id", string(c.playerID)))
		}
	}
}
