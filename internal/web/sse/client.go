package sse

import (
	"net/http"
	"sync"
	"time"

	"github.com/mcoot/sketchguess/internal/model"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client represents a connected SSE client. One client may be
// registered with several hubs; messages from all of them share send.
type Client struct {
	playerID    model.PlayerID
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	connectedAt time.Time
}

// NewClient creates a new SSE client
func NewClient(playerID model.PlayerID) *Client {
	return &Client{
		playerID:    playerID,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
	}
}

// deliver queues a message without blocking. Returns false if it was dropped.
func (c *Client) deliver(message []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Messages returns the channel of formatted SSE messages for this client
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// Done is closed when a hub the client is registered with shuts down
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ServeSSE streams every event published to topics until the request ends
func ServeSSE(w http.ResponseWriter, r *http.Request, manager *HubManager, playerID model.PlayerID, topics []string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := NewClient(playerID)
	hubs := make([]*Hub, 0, len(topics))
	for _, topic := range topics {
		hubs = append(hubs, manager.Subscribe(topic, client))
	}
	defer func() {
		for _, hub := range hubs {
			manager.Unsubscribe(hub, client)
		}
	}()

	_, _ = w.Write([]byte("event: connected\ndata: {\"status\":\"connected\"}\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-client.send:
			if _, err := w.Write(message); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-client.done:
			return

		case <-r.Context().Done():
			return
		}
	}
}
