package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/sketchguess/internal/model"
)

// DefaultChannelPrefix namespaces pub/sub channels
const DefaultChannelPrefix = "sketchguess"

const (
	publishTimeout = 2 * time.Second

	// Events waiting for the publish goroutine
	publishQueueSize = 1024
)

// RedisPublisher publishes events as JSON over Redis pub/sub so gateways in
// other processes can relay them to their own connections. Publish only
// queues; a single goroutine talks to Redis.
type RedisPublisher struct {
	client *redis.Client
	prefix string
	logger *slog.Logger

	queue  chan outbound
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type outbound struct {
	topic string
	data  []byte
}

// NewRedisPublisher creates a publisher on an existing client and starts its
// publish goroutine. Call Close to stop it.
func NewRedisPublisher(client *redis.Client, prefix string, logger *slog.Logger) *RedisPublisher {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &RedisPublisher{
		client: client,
		prefix: prefix,
		logger: logger.With(slog.String("component", "redis-publisher")),
		queue:  make(chan outbound, publishQueueSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Ensure RedisPublisher implements Broadcaster
var _ Broadcaster = (*RedisPublisher)(nil)

// Channel returns the Redis channel name for a topic
func (p *RedisPublisher) Channel(topic string) string {
	return fmt.Sprintf("%s:%s", p.prefix, topic)
}

// Publish marshals the event and queues it for the topic's channel.
// It never waits on Redis: a full queue drops the event.
func (p *RedisPublisher) Publish(topic string, event model.Event) {
	if p.ctx.Err() != nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event",
			slog.String("topic", topic),
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return
	}

	select {
	case p.queue <- outbound{topic: topic, data: data}:
	default:
		p.logger.Warn("redis publish dropped - queue full",
			slog.String("topic", topic),
			slog.String("type", string(event.Type)))
	}
}

func (p *RedisPublisher) run() {
	defer close(p.done)
	for {
		select {
		case msg := <-p.queue:
			p.send(msg)
		case <-p.ctx.Done():
			if n := len(p.queue); n > 0 {
				p.logger.Warn("redis publisher stopped with queued events", slog.Int("dropped", n))
			}
			return
		}
	}
}

func (p *RedisPublisher) send(msg outbound) {
	ctx, cancel := context.WithTimeout(p.ctx, publishTimeout)
	defer cancel()

	if err := p.client.Publish(ctx, p.Channel(msg.topic), msg.data).Err(); err != nil {
		p.logger.Warn("redis publish failed",
			slog.String("topic", msg.topic),
			slog.Any("error", err))
	}
}

// Close stops the publish goroutine and waits for it to exit.
// Queued events are dropped. The client stays open.
func (p *RedisPublisher) Close() error {
	p.cancel()
	<-p.done
	return nil
}
