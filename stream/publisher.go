// Package stream moves user lifecycle events over Redis Streams. Producers
// get best-effort publication, consumers get at-least-once delivery through
// a consumer group.
package stream

import (
	"context"
	"encoding/json"
	"fmt"

	users "github.com/goliatone/go-users"
	"github.com/redis/go-redis/v9"
)

const defaultStream = "users:events"

// Config contains shared options for publishers and consumers.
type Config struct {
	// Client is the Redis client to use. If nil, a default localhost client
	// is created.
	Client redis.UniversalClient

	// Stream is the stream key. Defaults to "users:events".
	Stream string

	Logger users.Logger
}

func (c Config) withDefaults() Config {
	if c.Client == nil {
		c.Client = redis.NewClient(&redis.Options{
			Addr: "localhost:6379",
		})
	}
	if c.Stream == "" {
		c.Stream = defaultStream
	}
	return c
}

// Publisher appends user events to a Redis stream. Entries carry the subject
// user id alongside the JSON body so consumers can shard or filter without
// decoding.
type Publisher struct {
	client redis.UniversalClient
	stream string
}

// NewPublisher creates a stream publisher.
func NewPublisher(cfg Config) *Publisher {
	cfg = cfg.withDefaults()
	return &Publisher{
		client: cfg.Client,
		stream: cfg.Stream,
	}
}

// Publish appends the event to the stream.
func (p *Publisher) Publish(ctx context.Context, event users.UserEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.EventType, err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"key":  event.UserID.String(),
			"data": data,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}

	return nil
}

// Close closes the underlying Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}

var _ users.EventPublisher = (*Publisher)(nil)
