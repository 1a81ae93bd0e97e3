package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	users "github.com/goliatone/go-users"
	"github.com/redis/go-redis/v9"
)

// Handler processes a single decoded event. Returning an error leaves the
// entry unacknowledged so the group redelivers it: handlers must be
// idempotent.
type Handler func(ctx context.Context, event users.UserEvent) error

// ConsumerConfig configures a group consumer.
type ConsumerConfig struct {
	Config

	// Group is the consumer group name. Defaults to "users:notify".
	Group string

	// Name identifies this consumer within the group.
	Name string

	// Block is how long each read blocks before rechecking the context.
	Block time.Duration
}

// Consumer reads user events through a Redis consumer group. Delivery is
// at-least-once: entries are acknowledged only after the handler succeeds.
type Consumer struct {
	client redis.UniversalClient
	stream string
	group  string
	name   string
	block  time.Duration
	logger users.Logger
}

// NewConsumer creates a group consumer.
func NewConsumer(cfg ConsumerConfig) *Consumer {
	cfg.Config = cfg.Config.withDefaults()

	if cfg.Group == "" {
		cfg.Group = "users:notify"
	}
	if cfg.Name == "" {
		cfg.Name = "consumer-1"
	}
	if cfg.Block <= 0 {
		cfg.Block = time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Consumer{
		client: cfg.Client,
		stream: cfg.Stream,
		group:  cfg.Group,
		name:   cfg.Name,
		block:  cfg.Block,
		logger: logger,
	}
}

// Run consumes events until ctx is done, invoking handler for each decoded
// event. It creates the group (and stream) on first use.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group,
			Consumer: c.name,
			Streams:  []string{c.stream, ">"},
			Count:    10,
			Block:    c.block,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read from stream %s: %w", c.stream, err)
		}

		for _, s := range streams {
			for _, message := range s.Messages {
				c.handleMessage(ctx, message, handler)
			}
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, message redis.XMessage, handler Handler) {
	data, ok := message.Values["data"].(string)
	if !ok {
		// malformed entry, ack so it never redelivers
		c.logger.Warn("discarding malformed stream entry %s", message.ID)
		c.ack(ctx, message.ID)
		return
	}

	var event users.UserEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		c.logger.Warn("discarding undecodable stream entry %s: %v", message.ID, err)
		c.ack(ctx, message.ID)
		return
	}

	if err := handler(ctx, event); err != nil {
		// leave unacked for redelivery
		c.logger.Error("handler failed for %s event %s: %v", event.EventType, event.EventID, err)
		return
	}

	c.ack(ctx, message.ID)
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, c.stream, c.group, id).Err(); err != nil {
		c.logger.Error("failed to ack stream entry %s: %v", id, err)
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s: %w", c.group, err)
	}
	return nil
}

// Close closes the underlying Redis connection.
func (c *Consumer) Close() error {
	return c.client.Close()
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
