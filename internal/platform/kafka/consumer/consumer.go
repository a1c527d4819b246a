package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message represents a received Kafka message.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Handler processes consumed messages.
type Handler interface {
	// Handle processes a message. A returned error is treated as transient:
	// the message is retried and its offset is not committed. Handlers that
	// want to drop a message must return nil.
	Handle(ctx context.Context, msg *Message) error
}

// Config holds consumer configuration.
type Config struct {
	Brokers         string
	GroupID         string
	Topics          []string
	AutoOffsetReset string
	// RetryBackoff is the pause between attempts at a failing message.
	RetryBackoff time.Duration
}

// Consumer is an at-least-once group consumer. Offsets are committed only
// after the handler succeeds, and a failing message blocks its partition
// until it succeeds or the consumer stops.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
	backoff time.Duration

	mu     sync.RWMutex
	closed bool
}

// New creates a new Kafka consumer.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if cfg.Brokers == "" {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("kafka consumer group ID not configured")
	}
	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("kafka consumer topics not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}

	offset := kgo.NewOffset().AtStart()
	if cfg.AutoOffsetReset == "latest" {
		offset = kgo.NewOffset().AtEnd()
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(cfg.Brokers, ",")...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.ConsumeResetOffset(offset),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}

	return &Consumer{
		client:  client,
		handler: handler,
		logger:  logger,
		backoff: backoff,
	}, nil
}

// Run consumes until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.logger.Error("kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var handled []*kgo.Record
		fetches.EachRecord(func(r *kgo.Record) {
			if ctx.Err() != nil {
				return
			}
			if c.handleWithRetry(ctx, r) {
				handled = append(handled, r)
			}
		})

		if len(handled) > 0 {
			if err := c.client.CommitRecords(context.WithoutCancel(ctx), handled...); err != nil {
				c.logger.Error("failed to commit offsets", "error", err, "records", len(handled))
			}
		}
	}
}

// handleWithRetry returns false only when ctx ends before the message succeeds.
func (c *Consumer) handleWithRetry(ctx context.Context, r *kgo.Record) bool {
	msg := toMessage(r)
	for attempt := 1; ; attempt++ {
		err := c.handler.Handle(ctx, msg)
		if err == nil {
			return true
		}
		c.logger.Error("failed to handle message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"attempt", attempt,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.backoff):
		}
	}
}

func toMessage(r *kgo.Record) *Message {
	headers := make(map[string]string, len(r.Headers))
	for _, h := range r.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       r.Key,
		Value:     r.Value,
		Headers:   headers,
		Timestamp: r.Timestamp,
	}
}

// Close leaves the group and shuts down the client. Run returns afterwards.
func (c *Consumer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.client.Close()
}

// Health pings the brokers.
func (c *Consumer) Health(ctx context.Context) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return fmt.Errorf("consumer is closed")
	}
	return c.client.Ping(ctx)
}
