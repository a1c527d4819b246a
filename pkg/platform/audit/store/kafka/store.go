// Package kafka streams audit events to a Kafka topic as JSON.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	audit "trustscore/pkg/platform/audit"
)

// Producer is the subset of the platform producer the sink needs.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Store publishes each audit event, keyed by subject so one subject's trail
// stays ordered within a partition.
type Store struct {
	producer Producer
	topic    string
}

func New(producer Producer, topic string) *Store {
	return &Store{producer: producer, topic: topic}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	key := event.Subject
	if key == "" {
		key = event.CredentialID
	}
	headers := map[string]string{
		"action":   event.Action,
		"category": string(event.Category),
	}
	if err := s.producer.Produce(ctx, s.topic, []byte(key), value, headers); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}
