//go:build integration

// Package containers starts throwaway backends for integration tests. Each
// backend is started once per test binary and shared by every suite in it.
package containers

import (
	"sync"
	"testing"
)

// shared starts a backend on first use. A failed start is not cached, so the
// next caller retries and fails its own test.
type shared[T any] struct {
	mu  sync.Mutex
	val *T
}

func (s *shared[T]) get(t *testing.T, start func(*testing.T) *T) *T {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.val == nil {
		s.val = start(t)
	}
	return s.val
}

// Manager hands out the shared backends.
type Manager struct {
	postgres shared[PostgresContainer]
	kafka    shared[KafkaContainer]
}

var manager = sync.OnceValue(func() *Manager { return &Manager{} })

func GetManager() *Manager { return manager() }

// GetPostgres returns a migrated Postgres instance.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	return m.postgres.get(t, NewPostgresContainer)
}

// GetKafka returns a Kafka-protocol broker with topic auto-creation on.
func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	return m.kafka.get(t, NewKafkaContainer)
}
