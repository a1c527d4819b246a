package store

import (
	"context"
	"sync"
	"time"

	"trustscore/internal/issuance/models"
	"trustscore/pkg/domain"
)

// InMemoryStore is the single-instance fallback when Redis is not configured.
// Entries are evicted lazily on Find and in bulk by DeleteExpired.
type InMemoryStore struct {
	mu     sync.Mutex
	drafts map[domain.CredentialID]memoryEntry
	clock  func() time.Time
}

type memoryEntry struct {
	draft   *models.Draft
	evictAt time.Time
}

func NewInMemory() *InMemoryStore {
	return NewInMemoryWithClock(time.Now)
}

// NewInMemoryWithClock lets tests control eviction time.
func NewInMemoryWithClock(clock func() time.Time) *InMemoryStore {
	return &InMemoryStore{
		drafts: make(map[domain.CredentialID]memoryEntry),
		clock:  clock,
	}
}

func (s *InMemoryStore) Save(_ context.Context, d *models.Draft, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	if e, ok := s.drafts[d.ID()]; ok && now.Before(e.evictAt) {
		return ErrConflict
	}
	s.drafts[d.ID()] = memoryEntry{draft: d.Clone(), evictAt: now.Add(ttl)}
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, id domain.CredentialID) (*models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.drafts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !s.clock().Before(e.evictAt) {
		delete(s.drafts, id)
		return nil, ErrNotFound
	}
	return e.draft.Clone(), nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.CredentialID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
	return nil
}

// DeleteExpired evicts every draft whose TTL has elapsed and returns how many were removed.
func (s *InMemoryStore) DeleteExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	removed := 0
	for id, e := range s.drafts {
		if !now.Before(e.evictAt) {
			delete(s.drafts, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored drafts, including ones not yet evicted.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}
