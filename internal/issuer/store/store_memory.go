package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"trustscore/internal/issuer/models"
	"trustscore/pkg/domain"
	"trustscore/pkg/platform/sentinel"
)

// InMemoryStore keeps issuer records in process.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.IssuerID]*models.Record
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.IssuerID]*models.Record)}
}

func (s *InMemoryStore) Create(_ context.Context, r *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[r.Address]; exists {
		return sentinel.ErrConflict
	}
	s.records[r.Address] = r.Clone()
	return nil
}

func (s *InMemoryStore) FindByAddress(_ context.Context, address domain.IssuerID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[address]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

// List returns all records ordered by address.
func (s *InMemoryStore) List(_ context.Context) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Record) int {
		return strings.Compare(string(a.Address), string(b.Address))
	})
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, r *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[r.Address]; !exists {
		return sentinel.ErrNotFound
	}
	s.records[r.Address] = r.Clone()
	return nil
}
