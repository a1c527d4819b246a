package store

import (
	"context"
	"sync"
	"time"

	"trustscore/internal/credential/models"
	"trustscore/pkg/domain"
	"trustscore/pkg/platform/sentinel"
)

// InMemoryStore keeps credentials in process, indexed by id and by subject.
type InMemoryStore struct {
	mu        sync.RWMutex
	byID      map[domain.CredentialID]*models.Credential
	bySubject map[domain.SubjectID][]domain.CredentialID
}

// NewInMemory constructs an empty in-memory credential store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:      make(map[domain.CredentialID]*models.Credential),
		bySubject: make(map[domain.SubjectID][]domain.CredentialID),
	}
}

func (s *InMemoryStore) Track(_ context.Context, c *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.byID[c.ID] = c.Clone()
	s.bySubject[c.Subject] = append(s.bySubject[c.Subject], c.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.CredentialID) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

// ListBySubject returns every record for subject, in tracking order, as one
// consistent snapshot.
func (s *InMemoryStore) ListBySubject(_ context.Context, subject domain.SubjectID) ([]*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.bySubject[subject]
	out := make([]*models.Credential, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id].Clone())
	}
	return out, nil
}

func (s *InMemoryStore) Revoke(_ context.Context, id domain.CredentialID, revokedAt time.Time, reason string) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if c.IsRevoked() {
		return c.Clone(), sentinel.ErrInvalidState
	}
	t := revokedAt
	c.RevokedAt = &t
	c.RevocationReason = reason
	return c.Clone(), nil
}

func (s *InMemoryStore) Stats(_ context.Context, now time.Time) (models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats models.Stats
	for _, c := range s.byID {
		stats.Count(*c, now)
	}
	stats.DistinctSubjects = len(s.bySubject)
	return stats, nil
}
