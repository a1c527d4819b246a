package store

import (
	"context"
	"time"

	"trustscore/internal/issuance/models"
	"trustscore/pkg/domain"
	"trustscore/pkg/platform/sentinel"
)

// Sentinel errors for pending draft stores.
var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)

// Store keeps issuance drafts until they are submitted or their TTL elapses.
type Store interface {
	// Save stores d for ttl. Returns ErrConflict if a draft with the same id exists.
	Save(ctx context.Context, d *models.Draft, ttl time.Duration) error
	// Find returns ErrNotFound for unknown or evicted drafts.
	Find(ctx context.Context, id domain.CredentialID) (*models.Draft, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id domain.CredentialID) error
}
