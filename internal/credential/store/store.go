// Package store persists credential records.
//
// Error Contract:
// - Track returns sentinel.ErrConflict when the id already exists
// - FindByID and Revoke return sentinel.ErrNotFound for unknown ids
// - Revoke returns sentinel.ErrInvalidState (with the stored record) when already revoked
// - Infrastructure failures are wrapped with context
//
// Stores never delete records and never write expiry; expired and revoked
// credentials remain visible to ListBySubject for audit.
package store

import (
	"context"
	"time"

	"trustscore/internal/credential/models"
	"trustscore/pkg/domain"
)

type Store interface {
	Track(ctx context.Context, c *models.Credential) error
	FindByID(ctx context.Context, id domain.CredentialID) (*models.Credential, error)
	ListBySubject(ctx context.Context, subject domain.SubjectID) ([]*models.Credential, error)
	Revoke(ctx context.Context, id domain.CredentialID, revokedAt time.Time, reason string) (*models.Credential, error)
	Stats(ctx context.Context, now time.Time) (models.Stats, error)
}
