package store

import (
	"context"

	"trustscore/internal/issuer/models"
	"trustscore/pkg/domain"
)

// Store persists issuer records.
//
// Error Contract:
//   - Create returns sentinel.ErrConflict when the address is already registered.
//   - FindByAddress and Update return sentinel.ErrNotFound for unknown addresses.
type Store interface {
	Create(ctx context.Context, r *models.Record) error
	FindByAddress(ctx context.Context, address domain.IssuerID) (*models.Record, error)
	List(ctx context.Context) ([]*models.Record, error)
	Update(ctx context.Context, r *models.Record) error
}
