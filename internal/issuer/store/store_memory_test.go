package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustscore/internal/credential/catalog"
	"trustscore/internal/issuer/models"
	"trustscore/pkg/domain"
	"trustscore/pkg/platform/sentinel"
)

func newRecord(t *testing.T, address domain.IssuerID, types ...catalog.Type) *models.Record {
	t.Helper()
	r, err := models.NewRecord(address, "Issuer", 50, types, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return r
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	r := newRecord(t, "did:key:zB", catalog.Employment)

	require.NoError(t, s.Create(ctx, r))
	assert.ErrorIs(t, s.Create(ctx, r), sentinel.ErrConflict)

	t.Run("returned records are copies", func(t *testing.T) {
		got, err := s.FindByAddress(ctx, r.Address)
		require.NoError(t, err)
		got.Types = append(got.Types, catalog.CexHistory)
		again, err := s.FindByAddress(ctx, r.Address)
		require.NoError(t, err)
		assert.Equal(t, []catalog.Type{catalog.Employment}, again.Types)
	})

	t.Run("update persists", func(t *testing.T) {
		r.Authorize([]catalog.Type{catalog.CexHistory}, r.UpdatedAt)
		require.NoError(t, r.Deactivate(r.UpdatedAt))
		require.NoError(t, s.Update(ctx, r))
		got, err := s.FindByAddress(ctx, r.Address)
		require.NoError(t, err)
		assert.False(t, got.Active)
		assert.Len(t, got.Types, 2)
	})

	t.Run("unknown address", func(t *testing.T) {
		_, err := s.FindByAddress(ctx, "did:key:zMissing")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, s.Update(ctx, newRecord(t, "did:key:zMissing")), sentinel.ErrNotFound)
	})

	t.Run("list is ordered by address", func(t *testing.T) {
		require.NoError(t, s.Create(ctx, newRecord(t, "did:key:zA")))
		all, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, domain.IssuerID("did:key:zA"), all[0].Address)
	})
}
