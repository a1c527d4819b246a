package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustscore/internal/platform/config"
)

func TestNewWithoutURLFallsBack(t *testing.T) {
	pool, err := New(context.Background(), config.DatabaseConfig{})
	require.NoError(t, err)
	assert.Nil(t, pool)

	assert.ErrorIs(t, pool.Health(context.Background()), errNotConfigured)
	assert.NoError(t, pool.Close())
}
