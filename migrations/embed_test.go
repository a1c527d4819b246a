package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpIsOrderedAndIdempotent(t *testing.T) {
	steps, err := Up()
	require.NoError(t, err)
	require.NotEmpty(t, steps)

	assert.Equal(t, "000001_create_credentials", steps[0].Name)
	for i := 1; i < len(steps); i++ {
		assert.Less(t, steps[i-1].Name, steps[i].Name)
	}
	for _, s := range steps {
		assert.Contains(t, s.SQL, "IF NOT EXISTS", s.Name)
	}
}
