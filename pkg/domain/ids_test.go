package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "trustscore/pkg/domain-errors"
)

// TestParseCredentialID_Invariants validates the parsing invariant:
// "credential IDs are vc_-prefixed UUIDs"
func TestParseCredentialID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseCredentialID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := ParseCredentialID("3f1c0e2a-4a5b-4c2d-9e8f-0a1b2c3d4e5f")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid uuid", func(t *testing.T) {
		_, err := ParseCredentialID("vc_not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts generated id", func(t *testing.T) {
		generated := NewCredentialID()
		id, err := ParseCredentialID(generated.String())
		require.NoError(t, err)
		assert.Equal(t, generated, id)
	})
}

func TestParseSubjectID(t *testing.T) {
	valid := []string{
		"did:key:z6Mkod5Jr3yd5SC7UDueqK4dAAw5xYJYjksy722tA9Boxc4z",
		"did:web:example.com",
		"did:pkh:eip155:1:0xab16a96d359ec26a11e2c2b3d8f8b8942d5bfcdb",
		"did:example:user%20one",
	}
	for _, s := range valid {
		t.Run("accepts "+s, func(t *testing.T) {
			id, err := ParseSubjectID(s)
			require.NoError(t, err)
			assert.Equal(t, SubjectID(s), id)
		})
	}

	invalid := map[string]string{
		"empty":          "",
		"no scheme":      "key:z6Mk",
		"missing id":     "did:web:",
		"missing method": "did::abc",
		"upper method":   "did:WEB:example.com",
		"space in id":    "did:web:exa mple.com",
		"too long":       "did:web:" + strings.Repeat("a", MaxDIDLength),
	}
	for name, s := range invalid {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := ParseSubjectID(s)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeEncoding))
		})
	}
}

func TestParseIssuerID(t *testing.T) {
	t.Run("accepts did:key", func(t *testing.T) {
		_, err := ParseIssuerID("did:key:z6Mkod5Jr3yd5SC7UDueqK4dAAw5xYJYjksy722tA9Boxc4z")
		require.NoError(t, err)
	})

	t.Run("rejects other methods", func(t *testing.T) {
		_, err := ParseIssuerID("did:web:issuer.example")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEncoding))
	})
}
