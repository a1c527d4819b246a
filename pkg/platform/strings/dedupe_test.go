package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	assert.Equal(t, []string{"foo", "bar"}, DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "}))
	assert.Nil(t, DedupeAndTrim(nil))
}

func TestDedupeAndTrimUpper(t *testing.T) {
	got := DedupeAndTrimUpper([]string{" employment", "EMPLOYMENT", "cex_history"})
	assert.Equal(t, []string{"EMPLOYMENT", "CEX_HISTORY"}, got)
}
