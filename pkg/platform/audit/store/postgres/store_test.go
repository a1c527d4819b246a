package postgres

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int32
	}{
		{name: "within int32 range unchanged", input: 1000, expected: 1000},
		{name: "at int32 max unchanged", input: math.MaxInt32, expected: math.MaxInt32},
		{name: "exceeds int32 max clamped", input: math.MaxInt32 + 1, expected: math.MaxInt32},
		{name: "non-positive uses default", input: 0, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clampLimit(tt.input))
		})
	}
}
