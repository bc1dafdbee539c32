package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"100.00", 100, true},
		{"12,34", 12.34, true},
		{" 2.50 ", 2.5, true},
		{"-7.5", -7.5, true},
		{"+3", 3, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidAmount, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.InDelta(t, tc.out, got, 1e-9, tc.in)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "100.00", FormatAmount(100))
	assert.Equal(t, "100.00", FormatAmount(100.004))
	assert.Equal(t, "12.35", FormatAmount(12.345))
	assert.Equal(t, "-3.10", FormatAmount(-3.1))
	assert.Equal(t, "0.00", FormatAmount(0))
}

func TestAmountsMatch(t *testing.T) {
	assert.True(t, AmountsMatch(100.004, 100.00))
	assert.True(t, AmountsMatch(99.995, 100.00))
	assert.False(t, AmountsMatch(100.02, 100.00))
	assert.False(t, AmountsMatch(-100, 100))
}
