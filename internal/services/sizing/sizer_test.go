package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedFractionDefaults(t *testing.T) {
	s, err := NewFixedFraction(100, 0.02)
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.Size())
	assert.Equal(t, "2", s.Exact())
	assert.Equal(t, 100.0, s.Balance())
	assert.Equal(t, 0.02, s.Risk())
}

func TestFixedFractionAvoidsFloatDrift(t *testing.T) {
	// 0.1 * 0.3 is 0.030000000000000002 in plain float math
	s, err := NewFixedFraction(0.1, 0.3)
	require.NoError(t, err)
	assert.Equal(t, "0.03", s.Exact())
	assert.Equal(t, 0.03, s.Size())
}

func TestFixedFractionRejects(t *testing.T) {
	for _, tc := range []struct {
		name          string
		balance, risk float64
	}{
		{"zero balance", 0, 0.02},
		{"negative balance", -5, 0.02},
		{"zero risk", 100, 0},
		{"negative risk", 100, -0.1},
		{"risk above one", 100, 1.5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFixedFraction(tc.balance, tc.risk)
			assert.Error(t, err)
		})
	}

	s, err := NewFixedFraction(100, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.Size())
}
