package payload

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 100.04, want: 100},
		{in: 100.06, want: 100.1},
		{in: 150.25, want: 150.3},
		{in: 0.05, want: 0.1},
		{in: -0.05, want: -0.1},
		{in: -150.25, want: -150.3},
		{in: 110, want: 110},
		{in: 1999.99, want: 2000},
		{in: 0, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.in), "Round(%v)", tt.in)
	}
}

func TestRoundIdempotent(t *testing.T) {
	values := []float64{
		0, 0.1, 0.15, 0.25, 1.45, -1.45, 33.333333, 99.95, 100.06,
		1234.5678, -987.654, 1e-9, 1999.949999, 0.30000000000000004,
	}
	for i := 0; i < 500; i++ {
		values = append(values, float64(i)*1.37-250.005)
	}
	for _, v := range values {
		once := Round(v)
		assert.Equal(t, once, Round(once), "value %v", v)
	}
}

func TestRoundNonFinite(t *testing.T) {
	assert.True(t, math.IsNaN(Round(math.NaN())))
	assert.True(t, math.IsInf(Round(math.Inf(1)), 1))
}
