package payload

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds n to one decimal place, halves away from zero.
// Applying it to an already rounded value returns the value unchanged.
func Round(n float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return n
	}
	return decimal.NewFromFloat(n).Round(1).InexactFloat64()
}

func roundAll(points []float64) []float64 {
	ret := make([]float64, len(points))
	for i, p := range points {
		ret[i] = Round(p)
	}
	return ret
}
