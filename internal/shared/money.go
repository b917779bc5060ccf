package shared

import "math"

// Round2 rounds monetary totals to 2 decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round6 rounds per-unit cost values to 6 decimals. The extra precision keeps
// after-tax unit costs from drifting when multiplied by large quantities.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
