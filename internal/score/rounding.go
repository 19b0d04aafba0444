package score

import "math"

// Round2 rounds to 2 decimal places (boost and hodl rate precision).
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Round3 rounds to 3 decimal places (token-level TDH precision).
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
