package mathx

import "math"

// Lerp returns a + (b-a)*t. t is not clamped.
func Lerp(a, b, t float64) float64 { return a + (b-a)*t }

// CeilScale returns ceil(v*n) as an int, with v clamped to [0, 1].
// NaN scales to 0.
func CeilScale(v float64, n int) int {
	return int(math.Ceil(unit(v) * float64(n)))
}

// FloorScale returns floor(v*n) as an int, with v clamped to [0, 1].
// NaN scales to 0.
func FloorScale(v float64, n int) int {
	return int(math.Floor(unit(v) * float64(n)))
}

func unit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return Clamp(v, 0, 1)
}
