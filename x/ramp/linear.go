package ramp

import "dusterilizer-go/x/mathx"

// Counts returns the intermediate LED counts walked from prev to target,
// excluding prev and including target. Equal counts yield nil.
func Counts(prev, target int) []int {
	switch {
	case target > prev:
		out := make([]int, 0, target-prev)
		for k := prev + 1; k <= target; k++ {
			out = append(out, k)
		}
		return out
	case target < prev:
		out := make([]int, 0, prev-target)
		for k := prev - 1; k >= target; k-- {
			out = append(out, k)
		}
		return out
	}
	return nil
}

// Triangle returns a steps-long brightness curve that falls linearly from
// 1 towards low over the first half and rises from low towards 1 over the
// second. steps below 2 yields a single full-brightness frame.
func Triangle(steps int, low float64) []float64 {
	if steps < 2 {
		return []float64{1}
	}
	half := steps / 2
	out := make([]float64, 0, 2*half)
	for i := 0; i < half; i++ {
		out = append(out, mathx.Lerp(1, low, float64(i)/float64(half)))
	}
	for i := 0; i < half; i++ {
		out = append(out, mathx.Lerp(low, 1, float64(i)/float64(half)))
	}
	return out
}
