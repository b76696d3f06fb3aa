package common

import "cmp"

// Coalesce returns the first value that is not the zero value of T, or the zero
// value when every value is zero.
//
// Parameters:
//   - values: the candidates, in order of preference
//
// Returns:
//   - T: the first non-zero candidate
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp limits v to [lo, hi]. The result is lo when the bounds are inverted.
//
// Parameters:
//   - v: the value
//   - lo, hi: the inclusive bounds
//
// Returns:
//   - T: the clamped value
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return max(lo, min(hi, v))
}
