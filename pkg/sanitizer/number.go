package sanitizer

const (
	MinRating = 0
	MaxRating = 5
)

func Clamp[T int | int64 | float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NormalizeMinRating clamps a rating filter into the 0..5 star range.
func NormalizeMinRating(rating float64) float64 {
	return Clamp(rating, MinRating, MaxRating)
}
