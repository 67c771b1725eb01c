package features

import "math"

// mean returns the arithmetic mean, 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDevPop returns the population standard deviation, 0 for fewer than
// two values.
func stdDevPop(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	variance := 0.0
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// coefVariation returns stddev/mean with the mean floored away from zero,
// honoring the denominator-floor invariant for all derived ratios.
func coefVariation(values []float64) float64 {
	m := mean(values)
	if m <= 0 {
		return 0
	}
	return stdDevPop(values) / m
}

// clamp01 clamps v to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
