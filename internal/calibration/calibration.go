// Package calibration compares a session's metrics against a personal
// baseline captured under controlled conditions.
//
// Comparison is pure arithmetic over two Metrics values. Tolerances are
// absolute per-feature bands; similarity for each feature is
// max(0, 1 - |current-reference|/tolerance). The direction of the
// comparison matters only for deviation reporting, never for similarity.
package calibration

import (
	"fmt"

	"integrityd/internal/features"
)

// Feature names reported in a comparison.
const (
	FeatureSpeed    = "typing_speed"
	FeatureRhythm   = "rhythm_consistency"
	FeaturePause    = "pause_frequency"
	FeatureDeletion = "deletion_rate"
	FeatureDwell    = "dwell_variability"
	FeatureFlight   = "flight_variability"
)

// Tolerances are the absolute per-feature similarity bands.
type Tolerances struct {
	SpeedCPM     float64
	Rhythm       float64
	PauseFreq    float64
	DeletionRate float64
	DwellCV      float64
	FlightCV     float64
}

// DefaultTolerances returns the documented tolerance bands.
func DefaultTolerances() Tolerances {
	return Tolerances{
		SpeedCPM:     25,
		Rhythm:       0.15,
		PauseFreq:    0.10,
		DeletionRate: 0.15,
		DwellCV:      0.50,
		FlightCV:     0.50,
	}
}

// Feature weights. Must sum to 1.0; checked by tests.
const (
	weightSpeed    = 0.25
	weightRhythm   = 0.20
	weightPause    = 0.20
	weightDeletion = 0.15
	weightDwell    = 0.10
	weightFlight   = 0.10
)

// referenceSaturation is the reference sample size at which statistical
// significance reaches 1.0.
const referenceSaturation = 1000

// FeatureComparison is one feature's similarity to the baseline.
type FeatureComparison struct {
	Feature     string  `json:"feature"`
	Current     float64 `json:"current"`
	Reference   float64 `json:"reference"`
	Deviation   float64 `json:"deviation"`
	Similarity  float64 `json:"similarity"`
	Explanation string  `json:"explanation"`
}

// Comparison is the result of comparing current metrics to a baseline.
type Comparison struct {
	Features []FeatureComparison `json:"features"`

	// Overall is the weighted similarity across all tracked features.
	Overall float64 `json:"overall"`

	// StatisticalSignificance grows with the amount of calibration data,
	// saturating at 1.0 for referenceSaturation samples.
	StatisticalSignificance float64 `json:"statisticalSignificance"`
}

// Compare computes per-feature and overall similarity between the current
// session and the reference baseline. referenceSamples is the number of
// actions behind the baseline metrics.
func Compare(current, reference features.Metrics, referenceSamples int, tol Tolerances) Comparison {
	fcs := []FeatureComparison{
		compareFeature(FeatureSpeed, current.CharsPerMinute, reference.CharsPerMinute, tol.SpeedCPM, "chars/minute"),
		compareFeature(FeatureRhythm, current.RhythmConsistency, reference.RhythmConsistency, tol.Rhythm, "consistency"),
		compareFeature(FeaturePause, current.PauseFrequency, reference.PauseFrequency, tol.PauseFreq, "pauses/action"),
		compareFeature(FeatureDeletion, current.DeletionRate, reference.DeletionRate, tol.DeletionRate, "deletes/insert"),
		compareFeature(FeatureDwell, current.DwellVariability, reference.DwellVariability, tol.DwellCV, "cv"),
		compareFeature(FeatureFlight, current.FlightVariability, reference.FlightVariability, tol.FlightCV, "cv"),
	}

	overall := weightSpeed*fcs[0].Similarity +
		weightRhythm*fcs[1].Similarity +
		weightPause*fcs[2].Similarity +
		weightDeletion*fcs[3].Similarity +
		weightDwell*fcs[4].Similarity +
		weightFlight*fcs[5].Similarity

	if referenceSamples < 0 {
		referenceSamples = 0
	}
	significance := float64(referenceSamples) / referenceSaturation
	if significance > 1 {
		significance = 1
	}

	return Comparison{
		Features:                fcs,
		Overall:                 overall,
		StatisticalSignificance: significance,
	}
}

func compareFeature(name string, current, reference, tolerance float64, unit string) FeatureComparison {
	deviation := current - reference
	abs := deviation
	if abs < 0 {
		abs = -abs
	}

	similarity := 0.0
	if tolerance > 0 {
		similarity = 1 - abs/tolerance
		if similarity < 0 {
			similarity = 0
		}
	}

	return FeatureComparison{
		Feature:     name,
		Current:     current,
		Reference:   reference,
		Deviation:   deviation,
		Similarity:  similarity,
		Explanation: fmt.Sprintf("%s: current %.3f vs baseline %.3f %s (tolerance %.3f)", name, current, reference, unit, tolerance),
	}
}
