// Package detectors is the rule-based anomaly bank.
//
// Each detector is an independent pure rule over the action log and/or the
// extracted metrics. All detectors run unconditionally on every analysis
// and each may emit zero or more suspicious activities. Evidence strings
// pair the observed number with the expected human range; they are part of
// the detector contract.
package detectors

import (
	"errors"
	"fmt"

	"integrityd/internal/actionlog"
	"integrityd/internal/activity"
	"integrityd/internal/features"
)

var (
	errCriticalBelowHigh = errors.New("critical speed threshold must exceed high threshold")
	errRhythmRange       = errors.New("rhythm consistency threshold must be in (0, 1]")
	errConsistencyRange  = errors.New("consistency score threshold must be in (0, 1]")
)

// Bank runs the full detector set with one threshold configuration.
type Bank struct {
	thresholds Thresholds
}

// NewBank creates a detector bank. Zero-value thresholds are replaced by
// the documented defaults.
func NewBank(t Thresholds) *Bank {
	if t == (Thresholds{}) {
		t = DefaultThresholds()
	}
	return &Bank{thresholds: t}
}

// Detect runs every detector and returns the combined findings in
// detector order.
func (b *Bank) Detect(log actionlog.Log, m features.Metrics) []activity.Suspicious {
	var out []activity.Suspicious
	out = append(out, b.detectPaste(log)...)
	out = append(out, b.detectSpeed(m)...)
	out = append(out, b.detectRhythm(m)...)
	out = append(out, b.detectPause(m)...)
	out = append(out, b.detectNoCorrection(m)...)
	out = append(out, b.detectOverConsistency(m)...)
	return out
}

// detectPaste scans consecutive inserts for content arriving too fast to
// have been typed: a large chunk within the paste window, or a chunk
// disproportionately larger than the previous one right after a pause.
func (b *Bank) detectPaste(log actionlog.Log) []activity.Suspicious {
	t := b.thresholds
	var out []activity.Suspicious

	inserts := log.Inserts()
	for i := 1; i < len(inserts); i++ {
		prev, cur := inserts[i-1], inserts[i]
		gap := cur.At - prev.At
		growth := len(cur.Content) - len(prev.Content)

		burst := growth > t.PasteMinChars && gap < t.PasteWindowMs
		jump := gap > t.PastePauseMs &&
			len(prev.Content) > 0 &&
			len(cur.Content) > t.PasteGrowthRatio*len(prev.Content)

		if !burst && !jump {
			continue
		}

		confidence := float64(len(cur.Content)) / 100.0
		if confidence > 1 {
			confidence = 1
		}

		out = append(out, activity.Suspicious{
			Kind:        activity.KindPaste,
			Severity:    activity.SeverityHigh,
			Confidence:  confidence,
			Description: "Content appeared faster than it could be typed",
			Evidence: []string{
				fmt.Sprintf("inserted %d chars %dms after a %d-char insert", len(cur.Content), gap, len(prev.Content)),
				fmt.Sprintf("typed input grows by a few chars per event; threshold %d chars within %dms", t.PasteMinChars, t.PasteWindowMs),
			},
			TimestampMs: activity.At(cur.At),
			Excerpt:     excerpt(cur.Content),
		})
	}
	return out
}

// detectSpeed fires strictly above the high threshold; the boundary value
// itself is accepted as human.
func (b *Bank) detectSpeed(m features.Metrics) []activity.Suspicious {
	t := b.thresholds
	if m.CharsPerMinute <= t.HighSpeedCPM {
		return nil
	}

	severity := activity.SeverityHigh
	if m.CharsPerMinute > t.CriticalSpeedCPM {
		severity = activity.SeverityCritical
	}

	// Linear confidence ramp between the two thresholds.
	confidence := (m.CharsPerMinute - t.HighSpeedCPM) / (t.CriticalSpeedCPM - t.HighSpeedCPM)
	if confidence > 1 {
		confidence = 1
	}

	return []activity.Suspicious{{
		Kind:        activity.KindSpeedAnomaly,
		Severity:    severity,
		Confidence:  confidence,
		Description: "Typing speed exceeds plausible human rate",
		Evidence: []string{
			fmt.Sprintf("average speed %.1f chars/minute", m.CharsPerMinute),
			fmt.Sprintf("typical human range is 80-%.0f chars/minute", t.HighSpeedCPM),
		},
	}}
}

func (b *Bank) detectRhythm(m features.Metrics) []activity.Suspicious {
	t := b.thresholds
	if m.SampleSize < t.MinActions || m.RhythmConsistency <= t.RhythmConsistency {
		return nil
	}

	// Ramp from 0 at the threshold to 1 at perfect uniformity.
	confidence := (m.RhythmConsistency - t.RhythmConsistency) / (1 - t.RhythmConsistency)
	if confidence > 1 {
		confidence = 1
	}

	return []activity.Suspicious{{
		Kind:        activity.KindRhythmAnomaly,
		Severity:    activity.SeverityHigh,
		Confidence:  confidence,
		Description: "Keystroke timing is too uniform to be human",
		Evidence: []string{
			fmt.Sprintf("rhythm consistency %.3f", m.RhythmConsistency),
			fmt.Sprintf("human typing varies; consistency above %.2f suggests automation", t.RhythmConsistency),
		},
	}}
}

func (b *Bank) detectPause(m features.Metrics) []activity.Suspicious {
	t := b.thresholds
	if m.SampleSize < t.MinActions || m.PauseFrequency >= t.MinPauseFrequency {
		return nil
	}

	confidence := 1 - m.PauseFrequency/t.MinPauseFrequency

	return []activity.Suspicious{{
		Kind:        activity.KindPauseAnomaly,
		Severity:    activity.SeverityMedium,
		Confidence:  confidence,
		Description: "Writer almost never paused to think",
		Evidence: []string{
			fmt.Sprintf("pause frequency %.4f pauses/action", m.PauseFrequency),
			fmt.Sprintf("human writers pause regularly; below %.2f is unusual", t.MinPauseFrequency),
		},
	}}
}

// noCorrectionConfidence is fixed: the signal is binary, not graded.
const noCorrectionConfidence = 0.6

func (b *Bank) detectNoCorrection(m features.Metrics) []activity.Suspicious {
	t := b.thresholds
	if m.SampleSize < t.MinActions || m.DeletionRate > t.MinDeletionRate {
		return nil
	}

	return []activity.Suspicious{{
		Kind:        activity.KindBehaviorDeviation,
		Severity:    activity.SeverityMedium,
		Confidence:  noCorrectionConfidence,
		Description: "No self-correction during the session",
		Evidence: []string{
			fmt.Sprintf("deletion rate %.4f deletes/insert", m.DeletionRate),
			"human writers almost always revise as they type",
		},
	}}
}

func (b *Bank) detectOverConsistency(m features.Metrics) []activity.Suspicious {
	t := b.thresholds
	if m.SampleSize < t.MinActions || m.ConsistencyScore <= t.MaxConsistencyScore {
		return nil
	}

	confidence := (m.ConsistencyScore - t.MaxConsistencyScore) / (1 - t.MaxConsistencyScore)
	if confidence > 1 {
		confidence = 1
	}

	return []activity.Suspicious{{
		Kind:        activity.KindBehaviorDeviation,
		Severity:    activity.SeverityMedium,
		Confidence:  confidence,
		Description: "Session-wide behavior is implausibly uniform",
		Evidence: []string{
			fmt.Sprintf("aggregate consistency score %.3f", m.ConsistencyScore),
			fmt.Sprintf("scores above %.2f indicate machine-like regularity", t.MaxConsistencyScore),
		},
	}}
}

// excerptLen bounds the content excerpt attached to paste findings.
const excerptLen = 80

func excerpt(s string) string {
	if len(s) <= excerptLen {
		return s
	}
	return s[:excerptLen] + "..."
}
