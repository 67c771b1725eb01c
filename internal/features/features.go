// Package features computes the fixed-shape behavioral metrics for one
// action log.
//
// Extraction is a pure function: no I/O, no failure modes. An empty or
// single-action log yields an all-zero Metrics value. Every ratio floors
// its denominator so no metric can be NaN or infinite.
package features

import (
	"integrityd/internal/actionlog"
)

// Pause bucket boundaries in milliseconds.
const (
	ShortPauseMaxMs = 2000
	LongPauseMinMs  = 10000
)

// SpeedWindowActions is the window size used to build the speed series.
const SpeedWindowActions = 50

// charsPerWord is the conventional characters-per-word divisor.
const charsPerWord = 5

// Metrics is the numeric profile of one action log. Derived once per log,
// never mutated after creation.
type Metrics struct {
	// Speed, from the windowed speed series (chars/minute).
	SpeedMean   float64 `json:"speedMean"`
	SpeedStdDev float64 `json:"speedStdDev"`

	// Throughput over the whole session.
	CharsPerMinute float64 `json:"charsPerMinute"`
	WordsPerMinute float64 `json:"wordsPerMinute"`

	// Timing shape.
	RhythmConsistency float64 `json:"rhythmConsistency"`
	Burstiness        float64 `json:"burstiness"`
	DwellVariability  float64 `json:"dwellVariability"`
	FlightVariability float64 `json:"flightVariability"`

	// Editing behavior.
	BacktrackFrequency float64 `json:"backtrackFrequency"`
	DeletionRate       float64 `json:"deletionRate"`

	// Pauses.
	PauseFrequency float64 `json:"pauseFrequency"`
	ShortPauses    int     `json:"shortPauses"`
	MediumPauses   int     `json:"mediumPauses"`
	LongPauses     int     `json:"longPauses"`
	AveragePauseMs float64 `json:"averagePauseMs"`

	// Session dynamics.
	TypingAcceleration float64 `json:"typingAcceleration"`
	FatigueIndicator   float64 `json:"fatigueIndicator"`
	ConsistencyScore   float64 `json:"consistencyScore"`

	// SampleSize is the number of actions the metrics were derived from.
	SampleSize int `json:"sampleSize"`
}

// Extract computes Metrics from an action log. Never fails.
func Extract(log actionlog.Log) Metrics {
	m := Metrics{SampleSize: len(log)}
	if len(log) < 2 {
		return m
	}

	elapsedMs := log.ElapsedMs()
	if elapsedMs < 1 {
		elapsedMs = 1
	}
	elapsedMin := float64(elapsedMs) / 60000.0

	inserts := log.Inserts()
	totalChars := 0
	for _, ins := range inserts {
		totalChars += len(ins.Content)
	}

	m.CharsPerMinute = float64(totalChars) / elapsedMin
	m.WordsPerMinute = m.CharsPerMinute / charsPerWord

	speeds := speedSeries(log)
	m.SpeedMean = mean(speeds)
	m.SpeedStdDev = stdDevPop(speeds)

	intervals := insertIntervals(inserts)
	m.RhythmConsistency = rhythmConsistency(intervals)
	m.Burstiness = burstiness(intervals)

	dwells, flights := keyTimings(log)
	m.DwellVariability = coefVariation(dwells)
	m.FlightVariability = coefVariation(flights)

	m.BacktrackFrequency = backtrackFrequency(log)
	m.DeletionRate = deletionRate(log)

	pauses := pauseLengths(log)
	m.PauseFrequency = float64(len(pauses)) / float64(maxInt(1, len(log)))
	m.ShortPauses, m.MediumPauses, m.LongPauses = bucketPauses(pauses)
	m.AveragePauseMs = mean(pauses)

	m.TypingAcceleration = acceleration(speeds)
	m.FatigueIndicator = fatigue(speeds)
	m.ConsistencyScore = consistencyScore(speeds, intervals, pauses)

	return m
}

// speedSeries samples the log in fixed-size action windows and reports the
// insertion speed of each window in chars/minute.
func speedSeries(log actionlog.Log) []float64 {
	var speeds []float64
	for start := 0; start < len(log); start += SpeedWindowActions {
		end := start + SpeedWindowActions
		if end > len(log) {
			end = len(log)
		}
		window := log[start:end]
		if len(window) < 2 {
			break
		}

		chars := 0
		for _, a := range window {
			if ins, ok := a.(actionlog.Insert); ok {
				chars += len(ins.Content)
			}
		}

		spanMs := window[len(window)-1].Timestamp() - window[0].Timestamp()
		if spanMs < 1 {
			spanMs = 1
		}
		speeds = append(speeds, float64(chars)/(float64(spanMs)/60000.0))
	}
	return speeds
}

// insertIntervals returns the gaps between consecutive insert actions in ms.
func insertIntervals(inserts []actionlog.Insert) []float64 {
	if len(inserts) < 2 {
		return nil
	}
	intervals := make([]float64, 0, len(inserts)-1)
	for i := 1; i < len(inserts); i++ {
		intervals = append(intervals, float64(inserts[i].At-inserts[i-1].At))
	}
	return intervals
}

// rhythmConsistency is 1 - min(1, cv) over inter-keystroke intervals.
// A value near 1.0 means suspiciously uniform timing.
func rhythmConsistency(intervals []float64) float64 {
	if len(intervals) == 0 {
		return 0
	}
	m := mean(intervals)
	if m <= 0 {
		return 0
	}
	cv := stdDevPop(intervals) / m
	if cv > 1 {
		cv = 1
	}
	return 1 - cv
}

// burstiness is the normalized coefficient-of-variation transform
// (cv-1)/(cv+1): positive means bursty, negative means steady.
func burstiness(intervals []float64) float64 {
	if len(intervals) == 0 {
		return 0
	}
	cv := coefVariation(intervals)
	return (cv - 1) / (cv + 1)
}

// keyTimings collects recorded dwell and flight times from key-down actions.
func keyTimings(log actionlog.Log) (dwells, flights []float64) {
	for _, a := range log {
		if kd, ok := a.(actionlog.KeyDown); ok {
			if kd.DwellMs > 0 {
				dwells = append(dwells, kd.DwellMs)
			}
			if kd.FlightMs > 0 {
				flights = append(flights, kd.FlightMs)
			}
		}
	}
	return dwells, flights
}

// backtrackDistance is how far before the prior cursor position a move must
// land to count as backtracking.
const backtrackDistance = 10

// backtrackFrequency is the fraction of cursor actions that jump more than
// backtrackDistance characters before the previous cursor end position.
func backtrackFrequency(log actionlog.Log) float64 {
	cursorCount := 0
	backtracks := 0
	lastTo := -1
	for _, a := range log {
		c, ok := a.(actionlog.Cursor)
		if !ok {
			continue
		}
		cursorCount++
		if lastTo >= 0 && c.From < lastTo-backtrackDistance {
			backtracks++
		}
		lastTo = c.To
	}
	return float64(backtracks) / float64(maxInt(1, cursorCount))
}

// deletionRate is deletes per insert, floored per the denominator invariant.
func deletionRate(log actionlog.Log) float64 {
	deletes := 0
	insertCount := 0
	for _, a := range log {
		switch a.(type) {
		case actionlog.Delete:
			deletes++
		case actionlog.Insert:
			insertCount++
		}
	}
	return float64(deletes) / float64(maxInt(1, insertCount))
}

func pauseLengths(log actionlog.Log) []float64 {
	var lengths []float64
	for _, a := range log {
		if p, ok := a.(actionlog.Pause); ok {
			lengths = append(lengths, float64(p.DurationMs))
		}
	}
	return lengths
}

func bucketPauses(lengths []float64) (short, medium, long int) {
	for _, l := range lengths {
		switch {
		case l < ShortPauseMaxMs:
			short++
		case l < LongPauseMinMs:
			medium++
		default:
			long++
		}
	}
	return short, medium, long
}

// acceleration is the mean of successive speed-series differences.
// Positive means the writer sped up over the session.
func acceleration(speeds []float64) float64 {
	if len(speeds) < 2 {
		return 0
	}
	diffs := make([]float64, 0, len(speeds)-1)
	for i := 1; i < len(speeds); i++ {
		diffs = append(diffs, speeds[i]-speeds[i-1])
	}
	return mean(diffs)
}

// fatigue is the relative slowdown from the first half of the speed series
// to the second, floored at 0 so only slowdowns register.
func fatigue(speeds []float64) float64 {
	if len(speeds) < 2 {
		return 0
	}
	half := len(speeds) / 2
	first := mean(speeds[:half])
	second := mean(speeds[half:])
	if first <= 0 {
		return 0
	}
	f := (first - second) / first
	if f < 0 {
		return 0
	}
	return f
}

// consistencyScore aggregates the variability of speed, intervals, and
// pause lengths into one score in [0,1]; higher means more uniform.
func consistencyScore(speeds, intervals, pauses []float64) float64 {
	cvs := []float64{
		coefVariation(speeds),
		coefVariation(intervals),
		coefVariation(pauses),
	}
	return clamp01(1 - mean(cvs))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
