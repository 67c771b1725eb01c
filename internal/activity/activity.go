// Package activity defines the shared shape for flagged anomalies.
//
// The behavioral bank, the content classifier, and the screen-activity
// watcher all report findings in this one shape so a single reviewing
// surface can merge them.
package activity

// Kind categorizes a suspicious activity.
type Kind string

const (
	// Behavioral detector kinds.
	KindPaste             Kind = "paste"
	KindSpeedAnomaly      Kind = "speed_anomaly"
	KindRhythmAnomaly     Kind = "rhythm_anomaly"
	KindPauseAnomaly      Kind = "pause_anomaly"
	KindAiContent         Kind = "ai_content"
	KindBehaviorDeviation Kind = "behavior_deviation"

	// Screen-activity detector kinds.
	KindWindowBlur     Kind = "window_blur"
	KindWindowFocus    Kind = "window_focus"
	KindTabChange      Kind = "tab_change"
	KindAiToolDetected Kind = "ai_tool_detected"
	KindSuspiciousUrl  Kind = "suspicious_url"
	KindCopyPaste      Kind = "copy_paste"
)

// Severity is the ordered importance level of an activity.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so severities serialize
// as their names.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// RiskLevel is the four-level ordinal verdict for a whole session.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Suspicious is one flagged anomaly. Immutable once created; produced by
// exactly one detector. Evidence strings pair raw observed numbers with the
// expected human range and are part of the contract, not incidental logging.
type Suspicious struct {
	Kind        Kind     `json:"kind"`
	Severity    Severity `json:"severity"`
	Confidence  float64  `json:"confidence"`
	Description string   `json:"description"`
	Evidence    []string `json:"evidence"`

	// TimestampMs is milliseconds since the session epoch, when the
	// activity is tied to a moment in the session. Nil otherwise.
	TimestampMs *int64 `json:"timestamp,omitempty"`

	// Excerpt is the affected content, when the detector captured one.
	Excerpt string `json:"affectedContentExcerpt,omitempty"`
}

// At returns a pointer to a session-epoch timestamp, for literal use.
func At(ms int64) *int64 { return &ms }

// CountBySeverity tallies activities at or above the given severity.
func CountBySeverity(activities []Suspicious, min Severity) int {
	n := 0
	for _, a := range activities {
		if a.Severity >= min {
			n++
		}
	}
	return n
}

// MaxSeverity returns the highest severity present, and false when the
// list is empty.
func MaxSeverity(activities []Suspicious) (Severity, bool) {
	if len(activities) == 0 {
		return SeverityLow, false
	}
	max := activities[0].Severity
	for _, a := range activities[1:] {
		if a.Severity > max {
			max = a.Severity
		}
	}
	return max, true
}
