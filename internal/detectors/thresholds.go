package detectors

// Thresholds collects every tunable constant used by the detector bank.
// Lifting them into one structure keeps detector logic free of magic
// numbers and lets operators tune a deployment without code changes.
type Thresholds struct {
	// MinActions is the minimum log size before absence-based detectors
	// (pause, no-correction, over-consistency, rhythm) may fire. Tiny
	// logs trivially have zero pauses and zero deletions.
	MinActions int `toml:"min_actions" json:"min_actions" yaml:"min_actions"`

	// Paste detection.
	PasteMinChars    int   `toml:"paste_min_chars" json:"paste_min_chars" yaml:"paste_min_chars"`
	PasteWindowMs    int64 `toml:"paste_window_ms" json:"paste_window_ms" yaml:"paste_window_ms"`
	PasteGrowthRatio int   `toml:"paste_growth_ratio" json:"paste_growth_ratio" yaml:"paste_growth_ratio"`
	PastePauseMs     int64 `toml:"paste_pause_ms" json:"paste_pause_ms" yaml:"paste_pause_ms"`

	// Speed anomaly (chars/minute). Fires strictly above HighSpeedCPM;
	// escalates to critical strictly above CriticalSpeedCPM.
	HighSpeedCPM     float64 `toml:"high_speed_cpm" json:"high_speed_cpm" yaml:"high_speed_cpm"`
	CriticalSpeedCPM float64 `toml:"critical_speed_cpm" json:"critical_speed_cpm" yaml:"critical_speed_cpm"`

	// Rhythm anomaly: consistency above this is too uniform to be human.
	RhythmConsistency float64 `toml:"rhythm_consistency" json:"rhythm_consistency" yaml:"rhythm_consistency"`

	// Pause anomaly: pause frequency below this is suspicious.
	MinPauseFrequency float64 `toml:"min_pause_frequency" json:"min_pause_frequency" yaml:"min_pause_frequency"`

	// No-correction anomaly: deletion rate at or below this is suspicious.
	MinDeletionRate float64 `toml:"min_deletion_rate" json:"min_deletion_rate" yaml:"min_deletion_rate"`

	// Over-consistency anomaly.
	MaxConsistencyScore float64 `toml:"max_consistency_score" json:"max_consistency_score" yaml:"max_consistency_score"`
}

// DefaultThresholds returns the documented detector defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinActions:          10,
		PasteMinChars:       20,
		PasteWindowMs:       500,
		PasteGrowthRatio:    4,
		PastePauseMs:        400,
		HighSpeedCPM:        200,
		CriticalSpeedCPM:    300,
		RhythmConsistency:   0.92,
		MinPauseFrequency:   0.01,
		MinDeletionRate:     0.01,
		MaxConsistencyScore: 0.88,
	}
}

// Validate checks threshold sanity.
func (t Thresholds) Validate() error {
	if t.CriticalSpeedCPM <= t.HighSpeedCPM {
		return errCriticalBelowHigh
	}
	if t.RhythmConsistency <= 0 || t.RhythmConsistency > 1 {
		return errRhythmRange
	}
	if t.MaxConsistencyScore <= 0 || t.MaxConsistencyScore > 1 {
		return errConsistencyRange
	}
	return nil
}
