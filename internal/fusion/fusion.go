// Package fusion combines the behavioral and content signals into a single
// verdict: a confidence score, a four-level risk tier, and the isHuman call.
//
// Fusion is pure arithmetic over already-computed inputs, with a strict
// documented rule order for the risk tier so every severity combination has
// exactly one outcome.
package fusion

import (
	"integrityd/internal/activity"
	"integrityd/internal/calibration"
	"integrityd/internal/classifier"
)

// Documented fusion policy.
const (
	// BehaviorBaseline is the starting behavior score before penalties.
	BehaviorBaseline = 0.8

	// Severity-weighted penalties per flagged activity.
	penaltyCritical = 0.30
	penaltyHigh     = 0.20
	penaltyMedium   = 0.10
	penaltyLow      = 0.05

	// maxCalibrationBlend caps how far calibration similarity can pull the
	// behavior score; rule penalties are never fully overridden.
	maxCalibrationBlend = 0.5

	// Behavior/content weighting of the final confidence.
	behaviorWeight = 0.7
	contentWeight  = 0.3

	// Risk tier confidence floors.
	criticalConfidenceFloor = 0.30
	highConfidenceFloor     = 0.50
	mediumConfidenceFloor   = 0.70

	// humanConfidenceMin is the confidence required for an isHuman verdict.
	humanConfidenceMin = 0.60
)

// Verdict is the fused outcome for one session.
type Verdict struct {
	IsHuman         bool               `json:"isHuman"`
	ConfidenceScore float64            `json:"confidenceScore"`
	RiskLevel       activity.RiskLevel `json:"riskLevel"`
	BehaviorScore   float64            `json:"behaviorScore"`
	ContentScore    float64            `json:"contentScore"`
}

// Fuse combines the detector findings, optional calibration comparison, and
// optional classifier verdict. Nil comparison and nil classifier result mean
// those signals were not available for this session.
func Fuse(activities []activity.Suspicious, comparison *calibration.Comparison, content *classifier.Result) Verdict {
	behavior := BehaviorBaseline
	for _, a := range activities {
		behavior -= penalty(a.Severity)
	}
	if behavior < 0 {
		behavior = 0
	}

	// Calibration similarity blends in with weight growing alongside the
	// amount of baseline data, capped so penalties keep their teeth.
	if comparison != nil {
		blend := maxCalibrationBlend * comparison.StatisticalSignificance
		behavior = (1-blend)*behavior + blend*comparison.Overall
	}

	contentScore := 1.0
	if content != nil {
		contentScore = 1 - content.Score
	}

	confidence := behaviorWeight*behavior + contentWeight*contentScore
	risk := riskLevel(activities, confidence)

	return Verdict{
		IsHuman:         confidence >= humanConfidenceMin && risk != activity.RiskCritical,
		ConfidenceScore: confidence,
		RiskLevel:       risk,
		BehaviorScore:   behavior,
		ContentScore:    contentScore,
	}
}

func penalty(s activity.Severity) float64 {
	switch s {
	case activity.SeverityCritical:
		return penaltyCritical
	case activity.SeverityHigh:
		return penaltyHigh
	case activity.SeverityMedium:
		return penaltyMedium
	case activity.SeverityLow:
		return penaltyLow
	default:
		return 0
	}
}

// riskLevel applies the strict rule order: critical conditions first, then
// high, then medium; anything left is low.
func riskLevel(activities []activity.Suspicious, confidence float64) activity.RiskLevel {
	criticals := 0
	highs := 0
	mediums := 0
	for _, a := range activities {
		switch a.Severity {
		case activity.SeverityCritical:
			criticals++
		case activity.SeverityHigh:
			highs++
		case activity.SeverityMedium:
			mediums++
		}
	}

	switch {
	case criticals > 0 || confidence < criticalConfidenceFloor:
		return activity.RiskCritical
	case highs > 0 || confidence < highConfidenceFloor:
		return activity.RiskHigh
	case mediums > 1 || confidence < mediumConfidenceFloor:
		return activity.RiskMedium
	default:
		return activity.RiskLow
	}
}
