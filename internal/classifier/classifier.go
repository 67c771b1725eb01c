// Package classifier wraps AI-generated-text classification behind a small
// interface with two implementations: an HTTP-backed provider and a local
// deterministic heuristic.
//
// The external provider is an unreliable oracle. The gateway composition
// guarantees the analysis pipeline never blocks on it and never sees its
// failures: any error class (missing credentials, non-2xx, timeout,
// malformed payload) resolves to the heuristic fallback. The provider name
// in the result tells downstream consumers which path produced the verdict
// so heuristic confidence can be discounted.
package classifier

import "context"

// Provider names reported in results.
const (
	ProviderGPTZero   = "gptzero"
	ProviderHeuristic = "local-heuristic"
)

// MinTextLength is the minimum text length worth classifying. Shorter text
// is skipped entirely; that is not a failure.
const MinTextLength = 50

// aiScoreThreshold is the score above which text is called AI-generated.
const aiScoreThreshold = 0.6

// Result is a classification verdict.
type Result struct {
	// IsAiGenerated is true when Score exceeds the decision threshold.
	IsAiGenerated bool `json:"isAiGenerated"`

	// Score in [0,1]: the estimated probability the text is AI-generated,
	// folding mixed-authorship mass in at half weight.
	Score float64 `json:"score"`

	// Provider identifies which classifier produced this verdict.
	Provider string `json:"provider"`

	// Details carries optional provider diagnostics.
	Details map[string]float64 `json:"details,omitempty"`
}

// TextClassifier classifies a document as human- or AI-written.
type TextClassifier interface {
	Classify(ctx context.Context, text string) (*Result, error)
}

// Eligible reports whether text is long enough to classify.
func Eligible(text string) bool {
	return len(text) >= MinTextLength
}
