package classifier

import (
	"context"
	"math"
	"regexp"
	"strings"
)

// HeuristicClassifier is the local, dependency-free fallback. It is a pure
// function of the text: the same input always yields the same verdict, so
// degraded-mode results stay reproducible and testable.
type HeuristicClassifier struct{}

// NewHeuristicClassifier creates the fallback classifier.
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

// Scoring constants for the fallback heuristic.
const (
	phraseMatchWeight     = 0.30
	lowVarianceWeight     = 0.20
	lowVarianceCV         = 0.30
	transitionDenseWeight = 0.25
	// transitionDensity above which transition-word usage reads as
	// machine-polished, in transitions per word.
	transitionDensityHigh = 0.04
)

// aiPhrasePatterns match self-referential phrasing that language models
// produce and human essayists do not.
var aiPhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bas an ai\b`),
	regexp.MustCompile(`(?i)\bas a language model\b`),
	regexp.MustCompile(`(?i)\bi (?:do not|don't) have personal (?:opinions|experiences)\b`),
	regexp.MustCompile(`(?i)\bit is important to note that\b`),
	regexp.MustCompile(`(?i)\bit'?s worth noting that\b`),
	regexp.MustCompile(`(?i)\bin conclusion, it is (?:clear|evident)\b`),
	regexp.MustCompile(`(?i)\bdelve into\b`),
	regexp.MustCompile(`(?i)\bmultifaceted\b`),
	regexp.MustCompile(`(?i)\brich tapestry\b`),
}

var transitionLexicon = map[string]struct{}{
	"furthermore": {}, "moreover": {}, "additionally": {}, "consequently": {},
	"nevertheless": {}, "nonetheless": {}, "subsequently": {}, "accordingly": {},
	"therefore": {}, "thus": {}, "hence": {}, "however": {},
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	wordFinder    = regexp.MustCompile(`[a-zA-Z0-9']+`)
)

// Classify scores the text with local heuristics, clamped to [0,1].
func (h *HeuristicClassifier) Classify(_ context.Context, text string) (*Result, error) {
	if !Eligible(text) {
		return nil, ErrTextTooShort
	}

	words := wordFinder.FindAllString(strings.ToLower(text), -1)

	score := 0.0
	phraseHits := 0
	for _, re := range aiPhrasePatterns {
		if re.MatchString(text) {
			phraseHits++
		}
	}
	score += phraseMatchWeight * float64(phraseHits)

	transitions := 0
	for _, w := range words {
		if _, ok := transitionLexicon[w]; ok {
			transitions++
		}
	}
	density := float64(transitions) / float64(maxInt(1, len(words)))
	if density > transitionDensityHigh {
		ramp := (density - transitionDensityHigh) / transitionDensityHigh
		if ramp > 1 {
			ramp = 1
		}
		score += transitionDenseWeight * ramp
	}

	// Humans vary sentence length; very low variance reads as generated.
	if cv := sentenceLengthCV(text); cv > 0 && cv < lowVarianceCV {
		score += lowVarianceWeight
	}

	if score > 1 {
		score = 1
	}

	return &Result{
		IsAiGenerated: score > aiScoreThreshold,
		Score:         score,
		Provider:      ProviderHeuristic,
		Details: map[string]float64{
			"phrase_hits":        float64(phraseHits),
			"transition_density": density,
			"sentence_length_cv": sentenceLengthCV(text),
		},
	}, nil
}

// sentenceLengthCV is the coefficient of variation of sentence word counts.
// Returns 0 when fewer than two sentences are present.
func sentenceLengthCV(text string) float64 {
	var lengths []float64
	for _, s := range sentenceSplit.Split(text, -1) {
		n := len(wordFinder.FindAllString(s, -1))
		if n > 0 {
			lengths = append(lengths, float64(n))
		}
	}
	if len(lengths) < 2 {
		return 0
	}

	m := 0.0
	for _, l := range lengths {
		m += l
	}
	m /= float64(len(lengths))
	if m <= 0 {
		return 0
	}

	variance := 0.0
	for _, l := range lengths {
		d := l - m
		variance += d * d
	}
	variance /= float64(len(lengths))

	return math.Sqrt(variance) / m
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
