package classifier

import (
	"context"
	"log/slog"
)

// FallbackClassifier tries a primary classifier and degrades to a fallback
// on any error. The composition itself returns an error only when the text
// is too short to classify at all; every dependency failure is absorbed.
type FallbackClassifier struct {
	primary  TextClassifier
	fallback TextClassifier
	logger   *slog.Logger

	// onFallback is invoked once per degraded classification, for
	// instrumentation.
	onFallback func()
}

// NewFallbackClassifier composes primary and fallback classifiers.
func NewFallbackClassifier(primary, fallback TextClassifier, logger *slog.Logger) *FallbackClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackClassifier{primary: primary, fallback: fallback, logger: logger}
}

// OnFallback registers a hook called whenever the fallback path is taken.
func (f *FallbackClassifier) OnFallback(fn func()) {
	f.onFallback = fn
}

// Classify returns the primary verdict when available, the fallback verdict
// otherwise. Degradation is logged, never propagated.
func (f *FallbackClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	if !Eligible(text) {
		return nil, ErrTextTooShort
	}

	result, err := f.primary.Classify(ctx, text)
	if err == nil {
		return result, nil
	}

	f.logger.Warn("external classifier unavailable, using local heuristic",
		slog.String("error", err.Error()))
	if f.onFallback != nil {
		f.onFallback()
	}

	return f.fallback.Classify(ctx, text)
}
