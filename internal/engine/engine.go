// Package engine orchestrates one integrity analysis: feature extraction,
// the anomaly detector bank, calibration comparison, content
// classification, score fusion, and the evidence timeline.
//
// Analyses share no state; any number may run in parallel. The only
// suspension point is the classifier call, which runs concurrently with
// the behavioral pipeline and is bounded by the caller's context.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"integrityd/internal/actionlog"
	"integrityd/internal/activity"
	"integrityd/internal/calibration"
	"integrityd/internal/classifier"
	"integrityd/internal/detectors"
	"integrityd/internal/features"
	"integrityd/internal/fusion"
	"integrityd/internal/metrics"
	"integrityd/internal/store"
	"integrityd/internal/timeline"
)

// ErrInvalidRequest marks rejections the caller can fix: an empty or
// unordered action log. Everything else is an internal fault.
var ErrInvalidRequest = errors.New("invalid analysis request")

// Request is one analysis call's input.
type Request struct {
	// Actions is the session's action log. Required.
	Actions actionlog.Log

	// ReferenceActions is the optional personal calibration baseline.
	ReferenceActions actionlog.Log

	// TextContent is the final text, when available, for content
	// classification and archival.
	TextContent string

	// SubmissionID ties the analysis to an external submission.
	SubmissionID string
}

// Summary is the headline numbers of a result.
type Summary struct {
	TotalFlags    int     `json:"totalFlags"`
	HighRiskFlags int     `json:"highRiskFlags"`
	BehaviorScore float64 `json:"behaviorScore"`
	ContentScore  float64 `json:"contentScore"`
	Assessment    string  `json:"assessment"`
}

// Result is the terminal artifact of one analysis. Constructed once and
// never mutated afterward.
type Result struct {
	IsHuman         bool               `json:"isHuman"`
	ConfidenceScore float64            `json:"confidenceScore"`
	RiskLevel       activity.RiskLevel `json:"riskLevel"`

	Metrics              features.Metrics        `json:"metrics"`
	SuspiciousActivities []activity.Suspicious   `json:"suspiciousActivities"`
	ReferenceComparison  *calibration.Comparison `json:"referenceComparison,omitempty"`
	AiTextDetection      *classifier.Result      `json:"aiTextDetection,omitempty"`

	Summary  Summary          `json:"summary"`
	Timeline []timeline.Entry `json:"timeline"`

	// SubmissionID echoes the request's identifier.
	SubmissionID string `json:"submissionId,omitempty"`

	// StorageKey is the best-effort archive key for the submitted text.
	// Empty when no text was supplied or archival failed.
	StorageKey string `json:"storageKey,omitempty"`
}

// baselineDeviationMax is the overall calibration similarity below which a
// behavior-deviation activity is raised.
const baselineDeviationMax = 0.4

// Engine analyzes writing sessions.
type Engine struct {
	// bank is swapped atomically on config hot reload while analyses
	// read it from handler goroutines.
	bank       atomic.Pointer[detectors.Bank]
	tolerances calibration.Tolerances
	classifier classifier.TextClassifier
	archive    *store.Store
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Options configures an Engine. Classifier is required; Archive and
// Metrics are optional.
type Options struct {
	Tolerances calibration.Tolerances
	Thresholds detectors.Thresholds
	Classifier classifier.TextClassifier
	Archive    *store.Store
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// New creates an Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tol := opts.Tolerances
	if tol == (calibration.Tolerances{}) {
		tol = calibration.DefaultTolerances()
	}
	e := &Engine{
		tolerances: tol,
		classifier: opts.Classifier,
		archive:    opts.Archive,
		metrics:    opts.Metrics,
		logger:     logger,
	}
	e.bank.Store(detectors.NewBank(opts.Thresholds))
	return e
}

// SetThresholds swaps the detector thresholds, for config hot reload.
// Safe to call while analyses are in flight; each analysis uses the bank
// it loaded at its start.
func (e *Engine) SetThresholds(t detectors.Thresholds) {
	e.bank.Store(detectors.NewBank(t))
}

// Analyze runs the full pipeline for one session. The only rejection is an
// empty or unordered action log; every downstream degradation resolves to
// a degraded result, not an error.
func (e *Engine) Analyze(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if err := req.Actions.Validate(); err != nil {
		if e.metrics != nil {
			e.metrics.AnalysisErrors.Inc()
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	// The classifier call is the only blocking dependency; run it
	// alongside the pure behavioral pipeline.
	var content *classifier.Result
	g, gctx := errgroup.WithContext(ctx)
	if e.classifier != nil && classifier.Eligible(req.TextContent) {
		g.Go(func() error {
			result, err := e.classifier.Classify(gctx, req.TextContent)
			if err != nil {
				// Short text or an exhausted fallback; analysis
				// proceeds without a content verdict.
				e.logger.Debug("no content verdict", slog.String("error", err.Error()))
				return nil
			}
			content = result
			return nil
		})
	}

	m := features.Extract(req.Actions)
	activities := e.bank.Load().Detect(req.Actions, m)

	var comparison *calibration.Comparison
	if len(req.ReferenceActions) > 0 {
		ref := features.Extract(req.ReferenceActions)
		cmp := calibration.Compare(m, ref, len(req.ReferenceActions), e.tolerances)
		comparison = &cmp

		if cmp.Overall < baselineDeviationMax {
			activities = append(activities, activity.Suspicious{
				Kind:        activity.KindBehaviorDeviation,
				Severity:    activity.SeverityMedium,
				Confidence:  1 - cmp.Overall,
				Description: "Session deviates from the writer's calibration baseline",
				Evidence: []string{
					fmt.Sprintf("overall similarity %.2f to personal baseline", cmp.Overall),
					fmt.Sprintf("significance %.2f from %d reference actions", cmp.StatisticalSignificance, len(req.ReferenceActions)),
				},
			})
		}
	}

	_ = g.Wait() // classify goroutine never returns an error

	if content != nil && content.IsAiGenerated {
		activities = append(activities, activity.Suspicious{
			Kind:        activity.KindAiContent,
			Severity:    activity.SeverityHigh,
			Confidence:  content.Score,
			Description: "Submitted text reads as AI-generated",
			Evidence: []string{
				fmt.Sprintf("classifier score %.2f (provider %s)", content.Score, content.Provider),
			},
		})
	}

	verdict := fusion.Fuse(activities, comparison, content)

	result := &Result{
		IsHuman:              verdict.IsHuman,
		ConfidenceScore:      verdict.ConfidenceScore,
		RiskLevel:            verdict.RiskLevel,
		Metrics:              m,
		SuspiciousActivities: activities,
		ReferenceComparison:  comparison,
		AiTextDetection:      content,
		Summary:              summarize(activities, verdict),
		Timeline:             timeline.Build(req.Actions, activities),
		SubmissionID:         req.SubmissionID,
	}

	result.StorageKey = e.archiveText(req, result)

	if e.metrics != nil {
		e.metrics.AnalysesTotal.Inc()
		e.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
		for _, a := range activities {
			e.metrics.ActivitiesFlagged.WithLabelValues(string(a.Kind)).Inc()
		}
	}

	return result, nil
}

// archiveText stores the submitted text best-effort. Failures are logged
// and counted, never surfaced.
func (e *Engine) archiveText(req Request, result *Result) string {
	if e.archive == nil || req.TextContent == "" {
		return ""
	}

	key, err := e.archive.ArchiveText(req.SubmissionID, req.TextContent)
	if err != nil {
		e.logger.Warn("text archival failed", slog.String("error", err.Error()))
		if e.metrics != nil {
			e.metrics.ArchiveFailures.Inc()
		}
		return ""
	}

	if err := e.archive.RecordVerdict(key, req.SubmissionID, result.IsHuman,
		result.ConfidenceScore, string(result.RiskLevel), len(result.SuspiciousActivities)); err != nil {
		e.logger.Warn("verdict archival failed", slog.String("error", err.Error()))
	}
	return key
}

func summarize(activities []activity.Suspicious, verdict fusion.Verdict) Summary {
	return Summary{
		TotalFlags:    len(activities),
		HighRiskFlags: activity.CountBySeverity(activities, activity.SeverityHigh),
		BehaviorScore: verdict.BehaviorScore,
		ContentScore:  verdict.ContentScore,
		Assessment:    assess(verdict),
	}
}

func assess(v fusion.Verdict) string {
	switch v.RiskLevel {
	case activity.RiskCritical:
		return "Strong indicators of non-human or assisted authorship"
	case activity.RiskHigh:
		return "Multiple behaviors inconsistent with unassisted writing"
	case activity.RiskMedium:
		return "Some behaviors warrant manual review"
	default:
		return "Session is consistent with unassisted human writing"
	}
}
