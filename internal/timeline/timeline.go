// Package timeline merges detected activities with session boundaries into
// one chronologically ordered view for human review.
package timeline

import (
	"sort"

	"integrityd/internal/actionlog"
	"integrityd/internal/activity"
)

// EntryType discriminates timeline entries.
type EntryType string

const (
	EntrySessionStart EntryType = "session_start"
	EntrySessionEnd   EntryType = "session_end"
	EntryActivity     EntryType = "activity"
)

// Risk is the collapsed three-level rating used on the review surface.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Entry is one timeline row.
type Entry struct {
	TimestampMs int64         `json:"timestamp"`
	Type        EntryType     `json:"type"`
	Risk        Risk          `json:"risk"`
	Description string        `json:"description"`
	Kind        activity.Kind `json:"kind,omitempty"`
}

// Build produces the review timeline: a synthetic start marker at the first
// action, an end marker at the last, and one entry per timestamped
// activity. The result is sorted by timestamp ascending; equal timestamps
// keep insertion order.
func Build(log actionlog.Log, activities []activity.Suspicious) []Entry {
	var entries []Entry

	if len(log) > 0 {
		first, last := log.Span()
		entries = append(entries, Entry{
			TimestampMs: first,
			Type:        EntrySessionStart,
			Risk:        RiskLow,
			Description: "Session started",
		})
		entries = append(entries, Entry{
			TimestampMs: last,
			Type:        EntrySessionEnd,
			Risk:        RiskLow,
			Description: "Session completed",
		})
	}

	for _, a := range activities {
		if a.TimestampMs == nil {
			continue
		}
		entries = append(entries, Entry{
			TimestampMs: *a.TimestampMs,
			Type:        EntryActivity,
			Risk:        collapseRisk(a.Severity),
			Description: a.Description,
			Kind:        a.Kind,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TimestampMs < entries[j].TimestampMs
	})
	return entries
}

// collapseRisk folds the four severities onto the three timeline levels:
// critical and high collapse to high, medium stays, the rest is low.
func collapseRisk(s activity.Severity) Risk {
	switch {
	case s >= activity.SeverityHigh:
		return RiskHigh
	case s == activity.SeverityMedium:
		return RiskMedium
	default:
		return RiskLow
	}
}
