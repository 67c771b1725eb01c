// Package screenwatch analyzes browser/runtime activity captured during a
// timed assessment: window focus and blur, clipboard snapshots, and page
// navigation.
//
// It imposes no capture mechanism; a collaborator supplies the ordered
// event list and this package applies a duration-based severity ladder and
// a domain/pattern blocklist. Findings use the same suspicious-activity
// shape as the behavioral detectors so one review surface can merge both.
package screenwatch

import (
	"fmt"
	"net/url"
	"strings"

	"integrityd/internal/activity"
)

// EventKind identifies a screen event.
type EventKind string

const (
	EventFocus      EventKind = "focus"
	EventBlur       EventKind = "blur"
	EventClipboard  EventKind = "clipboard"
	EventNavigation EventKind = "navigation"
)

// Event is one observed screen/runtime event. Content holds the clipboard
// snapshot for clipboard events and the URL for navigation events.
type Event struct {
	Kind        EventKind `json:"kind"`
	TimestampMs int64     `json:"timestamp"`
	Content     string    `json:"content,omitempty"`
}

// Blur-duration severity ladder, in milliseconds.
const (
	blurMediumMs   = 5_000
	blurHighMs     = 30_000
	blurCriticalMs = 120_000
)

// clipboardMinChars is the snapshot length above which a clipboard event
// is flagged as a copy/paste of external material.
const clipboardMinChars = 120

// Config holds the blocklists. Domains match exactly or by suffix;
// patterns match case-insensitively anywhere in the URL.
type Config struct {
	AiToolDomains []string `toml:"ai_tool_domains" json:"ai_tool_domains" yaml:"ai_tool_domains"`
	UrlPatterns   []string `toml:"url_patterns" json:"url_patterns" yaml:"url_patterns"`
}

// DefaultConfig returns the stock blocklists.
func DefaultConfig() Config {
	return Config{
		AiToolDomains: []string{
			"chat.openai.com",
			"chatgpt.com",
			"claude.ai",
			"gemini.google.com",
			"copilot.microsoft.com",
			"perplexity.ai",
			"poe.com",
			"you.com",
		},
		UrlPatterns: []string{
			"write my essay",
			"essay generator",
			"homework answers",
			"paraphrasing tool",
			"humanize ai",
		},
	}
}

// Detector applies the screen-activity rules.
type Detector struct {
	config Config
}

// NewDetector creates a screen-activity detector. An empty config gets the
// stock blocklists.
func NewDetector(config Config) *Detector {
	if len(config.AiToolDomains) == 0 && len(config.UrlPatterns) == 0 {
		config = DefaultConfig()
	}
	return &Detector{config: config}
}

// Analyze walks the event list in order and emits findings.
func (d *Detector) Analyze(events []Event) []activity.Suspicious {
	var out []activity.Suspicious

	blurStart := int64(-1)
	var lastTs int64
	for _, ev := range events {
		lastTs = ev.TimestampMs
		switch ev.Kind {
		case EventBlur:
			blurStart = ev.TimestampMs
		case EventFocus:
			if blurStart >= 0 {
				out = append(out, blurFinding(blurStart, ev.TimestampMs-blurStart))
				out = append(out, activity.Suspicious{
					Kind:        activity.KindWindowFocus,
					Severity:    activity.SeverityLow,
					Confidence:  1,
					Description: "Assessment window regained focus",
					Evidence:    []string{fmt.Sprintf("focus returned after %dms away", ev.TimestampMs-blurStart)},
					TimestampMs: activity.At(ev.TimestampMs),
				})
				blurStart = -1
			}
		case EventClipboard:
			if f, ok := d.clipboardFinding(ev); ok {
				out = append(out, f)
			}
		case EventNavigation:
			out = append(out, d.navigationFindings(ev)...)
		}
	}

	// A blur never followed by a focus runs to the end of the capture.
	if blurStart >= 0 && lastTs > blurStart {
		out = append(out, blurFinding(blurStart, lastTs-blurStart))
	}

	return out
}

// blurFinding grades time away from the assessment window on the ladder.
func blurFinding(at, durationMs int64) activity.Suspicious {
	var severity activity.Severity
	switch {
	case durationMs >= blurCriticalMs:
		severity = activity.SeverityCritical
	case durationMs >= blurHighMs:
		severity = activity.SeverityHigh
	case durationMs >= blurMediumMs:
		severity = activity.SeverityMedium
	default:
		severity = activity.SeverityLow
	}

	confidence := float64(durationMs) / blurCriticalMs
	if confidence > 1 {
		confidence = 1
	}

	return activity.Suspicious{
		Kind:        activity.KindWindowBlur,
		Severity:    severity,
		Confidence:  confidence,
		Description: "Assessment window lost focus",
		Evidence: []string{
			fmt.Sprintf("window unfocused for %dms", durationMs),
			fmt.Sprintf("brief glances are normal; %ds+ away suggests outside help", blurHighMs/1000),
		},
		TimestampMs: activity.At(at),
	}
}

func (d *Detector) clipboardFinding(ev Event) (activity.Suspicious, bool) {
	if len(ev.Content) < clipboardMinChars {
		return activity.Suspicious{}, false
	}

	confidence := float64(len(ev.Content)) / 500.0
	if confidence > 1 {
		confidence = 1
	}

	return activity.Suspicious{
		Kind:        activity.KindCopyPaste,
		Severity:    activity.SeverityHigh,
		Confidence:  confidence,
		Description: "Large block of external text on the clipboard",
		Evidence: []string{
			fmt.Sprintf("clipboard snapshot of %d chars", len(ev.Content)),
			fmt.Sprintf("snapshots above %d chars indicate copied source material", clipboardMinChars),
		},
		TimestampMs: activity.At(ev.TimestampMs),
		Excerpt:     clip(ev.Content, 80),
	}, true
}

func (d *Detector) navigationFindings(ev Event) []activity.Suspicious {
	var out []activity.Suspicious

	host := hostOf(ev.Content)
	if domain, ok := d.matchDomain(host); ok {
		out = append(out, activity.Suspicious{
			Kind:        activity.KindAiToolDetected,
			Severity:    activity.SeverityCritical,
			Confidence:  0.95,
			Description: "Navigation to a known AI writing tool",
			Evidence: []string{
				fmt.Sprintf("visited %s during the assessment", host),
				fmt.Sprintf("domain matches blocklist entry %q", domain),
			},
			TimestampMs: activity.At(ev.TimestampMs),
			Excerpt:     clip(ev.Content, 120),
		})
		return out
	}

	lower := strings.ToLower(ev.Content)
	for _, pattern := range d.config.UrlPatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			out = append(out, activity.Suspicious{
				Kind:        activity.KindSuspiciousUrl,
				Severity:    activity.SeverityHigh,
				Confidence:  0.8,
				Description: "Navigation to a suspicious page",
				Evidence: []string{
					fmt.Sprintf("URL matches pattern %q", pattern),
				},
				TimestampMs: activity.At(ev.TimestampMs),
				Excerpt:     clip(ev.Content, 120),
			})
			return out
		}
	}

	// Any other navigation during a timed assessment is a tab change.
	out = append(out, activity.Suspicious{
		Kind:        activity.KindTabChange,
		Severity:    activity.SeverityLow,
		Confidence:  0.5,
		Description: "Navigated away during the assessment",
		Evidence:    []string{fmt.Sprintf("visited %s", host)},
		TimestampMs: activity.At(ev.TimestampMs),
	})
	return out
}

// matchDomain matches a host against the blocklist exactly or as a
// subdomain.
func (d *Detector) matchDomain(host string) (string, bool) {
	host = strings.ToLower(host)
	for _, domain := range d.config.AiToolDomains {
		dl := strings.ToLower(domain)
		if host == dl || strings.HasSuffix(host, "."+dl) {
			return domain, true
		}
	}
	return "", false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Hostname()
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
