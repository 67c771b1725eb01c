package screenwatch

import (
	"strings"
	"testing"

	"integrityd/internal/activity"
)

func findKind(activities []activity.Suspicious, kind activity.Kind) *activity.Suspicious {
	for i := range activities {
		if activities[i].Kind == kind {
			return &activities[i]
		}
	}
	return nil
}

// TestBlurLadder pins the duration boundaries of the blur severity ladder.
func TestBlurLadder(t *testing.T) {
	tests := []struct {
		name       string
		durationMs int64
		want       activity.Severity
	}{
		{"momentary_glance", 4_999, activity.SeverityLow},
		{"medium_boundary", 5_000, activity.SeverityMedium},
		{"below_high", 29_999, activity.SeverityMedium},
		{"high_boundary", 30_000, activity.SeverityHigh},
		{"below_critical", 119_999, activity.SeverityHigh},
		{"critical_boundary", 120_000, activity.SeverityCritical},
	}

	d := NewDetector(Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := []Event{
				{Kind: EventBlur, TimestampMs: 1000},
				{Kind: EventFocus, TimestampMs: 1000 + tt.durationMs},
			}
			got := d.Analyze(events)
			blur := findKind(got, activity.KindWindowBlur)
			if blur == nil {
				t.Fatal("no window_blur finding")
			}
			if blur.Severity != tt.want {
				t.Errorf("duration %dms severity = %v, want %v", tt.durationMs, blur.Severity, tt.want)
			}
			if blur.TimestampMs == nil || *blur.TimestampMs != 1000 {
				t.Errorf("blur timestamp = %v, want blur start 1000", blur.TimestampMs)
			}
		})
	}
}

func TestFocusReturnRecorded(t *testing.T) {
	d := NewDetector(Config{})
	got := d.Analyze([]Event{
		{Kind: EventBlur, TimestampMs: 0},
		{Kind: EventFocus, TimestampMs: 10_000},
	})

	focus := findKind(got, activity.KindWindowFocus)
	if focus == nil {
		t.Fatal("no window_focus finding on return")
	}
	if focus.Severity != activity.SeverityLow {
		t.Errorf("focus severity = %v, want low", focus.Severity)
	}
}

// TestTrailingBlur covers a blur never followed by a focus: the absence
// runs to the end of the capture and is still graded.
func TestTrailingBlur(t *testing.T) {
	d := NewDetector(Config{})
	got := d.Analyze([]Event{
		{Kind: EventBlur, TimestampMs: 0},
		{Kind: EventClipboard, TimestampMs: 200_000, Content: "x"},
	})

	blur := findKind(got, activity.KindWindowBlur)
	if blur == nil {
		t.Fatal("trailing blur not flagged")
	}
	if blur.Severity != activity.SeverityCritical {
		t.Errorf("200s trailing blur severity = %v, want critical", blur.Severity)
	}
}

func TestClipboardThreshold(t *testing.T) {
	d := NewDetector(Config{})

	small := d.Analyze([]Event{
		{Kind: EventClipboard, TimestampMs: 0, Content: strings.Repeat("x", 119)},
	})
	if f := findKind(small, activity.KindCopyPaste); f != nil {
		t.Errorf("119-char clipboard flagged: %+v", f)
	}

	large := d.Analyze([]Event{
		{Kind: EventClipboard, TimestampMs: 0, Content: strings.Repeat("x", 120)},
	})
	f := findKind(large, activity.KindCopyPaste)
	if f == nil {
		t.Fatal("120-char clipboard not flagged")
	}
	if f.Severity != activity.SeverityHigh {
		t.Errorf("clipboard severity = %v, want high", f.Severity)
	}
	if f.Excerpt == "" {
		t.Error("clipboard finding should carry an excerpt")
	}
}

func TestNavigationAiTool(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"exact_domain", "https://chatgpt.com/c/abc123"},
		{"subdomain", "https://www.chatgpt.com/"},
		{"claude", "https://claude.ai/new"},
	}

	d := NewDetector(Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Analyze([]Event{
				{Kind: EventNavigation, TimestampMs: 50, Content: tt.url},
			})
			f := findKind(got, activity.KindAiToolDetected)
			if f == nil {
				t.Fatalf("%s not flagged as AI tool", tt.url)
			}
			if f.Severity != activity.SeverityCritical {
				t.Errorf("AI tool severity = %v, want critical", f.Severity)
			}
		})
	}
}

func TestNavigationSuspiciousPattern(t *testing.T) {
	d := NewDetector(Config{})
	// Pattern matching is case-insensitive and positional anywhere in the URL.
	got := d.Analyze([]Event{
		{Kind: EventNavigation, TimestampMs: 50, Content: "https://example.com/services/Write My Essay/order"},
	})

	f := findKind(got, activity.KindSuspiciousUrl)
	if f == nil {
		t.Fatal("essay-mill URL not flagged")
	}
	if f.Severity != activity.SeverityHigh {
		t.Errorf("suspicious URL severity = %v, want high", f.Severity)
	}
}

func TestNavigationPlainTabChange(t *testing.T) {
	d := NewDetector(Config{})
	got := d.Analyze([]Event{
		{Kind: EventNavigation, TimestampMs: 50, Content: "https://en.wikipedia.org/wiki/Bread"},
	})

	f := findKind(got, activity.KindTabChange)
	if f == nil {
		t.Fatal("navigation not recorded as tab change")
	}
	if f.Severity != activity.SeverityLow {
		t.Errorf("tab change severity = %v, want low", f.Severity)
	}
	if findKind(got, activity.KindAiToolDetected) != nil || findKind(got, activity.KindSuspiciousUrl) != nil {
		t.Errorf("benign navigation over-flagged: %+v", got)
	}
}

func TestEmptyConfigGetsDefaults(t *testing.T) {
	d := NewDetector(Config{})
	got := d.Analyze([]Event{
		{Kind: EventNavigation, TimestampMs: 0, Content: "https://gemini.google.com/"},
	})
	if findKind(got, activity.KindAiToolDetected) == nil {
		t.Error("default blocklist not applied for empty config")
	}
}

func TestCustomBlocklistReplacesDefaults(t *testing.T) {
	d := NewDetector(Config{AiToolDomains: []string{"internal-llm.example.edu"}})

	got := d.Analyze([]Event{
		{Kind: EventNavigation, TimestampMs: 0, Content: "https://internal-llm.example.edu/chat"},
	})
	if findKind(got, activity.KindAiToolDetected) == nil {
		t.Error("custom domain not flagged")
	}

	got = d.Analyze([]Event{
		{Kind: EventNavigation, TimestampMs: 0, Content: "https://chatgpt.com/"},
	})
	if findKind(got, activity.KindAiToolDetected) != nil {
		t.Error("stock domain flagged despite custom blocklist")
	}
}
