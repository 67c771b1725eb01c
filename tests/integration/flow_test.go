//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"integrityd/internal/classifier"
	"integrityd/internal/config"
	"integrityd/internal/engine"
	"integrityd/internal/metrics"
	"integrityd/internal/screenwatch"
	"integrityd/internal/server"
	"integrityd/internal/store"
)

// testEnv wires the full daemon stack in-process: config, metrics, store,
// classifier with fallback, engine, and the HTTP API.
type testEnv struct {
	server   *server.Server
	store    *store.Store
	registry *prometheus.Registry
}

// newTestEnv builds the stack the way cmd/integrityd does, with the
// external classifier pointed at the given endpoint (empty for none).
func newTestEnv(t *testing.T, classifierURL string) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	st, err := store.Open(filepath.Join(t.TempDir(), "submissions.db"))
	if err != nil {
		t.Fatalf("store.Open() error: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	primary := classifier.NewHTTPClassifier(classifier.HTTPConfig{
		Endpoint: classifierURL,
		APIKey:   "integration-test-key",
	})
	fallback := classifier.NewFallbackClassifier(primary, classifier.NewHeuristicClassifier(), nil)
	fallback.OnFallback(m.ClassifierFallbacks.Inc)

	eng := engine.New(engine.Options{
		Tolerances: cfg.Calibration.Tolerances(),
		Thresholds: cfg.Detectors,
		Classifier: fallback,
		Archive:    st,
		Metrics:    m,
	})

	srv := server.New(eng, screenwatch.NewDetector(cfg.Screen), cfg.Server, nil, reg)
	return &testEnv{server: srv, store: st, registry: reg}
}

func (env *testEnv) post(t *testing.T, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	return w
}

func typedSessionJSON() string {
	var actions []string
	ts := int64(0)
	gaps := []int64{140, 260, 95, 330, 170, 80, 410}
	for i := 0; i < 30; i++ {
		ts += gaps[i%len(gaps)]
		actions = append(actions, fmt.Sprintf(`{"kind": "insert", "timestamp": %d, "content": "a"}`, ts))
		if i%11 == 4 {
			ts += 2500
			actions = append(actions, fmt.Sprintf(`{"kind": "pause", "timestamp": %d, "pauseDurationMs": 2500}`, ts))
		}
		if i%13 == 6 {
			ts += 180
			actions = append(actions, fmt.Sprintf(`{"kind": "delete", "timestamp": %d}`, ts))
		}
	}
	return "[" + strings.Join(actions, ",") + "]"
}

// TestFullAnalysisFlow drives a complete analysis over HTTP: classifier
// degradation to the heuristic, text archival, verdict shape, and the
// metrics scrape afterwards.
func TestFullAnalysisFlow(t *testing.T) {
	// The provider always fails; classification must degrade, not error.
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer provider.Close()

	env := newTestEnv(t, provider.URL)

	text := strings.Repeat("An essay about the history of bread baking at home. ", 4)
	body := fmt.Sprintf(`{"actions": %s, "textContent": %q, "submissionId": "flow-1"}`,
		typedSessionJSON(), text)

	w := env.post(t, "/api/v1/analyze", body)
	if w.Code != http.StatusOK {
		t.Fatalf("analyze status = %d, body %s", w.Code, w.Body.String())
	}

	var result struct {
		IsHuman         bool    `json:"isHuman"`
		ConfidenceScore float64 `json:"confidenceScore"`
		RiskLevel       string  `json:"riskLevel"`
		SubmissionID    string  `json:"submissionId"`
		StorageKey      string  `json:"storageKey"`
		AiTextDetection *struct {
			Provider string `json:"provider"`
		} `json:"aiTextDetection"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}

	if result.SubmissionID != "flow-1" {
		t.Errorf("submissionId = %q, want flow-1", result.SubmissionID)
	}
	if result.AiTextDetection == nil {
		t.Fatal("no content verdict despite fallback heuristic")
	}
	if result.AiTextDetection.Provider != classifier.ProviderHeuristic {
		t.Errorf("provider = %q, want heuristic after provider outage", result.AiTextDetection.Provider)
	}

	// The submitted text must be retrievable under the returned key.
	if result.StorageKey == "" {
		t.Fatal("no storage key for archived text")
	}
	archived, err := env.store.LoadText(result.StorageKey)
	if err != nil {
		t.Fatalf("LoadText() error: %v", err)
	}
	if archived != text {
		t.Error("archived text does not round-trip")
	}

	// The fallback shows up on the scrape.
	scrape := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(scrape.Body.String(), "integrityd_classifier_fallbacks_total 1") {
		t.Error("classifier fallback not counted in metrics")
	}
	if !strings.Contains(scrape.Body.String(), "integrityd_analyses_total 1") {
		t.Error("analysis not counted in metrics")
	}
}

// TestPasteFlaggedOverHTTP submits a session with an obvious paste and
// checks the verdict surfaces it.
func TestPasteFlaggedOverHTTP(t *testing.T) {
	env := newTestEnv(t, "")

	pasted := strings.Repeat("x", 160)
	body := fmt.Sprintf(`{"actions": [
		{"kind": "insert", "timestamp": 0, "content": "In"},
		{"kind": "insert", "timestamp": 350, "content": "tro"},
		{"kind": "insert", "timestamp": 450, "content": %q},
		{"kind": "pause", "timestamp": 60000, "pauseDurationMs": 59550}
	]}`, pasted)

	w := env.post(t, "/api/v1/analyze", body)
	if w.Code != http.StatusOK {
		t.Fatalf("analyze status = %d, body %s", w.Code, w.Body.String())
	}

	var result struct {
		RiskLevel            string `json:"riskLevel"`
		SuspiciousActivities []struct {
			Kind string `json:"kind"`
		} `json:"suspiciousActivities"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}

	found := false
	for _, a := range result.SuspiciousActivities {
		if a.Kind == "paste" {
			found = true
		}
	}
	if !found {
		t.Errorf("paste not flagged: %+v", result.SuspiciousActivities)
	}
	if result.RiskLevel == "low" {
		t.Errorf("risk = %q, want elevated", result.RiskLevel)
	}
}

// TestScreenFlow drives the screen-activity endpoint end to end.
func TestScreenFlow(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.post(t, "/api/v1/screen/analyze", `{
		"events": [
			{"kind": "blur", "timestamp": 10000},
			{"kind": "focus", "timestamp": 145000},
			{"kind": "clipboard", "timestamp": 150000, "content": "`+strings.Repeat("c", 200)+`"}
		]
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("screen analyze status = %d, body %s", w.Code, w.Body.String())
	}

	var result struct {
		Activities []struct {
			Kind     string `json:"kind"`
			Severity string `json:"severity"`
		} `json:"activities"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}

	severities := map[string]string{}
	for _, a := range result.Activities {
		severities[a.Kind] = a.Severity
	}
	if severities["window_blur"] != "critical" {
		t.Errorf("135s blur severity = %q, want critical", severities["window_blur"])
	}
	if severities["copy_paste"] != "high" {
		t.Errorf("clipboard severity = %q, want high", severities["copy_paste"])
	}
}
