package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// Gateway errors. These never escape the fallback composition; they exist
// so tests and logs can distinguish failure classes.
var (
	ErrNoAPIKey     = errors.New("classifier API key not configured")
	ErrBadStatus    = errors.New("classifier returned non-2xx status")
	ErrBadPayload   = errors.New("classifier response missing class probabilities")
	ErrTextTooShort = errors.New("text below minimum classification length")
)

// HTTPConfig configures the external classifier client.
type HTTPConfig struct {
	// Endpoint is the classifier URL.
	Endpoint string

	// APIKey authenticates requests. Empty means unauthenticated; every
	// call fails fast with ErrNoAPIKey and the fallback takes over.
	APIKey string

	// Version is the provider API version sent with each document.
	Version string

	// Timeout bounds each classification call. One attempt, no retries.
	Timeout time.Duration

	// RequestsPerSecond rate-limits calls to the provider. Zero disables
	// limiting.
	RequestsPerSecond float64
}

// DefaultHTTPConfig returns the documented client defaults.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Endpoint: "https://api.gptzero.me/v2/predict/text",
		Version:  "2024-01-09",
		Timeout:  10 * time.Second,
	}
}

// HTTPClassifier calls the external classification provider.
type HTTPClassifier struct {
	config  HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPClassifier creates an HTTP-backed classifier.
func NewHTTPClassifier(config HTTPConfig) *HTTPClassifier {
	if config.Timeout <= 0 {
		config.Timeout = DefaultHTTPConfig().Timeout
	}
	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	return &HTTPClassifier{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: limiter,
	}
}

// Classify sends the document to the provider and maps its class
// probabilities to a single score. Any failure is returned as an error for
// the fallback composition to absorb; this method never fabricates a
// verdict.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	if !Eligible(text) {
		return nil, ErrTextTooShort
	}
	if c.config.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(map[string]string{
		"document": text,
		"version":  c.config.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return parseProviderResponse(payload)
}

// parseProviderResponse extracts class probabilities from the provider's
// response. Optional detail arrays (per-sentence, per-paragraph) may be
// missing; only the probability block is required.
func parseProviderResponse(payload []byte) (*Result, error) {
	if !gjson.ValidBytes(payload) {
		return nil, ErrBadPayload
	}

	probs := gjson.GetBytes(payload, "documents.0.class_probabilities")
	if !probs.Exists() {
		return nil, ErrBadPayload
	}

	humanProb := probs.Get("human")
	aiProb := probs.Get("ai")
	mixedProb := probs.Get("mixed")

	// A probability block with none of the expected classes is as useless
	// as a missing one; scoring it would report a confident human verdict
	// under the provider's name.
	if !humanProb.Exists() && !aiProb.Exists() && !mixedProb.Exists() {
		return nil, ErrBadPayload
	}

	human := humanProb.Float()
	ai := aiProb.Float()
	mixed := mixedProb.Float()

	score := ai + 0.5*mixed
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return &Result{
		IsAiGenerated: score > aiScoreThreshold,
		Score:         score,
		Provider:      ProviderGPTZero,
		Details: map[string]float64{
			"human": human,
			"ai":    ai,
			"mixed": mixed,
		},
	}, nil
}
