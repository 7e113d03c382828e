package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/sketchguess/internal/model"
)

// Config holds classifier endpoint settings
type Config struct {
	// URL is the full prediction endpoint, e.g. http://localhost:5000/predict
	URL string
	// Timeout bounds each request; keep it below the frame cooldown
	Timeout time.Duration
}

// DefaultConfig returns the default classifier settings
func DefaultConfig() Config {
	return Config{
		URL:     "http://localhost:5000/predict",
		Timeout: 1500 * time.Millisecond,
	}
}

// Classifier turns a canvas snapshot into a label distribution
type Classifier interface {
	Classify(ctx context.Context, frame string) (map[string]float64, error)
}

// predictRequest is the request body sent to the classifier
type predictRequest struct {
	DataURL string `json:"dataUrl"`
}

// predictResponse is the classifier's response body
type predictResponse struct {
	Success        bool               `json:"success"`
	PredictedClass string             `json:"predicted_class"`
	Probabilities  map[string]float64 `json:"probabilities"`
	Error          string             `json:"error"`
}

// Client is an HTTP client for the image classifier
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// Ensure Client implements Classifier
var _ Classifier = (*Client)(nil)

// NewClient creates a new classifier client
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Client{
		url: strings.TrimSuffix(cfg.URL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With(slog.String("component", "classifier")),
	}
}

// Classify posts the frame and returns the label probabilities.
// Every failure wraps model.ErrClassifierUnavailable.
func (c *Client) Classify(ctx context.Context, frame string) (map[string]float64, error) {
	data, err := json.Marshal(predictRequest{DataURL: frame})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", model.ErrClassifierUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", model.ErrClassifierUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrClassifierUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", model.ErrClassifierUnavailable, err)
	}

	var parsed predictResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: HTTP %d: unparseable body", model.ErrClassifierUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 || !parsed.Success {
		return nil, fmt.Errorf("%w: HTTP %d: %s", model.ErrClassifierUnavailable, resp.StatusCode, parsed.Error)
	}
	if len(parsed.Probabilities) == 0 {
		return nil, fmt.Errorf("%w: empty distribution", model.ErrClassifierUnavailable)
	}

	c.logger.Debug("classification complete",
		slog.String("predicted_class", parsed.PredictedClass),
		slog.Duration("duration", time.Since(start)))

	return parsed.Probabilities, nil
}
