package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

// Sentinel tags substituted when classification cannot produce real tags.
const (
	// TagUncategorized is returned when the endpoint answered but no
	// usable tags could be parsed, or after HTTP-error retry exhaustion.
	TagUncategorized = "uncategorized"
	// TagError is returned after transport-failure retry exhaustion.
	TagError = "error"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxRetries   = 2
	defaultRetryBackoff = 2 * time.Second
)

// tagPrompt asks the vision model for single-word tags behind a fixed
// marker so the response is parseable even when the model rambles.
const tagPrompt = `Look at this image and provide ONLY 5-10 simple single-word tags.

RULES:
- Use ONLY single words (no phrases)
- Include subject matter, colors, mood, setting, visual elements
- DO NOT use explanations or descriptions
- DO NOT number your tags
- DO NOT include sentences
- Each tag should be a single word
- Separate tags with commas only

Example good result: sunset, beach, ocean, rocks, silhouette, orange, peaceful, horizon, nature, coastal

Your response should ONLY contain:
TAGS: tag1, tag2, tag3, tag4, tag5, tag6, tag7, tag8, tag9, tag10`

// tagsMarker prefixes the tag list in a well-formed model response.
const tagsMarker = "TAGS:"

// Config configures a classifier Client. Zero values take defaults.
type Config struct {
	// Endpoint is the URL of the vision-inference generate API.
	Endpoint string
	// Model is the model identifier sent with each request.
	Model string
	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration
	// MaxRetries is the number of retry attempts after the first request
	// (default 2).
	MaxRetries int
	// RetryBackoff is the fixed delay between attempts (default 2s).
	RetryBackoff time.Duration
}

// Client classifies images by calling a remote vision model. It never
// returns an error past its boundary: after the retry budget is
// exhausted it degrades to a sentinel tag set so the import pipeline can
// still create a record.
type Client struct {
	endpoint     string
	model        string
	maxRetries   int
	retryBackoff time.Duration
	httpClient   *http.Client
}

// New creates a classifier Client from the given configuration.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	return &Client{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
	}
}

// generateRequest is the wire format of the vision-inference endpoint.
type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Classify returns a non-empty ordered set of single-word tags for the
// image at path. Transient failures are retried with a fixed backoff;
// after budget exhaustion a transport failure yields {error} and an HTTP
// non-success yields {uncategorized}.
func (c *Client) Classify(ctx context.Context, imagePath string) []string {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		logging.Error("Error reading image for classification %s: %v", imagePath, err)
		metrics.ClassifierSentinelsTotal.WithLabelValues(TagError).Inc()
		return []string{TagError}
	}

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: tagPrompt,
		Images: []string{base64.StdEncoding.EncodeToString(data)},
		Stream: false,
	})
	if err != nil {
		logging.Error("Error encoding classification request: %v", err)
		metrics.ClassifierSentinelsTotal.WithLabelValues(TagError).Inc()
		return []string{TagError}
	}

	// Explicit bounded retry loop: the first attempt plus maxRetries
	// retries, with a fixed delay between attempts.
	var lastErr error
	lastStatus := 0
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			logging.Warn("Retrying classifier request for %s... (%d attempts left)",
				imagePath, c.maxRetries-attempt+1)
			metrics.ClassifierRetriesTotal.Inc()
			time.Sleep(c.retryBackoff)
		}

		tags, status, err := c.request(ctx, body)
		if err == nil && status == http.StatusOK {
			metrics.ClassifierRequestsTotal.WithLabelValues("ok").Inc()
			return tags
		}

		lastErr = err
		lastStatus = status
		if err != nil {
			metrics.ClassifierRequestsTotal.WithLabelValues("transport_error").Inc()
		} else {
			metrics.ClassifierRequestsTotal.WithLabelValues("http_error").Inc()
		}
	}

	if lastErr != nil {
		logging.Error("Failed to reach classifier at %s: %v", c.endpoint, lastErr)
		metrics.ClassifierSentinelsTotal.WithLabelValues(TagError).Inc()
		return []string{TagError}
	}

	logging.Error("Classifier returned HTTP %d for %s", lastStatus, imagePath)
	metrics.ClassifierSentinelsTotal.WithLabelValues(TagUncategorized).Inc()
	return []string{TagUncategorized}
}

// request performs a single classification round trip. A non-nil error
// means transport failure; otherwise status carries the HTTP result.
func (c *Client) request(ctx context.Context, body []byte) ([]string, int, error) {
	start := time.Now()
	defer func() {
		metrics.ClassifierRequestDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("failed to decode classifier response: %w", err)
	}

	return ParseTags(result.Response), http.StatusOK, nil
}

// ParseTags extracts single-word tags from a model response. It looks
// for the TAGS: marker and splits the remainder on commas, falling back
// to splitting the whole response when the marker is missing. Tokens
// containing whitespace (malformed multi-word tags) and empty tokens are
// discarded; an empty result substitutes the uncategorized sentinel.
func ParseTags(response string) []string {
	text := response
	if idx := strings.Index(response, tagsMarker); idx >= 0 {
		text = response[idx+len(tagsMarker):]
	}

	var tags []string
	for _, token := range strings.Split(text, ",") {
		tag := strings.TrimSpace(token)
		if tag == "" || strings.ContainsAny(tag, " \t\n") {
			continue
		}
		tags = append(tags, tag)
	}

	if len(tags) == 0 {
		return []string{TagUncategorized}
	}
	return tags
}
