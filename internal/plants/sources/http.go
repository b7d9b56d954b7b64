package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/i474232898/plant-moisture-dashboard/internal/plants"
)

// DefaultReadingsPath is resolved against the backend base URL the same way
// a browser resolves a relative fetch.
const DefaultReadingsPath = "api/readings"

// Backoff bounds used when RetryConfig leaves them unset.
const (
	DefaultRetryInitialInterval = 500 * time.Millisecond
	DefaultRetryMaxInterval     = 5 * time.Second
)

// breakerTimeout is how long an open breaker rejects calls before probing.
const breakerTimeout = 30 * time.Second

// HTTPSource implements plants.Source against the backend readings endpoint.
type HTTPSource struct {
	name     string
	endpoint string
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

// NewHTTPSource resolves path against baseURL and returns a source fetching it.
func NewHTTPSource(client *http.Client, baseURL, path string, retry RetryConfig) (*HTTPSource, error) {
	endpoint, err := resolveEndpoint(baseURL, path)
	if err != nil {
		return nil, err
	}

	if retry.InitialInterval <= 0 {
		retry.InitialInterval = DefaultRetryInitialInterval
	}
	if retry.MaxInterval <= 0 {
		retry.MaxInterval = DefaultRetryMaxInterval
	}

	// Without retries every poll issues exactly one request, so the
	// breaker only guards the retrying policy.
	var cb *gobreaker.CircuitBreaker
	if retry.MaxRetries > 0 {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "readings",
			MaxRequests: 1,
			Interval:    1 * time.Minute,
			Timeout:     breakerTimeout,
		})
	}

	return &HTTPSource{
		name:     "readings-http",
		endpoint: endpoint,
		httpCfg: HTTPClientConfig{
			Client: client,
			Retry:  retry,
		},
		circuit: cb,
	}, nil
}

func (s *HTTPSource) Name() string {
	return s.name
}

// Endpoint returns the absolute URL being polled.
func (s *HTTPSource) Endpoint() string {
	return s.endpoint
}

// FetchBudget returns the longest a single Fetch can take when each attempt
// is bounded by perAttempt: every attempt plus the worst-case randomized
// sleeps between them. A perAttempt <= 0 means unbounded and yields 0.
func (s *HTTPSource) FetchBudget(perAttempt time.Duration) time.Duration {
	if perAttempt <= 0 {
		return 0
	}
	retries := time.Duration(s.httpCfg.Retry.MaxRetries)
	maxSleep := time.Duration(float64(s.httpCfg.Retry.MaxInterval) * (1 + backoff.DefaultRandomizationFactor))
	return perAttempt*(retries+1) + maxSleep*retries
}

// Fetch issues one GET and decodes the body as a list of readings.
func (s *HTTPSource) Fetch(ctx context.Context) ([]plants.SensorReading, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read readings body: %w", err)
	}

	var payload []plants.SensorReading
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if payload == nil {
		// A literal null decodes without error but is not a list.
		return nil, fmt.Errorf("%w: body is not an array", ErrMalformedPayload)
	}

	return payload, nil
}

func resolveEndpoint(baseURL, path string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("backend url %q must be absolute", baseURL)
	}

	if path == "" {
		path = DefaultReadingsPath
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid readings path: %w", err)
	}

	return base.ResolveReference(ref).String(), nil
}
