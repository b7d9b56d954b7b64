package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// RetryConfig controls exponential backoff between attempts.
// MaxRetries 0 means a single attempt; a failed poll then waits for the
// next scheduled tick.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client *http.Client
	Retry  RetryConfig
}

var (
	// ErrCircuitOpen is returned without contacting the backend while the
	// breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")
	// ErrMalformedPayload wraps bodies that do not decode as a reading list.
	ErrMalformedPayload = errors.New("malformed readings payload")

	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid retry configuration")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// StatusCode returns the HTTP status of the failed response.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// retryable reports whether another attempt could plausibly succeed.
func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// doRequestWithResilience executes the request, retrying transport errors,
// 429 and 5xx with exponential backoff. A nil cb sends every attempt
// straight to the backend.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Retry.MaxRetries < 0 {
		return nil, errInvalidConfig
	}

	exp := backoff.NewExponentialBackOff()
	if cfg.Retry.InitialInterval > 0 {
		exp.InitialInterval = cfg.Retry.InitialInterval
	}
	if cfg.Retry.MaxInterval > 0 {
		exp.MaxInterval = cfg.Retry.MaxInterval
	}
	exp.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(cfg.Retry.MaxRetries)), ctx)

	var resp *http.Response
	operation := func() error {
		req, err := buildRequest(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}

		send := func() (interface{}, error) {
			r, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if r.StatusCode < 200 || r.StatusCode >= 300 {
				_, _ = io.Copy(io.Discard, r.Body)
				r.Body.Close()
				return nil, &StatusError{Code: r.StatusCode}
			}
			return r, nil
		}

		var result interface{}
		if cb != nil {
			result, err = cb.Execute(send)
		} else {
			result, err = send()
		}
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(fmt.Errorf("%w: %v", ErrCircuitOpen, err))
			}
			var statusErr *StatusError
			if errors.As(err, &statusErr) && !statusErr.retryable() {
				return backoff.Permanent(err)
			}
			return err
		}

		r, ok := result.(*http.Response)
		if !ok {
			return backoff.Permanent(fmt.Errorf("unexpected result type from circuit breaker"))
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return resp, nil
}
