package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource(t *testing.T, baseURL string, retry RetryConfig) *HTTPSource {
	t.Helper()
	src, err := NewHTTPSource(&http.Client{Timeout: time.Second}, baseURL, DefaultReadingsPath, retry)
	require.NoError(t, err)
	return src
}

func TestResolveEndpoint(t *testing.T) {
	cases := map[string]string{
		"http://pi.local:8080":        "http://pi.local:8080/api/readings",
		"http://pi.local:8080/":       "http://pi.local:8080/api/readings",
		"http://pi.local/dashboard/":  "http://pi.local/dashboard/api/readings",
		"https://pi.local/index.html": "https://pi.local/api/readings",
	}
	for base, want := range cases {
		got, err := resolveEndpoint(base, "api/readings")
		require.NoError(t, err, base)
		assert.Equal(t, want, got, base)
	}

	_, err := resolveEndpoint("pi.local:8080", "api/readings")
	assert.Error(t, err)
	_, err = resolveEndpoint("/relative", "api/readings")
	assert.Error(t, err)
}

func TestFetchDecodesReadings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/readings", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"plantId": 2, "moisture": 75, "timestamp": "2024-01-01T10:00:00Z"},
			{"plantId": 1, "moisture": 25.5, "rawValue": 812, "serverTimestamp": "2024-01-01T10:00:00Z"}
		]`))
	}))
	defer srv.Close()

	got, err := newSource(t, srv.URL, RetryConfig{}).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].PlantID)
	assert.Equal(t, 75.0, got[0].Moisture)
	assert.Equal(t, "2024-01-01T10:00:00Z", got[0].Timestamp)
	assert.Equal(t, 25.5, got[1].Moisture)
	require.NotNil(t, got[1].RawValue)
	assert.Equal(t, 812, *got[1].RawValue)
	assert.Equal(t, "2024-01-01T10:00:00Z", got[1].SampledAt())
}

func TestFetchEmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	got, err := newSource(t, srv.URL, RetryConfig{}).Fetch(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetchNon2xxSurfacesStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newSource(t, srv.URL, RetryConfig{}).Fetch(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode())
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, int32(1), hits.Load(), "no retries by default")
}

func TestFetchMalformedPayload(t *testing.T) {
	for _, body := range []string{`{"plantId":1}`, `not json`, `null`, `[{"plantId":"one"}]`, `[{"plantId":1.5}]`, `[]garbage`, `[] []`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := newSource(t, srv.URL, RetryConfig{}).Fetch(context.Background())
		assert.ErrorIs(t, err, ErrMalformedPayload, "body %q", body)
		srv.Close()
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newSource(t, url, RetryConfig{}).Fetch(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
	assert.NotErrorIs(t, err, ErrMalformedPayload)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"plantId":1,"moisture":50,"timestamp":"2024-01-01T10:00:00Z"}]`))
	}))
	defer srv.Close()

	src := newSource(t, srv.URL, RetryConfig{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond})
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	src := newSource(t, srv.URL, RetryConfig{MaxRetries: 3, InitialInterval: time.Millisecond})
	_, err := src.Fetch(context.Background())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchCircuitOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	// Two attempts per fetch; gobreaker trips after more than five
	// consecutive failures.
	src := newSource(t, srv.URL, RetryConfig{MaxRetries: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond})
	for i := 0; i < 3; i++ {
		_, err := src.Fetch(context.Background())
		require.Error(t, err)
	}

	_, err := src.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(6), hits.Load())
}

func TestFetchWithoutRetriesAlwaysReachesBackend(t *testing.T) {
	var hits atomic.Int32
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[{"plantId":1,"moisture":50,"timestamp":"2024-01-01T10:00:00Z"}]`))
	}))
	defer srv.Close()

	src := newSource(t, srv.URL, RetryConfig{})
	for i := 0; i < 8; i++ {
		_, err := src.Fetch(context.Background())
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	}

	healthy.Store(true)
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(9), hits.Load())
}

func TestFetchBudget(t *testing.T) {
	src := newSource(t, "http://pi.local/", RetryConfig{})
	assert.Equal(t, 10*time.Second, src.FetchBudget(10*time.Second))
	assert.Zero(t, src.FetchBudget(0))

	src = newSource(t, "http://pi.local/", RetryConfig{MaxRetries: 2, MaxInterval: time.Second})
	assert.Equal(t, 33*time.Second, src.FetchBudget(10*time.Second))

	src = newSource(t, "http://pi.local/", RetryConfig{MaxRetries: 1})
	assert.Equal(t, 2*time.Second+7500*time.Millisecond, src.FetchBudget(time.Second))
}

func TestFetchHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newSource(t, srv.URL, RetryConfig{}).Fetch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
