package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanews-extractor/internal/config"
	"lanews-extractor/internal/observability"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.HTTP.MaxRetries = 2
	cfg.HTTP.BackoffMinMS = 1
	cfg.HTTP.BackoffMaxMS = 5
	cfg.HTTP.JitterPct = 20
	return cfg
}

func TestBackoffCalculation(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.BackoffMinMS = 250
	cfg.HTTP.BackoffMaxMS = 2000

	fetcher := NewFetcher(cfg, observability.NewNopLogger())

	for attempt := 1; attempt <= 5; attempt++ {
		backoff := fetcher.calculateBackoff(attempt)
		if backoff < cfg.GetBackoffMin() || backoff > cfg.GetBackoffMax()*2 {
			t.Errorf("Backoff out of expected range: %v", backoff)
		}
	}
}

// TestFetch_OK verifies the body is returned on 200
func TestFetch_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lanews-extractor/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	body, err := NewFetcher(testConfig(), observability.NewNopLogger()).Fetch(context.Background(), srv.URL+"/a.jpg")

	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), body)
}

// TestFetch_NotFound verifies non-200 responses fail without retry
func TestFetch_NotFound(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewFetcher(testConfig(), observability.NewNopLogger()).Fetch(context.Background(), srv.URL)

	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestFetch_RetriesServerErrors verifies 5xx responses are retried
func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := NewFetcher(testConfig(), observability.NewNopLogger()).Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

// TestFetch_GivesUp verifies the last error is reported after max retries
func TestFetch_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewFetcher(testConfig(), observability.NewNopLogger()).Fetch(context.Background(), srv.URL)

	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.ErrorContains(t, err, "after 2 retries")
}

func TestFetch_InvalidURL(t *testing.T) {
	f := NewFetcher(testConfig(), observability.NewNopLogger())

	_, err := f.Fetch(context.Background(), "data:image/png;base64,AAAA")
	assert.ErrorContains(t, err, "unsupported URL scheme")
}
