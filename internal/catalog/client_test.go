package catalog

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mkbscrape/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testConfig() config.Config {
	return config.Config{
		BaseURL:         "https://example.test",
		IndexPath:       "/mkb",
		CataloguePrefix: "/mkb",
		TimeoutMs:       1000,
		UserAgent:       "mkb-test/1.0",
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	client := NewClient(testConfig())
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			assert.Equal(t, "mkb-test/1.0", r.Header.Get("User-Agent"))
			assert.Equal(t, "/mkb", r.URL.Path)
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader("<html></html>")),
				Header:     make(http.Header),
			}, nil
		}),
	}

	body, err := client.Fetch(context.Background(), "https://example.test/mkb")
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(body))
}

func TestFetchReturnsFetchErrorOnServerError(t *testing.T) {
	attempts := 0
	client := NewClient(testConfig())
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			attempts++
			return &http.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       io.NopCloser(strings.NewReader("boom")),
				Header:     make(http.Header),
			}, nil
		}),
	}

	_, err := client.Fetch(context.Background(), "https://example.test/mkb/a00-a09")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
	assert.Equal(t, "https://example.test/mkb/a00-a09", fetchErr.URL)
	assert.Equal(t, 1, attempts, "fetch must not retry")
}

func TestFetchWrapsTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	client := NewClient(testConfig())
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, boom
		}),
	}

	_, err := client.Fetch(context.Background(), "https://example.test/mkb")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
	assert.ErrorIs(t, err, boom)
}

func TestRateLimiterFirstCallDoesNotWait(t *testing.T) {
	limiter := NewRateLimiter(time.Hour)

	start := time.Now()
	require.NoError(t, limiter.WaitTurn(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimiterSpacesCalls(t *testing.T) {
	limiter := NewRateLimiter(50 * time.Millisecond)

	start := time.Now()
	require.NoError(t, limiter.WaitTurn(context.Background()))
	require.NoError(t, limiter.WaitTurn(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRateLimiterZeroDelayNeverWaits(t *testing.T) {
	limiter := NewRateLimiter(0)

	start := time.Now()
	for range 5 {
		require.NoError(t, limiter.WaitTurn(context.Background()))
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimiterHonoursCancellation(t *testing.T) {
	limiter := NewRateLimiter(time.Hour)
	require.NoError(t, limiter.WaitTurn(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, limiter.WaitTurn(ctx))
}
