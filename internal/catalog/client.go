package catalog

import (
	"context"
	"io"
	"net/http"

	"mkbscrape/internal/config"
)

type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

type Client struct {
	httpClient *http.Client
	limiter    *RateLimiter
	userAgent  string
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		limiter:    NewRateLimiter(cfg.Delay()),
		userAgent:  cfg.UserAgent,
	}
}

// Fetch downloads one page. Failures come back as *FetchError and are not
// retried.
func (c *Client) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if err := c.limiter.WaitTurn(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}
	if readErr != nil {
		return nil, &FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: readErr}
	}
	return body, nil
}
