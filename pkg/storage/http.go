package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stacsmith/stacsmith/pkg/buildinfo"
	"github.com/stacsmith/stacsmith/pkg/cache"
)

const (
	httpTimeout    = 10 * time.Second
	defaultRetries = 3
)

// HTTPReader fetches documents over HTTP(S). Transient failures (network
// errors, 5xx responses) are retried with exponential backoff; a 404
// surfaces as [ErrNotFound].
type HTTPReader struct {
	client  *http.Client
	headers map[string]string
	retries int
}

// HTTPOption configures an HTTPReader.
type HTTPOption func(*HTTPReader)

// WithHTTPClient replaces the default client (10 second timeout).
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(r *HTTPReader) { r.client = c }
}

// WithHeaders sets extra headers applied to every request, such as
// Authorization for protected catalogs.
func WithHeaders(h map[string]string) HTTPOption {
	return func(r *HTTPReader) { r.headers = h }
}

// WithRetries sets the total number of attempts per request. Values below
// one mean a single attempt.
func WithRetries(n int) HTTPOption {
	return func(r *HTTPReader) { r.retries = n }
}

// NewHTTPReader creates an HTTPReader with default timeout and retries.
func NewHTTPReader(opts ...HTTPOption) *HTTPReader {
	r := &HTTPReader{
		client:  &http.Client{Timeout: httpTimeout},
		retries: defaultRetries,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get fetches the document at href.
func (r *HTTPReader) Get(ctx context.Context, href string) ([]byte, error) {
	var data []byte
	err := cache.RetryWithBackoff(ctx, r.retries, func() error {
		var err error
		data, err = r.fetch(ctx, href)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *HTTPReader) fetch(ctx context.Context, href string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", href, err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("Accept", "application/json, application/geo+json")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("get %s: %w", href, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("get %s: %w", href, ErrNotFound)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, cache.Retryable(fmt.Errorf("get %s: status %d", href, resp.StatusCode))
	default:
		return nil, fmt.Errorf("get %s: status %d", href, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("get %s: %w", href, err))
	}
	return data, nil
}
