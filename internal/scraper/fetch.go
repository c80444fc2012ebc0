package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cska-ics/cska-ics/internal/logger"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultTimeout   = 20 * time.Second
)

// Fetcher retrieves the raw markup of a page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// StatusError is returned when the server answers with a non-2xx status
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// HTTPFetcher fetches pages with a plain GET request
type HTTPFetcher struct {
	client  *http.Client
	headers map[string]string
}

// NewHTTPFetcher creates a fetcher with a bounded timeout. headers are sent with
// every request; a browser User-Agent is added when none is given because the
// fixture site rejects unidentified clients.
func NewHTTPFetcher(timeout time.Duration, headers map[string]string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	h := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		h[k] = v
	}
	if !hasHeader(h, "User-Agent") {
		h["User-Agent"] = DefaultUserAgent
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		headers: h,
	}
}

// Fetch issues a single GET and returns the response body.
// Failures are logged here; callers treat an error as "no data this run".
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	body, err := f.fetch(ctx, url)
	if err != nil {
		logger.Error("Failed to load fixtures", logger.Fields{"url": url}, err)
		return "", err
	}
	return body, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	return string(data), nil
}

func hasHeader(headers map[string]string, name string) bool {
	canonical := http.CanonicalHeaderKey(name)
	for k := range headers {
		if http.CanonicalHeaderKey(k) == canonical {
			return true
		}
	}
	return false
}
