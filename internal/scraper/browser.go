package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/cska-ics/cska-ics/internal/logger"
)

// BrowserFetcher renders the page in headless Chrome and returns the resulting DOM.
// It needs a Chrome or Chromium binary on the host.
type BrowserFetcher struct {
	timeout   time.Duration
	userAgent string
	// waitFor is the CSS selector that must be present before the DOM is captured
	waitFor string
}

// NewBrowserFetcher creates a fetcher that waits for waitFor to appear before
// capturing the page. An empty waitFor waits for the body element only.
func NewBrowserFetcher(timeout time.Duration, userAgent, waitFor string) *BrowserFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if waitFor == "" {
		waitFor = "body"
	}
	return &BrowserFetcher{
		timeout:   timeout,
		userAgent: userAgent,
		waitFor:   waitFor,
	}
}

// Fetch navigates to url and returns the outer HTML of the document.
// Like HTTPFetcher it logs failures and leaves recovery to the caller.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	body, err := f.render(ctx, url)
	if err != nil {
		logger.Error("Failed to render fixtures page", logger.Fields{"url": url}, err)
		return "", err
	}
	return body, nil
}

func (f *BrowserFetcher) render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(f.userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		logger.Debug(fmt.Sprintf("chromedp: "+format, v...), nil)
	}))
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, f.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(f.waitFor, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp navigation: %w", err)
	}

	return html, nil
}
