package fetch

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/rl-predictor/internal/logger"
)

const (
	// DefaultSettle is how long the page is left to run its scripts after load.
	DefaultSettle = 5 * time.Second
	RenderTimeout = 60 * time.Second
)

// Chrome renders pages in headless Chrome and returns the resulting DOM.
// Each Fetch starts and tears down its own browser.
type Chrome struct {
	Settle  time.Duration
	Timeout time.Duration
}

// NewChrome creates a renderer with the default settle time.
func NewChrome() *Chrome {
	return &Chrome{Settle: DefaultSettle, Timeout: RenderTimeout}
}

// Fetch implements Fetcher.
func (c *Chrome) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.UserAgent(UserAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, c.Timeout)
	defer cancel()

	start := time.Now()
	var html string
	err := chromedp.Run(runCtx, chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(c.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	})
	logger.RecordTiming("fetch.render", time.Since(start))
	if err != nil {
		return nil, errors.Wrapf(err, "rendering %s", url)
	}

	logger.Debug("rendered page", logger.Fields{"url": url, "bytes": len(html)})
	return ParseString(html)
}
