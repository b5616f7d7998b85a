package fetch

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/rl-predictor/internal/logger"
)

const (
	UserAgent      = "Mozilla/5.0 (compatible; RL-PredictorBot/1.0)"
	AcceptLanguage = "en-US,en;q=0.9"
	Timeout        = 20 * time.Second
)

// Fetcher returns the parsed HTML document at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// HTTP fetches pages with a plain GET.
type HTTP struct {
	client *http.Client
}

// NewHTTP creates an HTTP fetcher. A nil client gets the default timeout.
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: Timeout}
	}
	return &HTTP{client: client}
}

// Fetch implements Fetcher.
func (h *HTTP) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Language", AcceptLanguage)

	start := time.Now()
	resp, err := h.client.Do(req)
	logger.IncrCounter("fetch.pages")
	logger.RecordTiming("fetch.page", time.Since(start))
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("fetching %s: unexpected status code: %d", url, resp.StatusCode)
	}

	return Parse(resp.Body)
}

// Parse builds a document from raw HTML.
func Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "parsing HTML")
	}
	return doc, nil
}

// ParseString is Parse for in-memory HTML.
func ParseString(html string) (*goquery.Document, error) {
	return Parse(strings.NewReader(html))
}
