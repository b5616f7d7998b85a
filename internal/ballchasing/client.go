package ballchasing

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/rl-predictor/internal/logger"
)

const (
	DefaultBaseURL    = "https://ballchasing.com/api"
	DefaultDelay      = 350 * time.Millisecond
	DefaultRetryDelay = 1250 * time.Millisecond
	Timeout           = 30 * time.Second

	// MaxListCount is the largest page the list endpoint serves.
	MaxListCount = 200
)

var (
	// ErrMissingAPIKey is returned by NewClient when no key is configured.
	ErrMissingAPIKey = errors.New("ballchasing API key is required")
	// ErrRateLimited marks a request that was still throttled after its retry.
	ErrRateLimited = errors.New("ballchasing rate limit exceeded")
)

// Client is a thin wrapper over the ballchasing.com API. Every call that
// reaches the network is followed by a fixed delay, whatever its outcome; an
// HTTP 429 is retried once after RetryDelay.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	delay      time.Duration
	retryDelay time.Duration
	sleep      func(time.Duration)
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithDelay sets the pause after each call.
func WithDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a ballchasing client. It fails fast when apiKey is empty.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: Timeout},
		delay:      DefaultDelay,
		retryDelay: DefaultRetryDelay,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetReplay fetches one replay with per-player stats.
func (c *Client) GetReplay(ctx context.Context, replayID string) (*Replay, error) {
	var r Replay
	if err := c.get(ctx, "/replays/"+url.PathEscape(replayID), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetGroup fetches a replay group.
func (c *Client) GetGroup(ctx context.Context, groupID string) (*Group, error) {
	var g Group
	if err := c.get(ctx, "/groups/"+url.PathEscape(groupID), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListReplays searches replays.
func (c *Client) ListReplays(ctx context.Context, q ListQuery) (*ReplayList, error) {
	var l ReplayList
	if err := c.get(ctx, "/replays", q.Values(), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ListQuery holds the /replays filters we use.
type ListQuery struct {
	PlayerID   string
	PlayerName string
	SortBy     string // "replay-date" or "created"
	SortDir    string // "asc" or "desc"
	Count      int
}

// Values encodes the query, clamping Count to MaxListCount.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.PlayerID != "" {
		v.Set("player-id", q.PlayerID)
	}
	if q.PlayerName != "" {
		v.Set("player-name", q.PlayerName)
	}
	if q.SortBy != "" {
		v.Set("sort-by", q.SortBy)
	}
	if q.SortDir != "" {
		v.Set("sort-dir", q.SortDir)
	}
	if q.Count > 0 {
		count := q.Count
		if count > MaxListCount {
			count = MaxListCount
		}
		v.Set("count", strconv.Itoa(count))
	}
	return v
}

// get performs an authenticated GET, retrying once on 429, and decodes the body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	start := time.Now()
	logger.IncrCounter("ballchasing.calls")

	status, body, err := c.do(ctx, reqURL)
	defer c.sleep(c.delay)
	if err == nil && status == http.StatusTooManyRequests {
		logger.IncrCounter("ballchasing.retries_429")
		logger.Debug("ballchasing rate limited, retrying once", logger.Fields{"path": path})
		c.sleep(c.retryDelay)
		status, body, err = c.do(ctx, reqURL)
	}
	logger.RecordTiming("ballchasing.request", time.Since(start))
	if err != nil {
		return errors.Wrapf(err, "GET %s", path)
	}

	if status == http.StatusTooManyRequests {
		return errors.Mark(errors.Newf("GET %s: HTTP %d", path, status), ErrRateLimited)
	}
	if status < 200 || status > 299 {
		return errors.Newf("GET %s: HTTP %d: %s", path, status, abbreviate(body))
	}

	if err := sonic.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

func (c *Client) do(ctx context.Context, reqURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.Wrap(err, "making request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return resp.StatusCode, nil, errors.Wrap(err, "reading response")
	}
	return resp.StatusCode, body, nil
}

func abbreviate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
