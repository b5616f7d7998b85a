package ballchasing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const replayJSON = `{
  "id": "r-1",
  "date": "2024-05-01T18:00:00Z",
  "blue": {"name": "G2", "players": [
    {"name": "Atomic", "id": {"platform": "steam", "id": "765"},
     "stats": {"core": {"shots": 4, "goals": 2, "saves": 1, "assists": 1, "score": 420},
               "demo": {"inflicted": 2, "taken": 1}}}
  ]},
  "orange": {"players": [
    {"player": {"name": "Zen"}, "id": {"platform": "epic", "id": "abc"},
     "stats": {"core": {"shots": 3, "goals": 1}}}
  ]}
}`

// newTestClient returns a client pointed at srv that records sleeps instead of sleeping.
func newTestClient(t *testing.T, srv *httptest.Server, slept *[]time.Duration) *Client {
	t.Helper()
	c, err := NewClient("test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	c.sleep = func(d time.Duration) { *slept = append(*slept, d) }
	return c
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient("   ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestGetReplay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/replays/r-1", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(replayJSON))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := newTestClient(t, srv, &slept)

	rep, err := c.GetReplay(context.Background(), "r-1")
	require.NoError(t, err)

	assert.Equal(t, "r-1", rep.ID)
	assert.Equal(t, 2024, rep.Date.Time.Year())
	require.Len(t, rep.Players(), 2)
	assert.Equal(t, []string{"Atomic", "Zen"}, rep.PlayerNames())

	blue := rep.Blue.Players[0]
	assert.Equal(t, "steam:765", blue.ID.String())
	assert.Equal(t, 4, blue.Stats.Core.Shots)
	assert.Equal(t, 2, blue.Stats.Demo.Inflicted)

	lines := rep.StatLines()
	require.Len(t, lines, 2)
	assert.Equal(t, "steam:765", lines[0].ID)
	assert.Equal(t, "epic:abc", lines[1].ID)

	assert.Equal(t, []time.Duration{DefaultDelay}, slept, "one pause after a successful call")
}

func TestGet_RetriesOnceOn429(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":"g-1","replays":[{"id":"a"},{"id":"b"}]}`))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := newTestClient(t, srv, &slept)

	g, err := c.GetGroup(context.Background(), "g-1")
	require.NoError(t, err)
	assert.Len(t, g.Replays, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{DefaultRetryDelay, DefaultDelay}, slept)
}

func TestGet_SecondRateLimitFails(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var slept []time.Duration
	c := newTestClient(t, srv, &slept)

	_, err := c.GetReplay(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "exactly one retry")
	assert.Equal(t, []time.Duration{DefaultRetryDelay, DefaultDelay}, slept)
}

func TestGet_TransportErrorPauses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var slept []time.Duration
	c, err := NewClient("test-key", WithBaseURL(url))
	require.NoError(t, err)
	c.sleep = func(d time.Duration) { slept = append(slept, d) }

	_, err = c.GetReplay(context.Background(), "r-1")
	require.Error(t, err)
	assert.Equal(t, []time.Duration{DefaultDelay}, slept)
}

func TestGet_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	var slept []time.Duration
	c := newTestClient(t, srv, &slept)

	for i := 0; i < 3; i++ {
		_, err := c.GetReplay(context.Background(), "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
		assert.False(t, errors.Is(err, ErrRateLimited))
	}
	assert.Equal(t, []time.Duration{DefaultDelay, DefaultDelay, DefaultDelay}, slept, "failed calls still pause")
}

func TestListReplays_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/replays", r.URL.Path)
		assert.Equal(t, "steam:765", q.Get("player-id"))
		assert.Equal(t, "replay-date", q.Get("sort-by"))
		assert.Equal(t, "desc", q.Get("sort-dir"))
		assert.Equal(t, "200", q.Get("count"))
		_, _ = w.Write([]byte(`{"count":1,"list":[{"id":"r-9","date":1714586400000}]}`))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := newTestClient(t, srv, &slept)

	list, err := c.ListReplays(context.Background(), ListQuery{
		PlayerID: "steam:765",
		SortBy:   "replay-date",
		SortDir:  "desc",
		Count:    999,
	})
	require.NoError(t, err)
	require.Len(t, list.List, 1)
	assert.Equal(t, "r-9", list.List[0].ID)
	assert.Equal(t, time.UnixMilli(1714586400000).UTC(), list.List[0].Date.Time)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		wantRaw bool
	}{
		{"2024-05-01T18:00:00Z", false},
		{"2024-05-01T18:00:00.123+02:00", false},
		{"2024-05-01 18:00:00", false},
		{"2024-05-01", false},
		{"last tuesday", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ts := ParseTimestamp(tt.in)
			assert.Equal(t, tt.wantRaw, ts.IsZero())
			if tt.wantRaw {
				assert.Equal(t, tt.in, ts.String())
			}
		})
	}
}

func TestStatLines(t *testing.T) {
	rep := &Replay{
		ID: "r-1",
		Blue: Side{Players: []Player{
			{Name: "Atomic", Stats: StatBlocks{Core: CoreStats{Goals: 2, Shots: 4, Saves: 1}, Demo: DemoStats{Inflicted: 3}}},
			{Stats: StatBlocks{Core: CoreStats{Goals: 9}}},
		}},
		Orange: Side{Players: []Player{
			{Player: &NamedRef{Name: "Zen"}, Stats: StatBlocks{Core: CoreStats{Shots: 1}}},
		}},
	}

	lines := rep.StatLines()
	require.Len(t, lines, 2)
	assert.Equal(t, StatLine{Player: "Atomic", ReplayID: "r-1", Goals: 2, Shots: 4, Saves: 1, Demos: 3}, lines[0])
	assert.Equal(t, "Zen", lines[1].Player)
}
