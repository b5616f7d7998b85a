package h2h

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/rl-predictor/internal/ballchasing"
	"github.com/pfrederiksen/rl-predictor/internal/logger"
)

const wikiBase = "https://wiki.test/rocketleague/"

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

type fakePages map[string]string

func (f fakePages) Fetch(_ context.Context, u string) (*goquery.Document, error) {
	html, ok := f[u]
	if !ok {
		return nil, errors.Newf("unexpected status code: 404")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

type fakeAPI struct {
	replays  map[string]*ballchasing.Replay
	groups   map[string][]string
	byName   map[string][]string
	getCalls map[string]int
}

func (f *fakeAPI) GetReplay(_ context.Context, id string) (*ballchasing.Replay, error) {
	if f.getCalls == nil {
		f.getCalls = make(map[string]int)
	}
	f.getCalls[id]++
	if r, ok := f.replays[id]; ok {
		return r, nil
	}
	return nil, errors.Newf("GET /replays/%s: HTTP 404", id)
}

func (f *fakeAPI) GetGroup(_ context.Context, id string) (*ballchasing.Group, error) {
	ids, ok := f.groups[id]
	if !ok {
		return nil, errors.New("HTTP 404")
	}
	g := &ballchasing.Group{ID: id}
	for _, rid := range ids {
		g.Replays = append(g.Replays, ballchasing.ReplayStub{ID: rid})
	}
	return g, nil
}

func (f *fakeAPI) ListReplays(_ context.Context, q ballchasing.ListQuery) (*ballchasing.ReplayList, error) {
	out := &ballchasing.ReplayList{}
	for _, id := range f.byName[q.PlayerName] {
		out.List = append(out.List, ballchasing.ReplayStub{ID: id})
	}
	return out, nil
}

func rep(id string, blue, orange []string) *ballchasing.Replay {
	mk := func(names []string) ballchasing.Side {
		var s ballchasing.Side
		for _, n := range names {
			s.Players = append(s.Players, ballchasing.Player{
				Name:  n,
				Stats: ballchasing.StatBlocks{Core: ballchasing.CoreStats{Goals: 1, Shots: 2}},
			})
		}
		return s
	}
	return &ballchasing.Replay{ID: id, Blue: mk(blue), Orange: mk(orange)}
}

func TestBuildURL(t *testing.T) {
	got := BuildURL("https://liquipedia.net/rocketleague", "Karmine Corp", "G2 Esports")
	u, err := url.Parse(got)
	require.NoError(t, err)

	assert.Equal(t, "/rocketleague/Special:RunQuery/Head2Head", u.Path)
	q := u.Query()
	assert.Equal(t, "Karmine Corp", q.Get("Headtohead[team1]"))
	assert.Equal(t, "G2 Esports", q.Get("Headtohead[team2]"))
	assert.Equal(t, "Run", q.Get("RunQuery"))
	assert.Equal(t, "Head2head", q.Get("pfRunQueryFormName"))
}

func TestParseRows(t *testing.T) {
	html := `<table>
<tr><th>Date</th><th>Event</th></tr>
<tr><td>2024-03-10 18:00 CET and a very long trailing note</td><td><a href="/rocketleague/Match:ID_abc">RLCS</a></td><td>4 - 2</td></tr>
<tr><td>2023-11-02</td><td><a href="https://liquipedia.net/rocketleague/Match:ID_def">Worlds</a></td></tr>
<tr><td>2023-01-01</td><td><a href="/counterstrike/Other">no</a></td></tr>
<tr><td>2022-08-14</td><td><a href="//liquipedia.net/rocketleague/Match:ID_ghi">Major</a></td></tr>
<tr><td>only one cell</td></tr>
</table>`

	rows := ParseRows(doc(t, html), wikiBase)
	require.Len(t, rows, 3)

	assert.Equal(t, "https://wiki.test/rocketleague/Match:ID_abc", rows[0].MatchLink)
	assert.Len(t, []rune(rows[0].Date), maxDateLen)
	assert.Contains(t, rows[0].Score, "4 - 2")
	assert.Equal(t, "https://liquipedia.net/rocketleague/Match:ID_def", rows[1].MatchLink)
	assert.Equal(t, "2023-11-02", rows[1].Date)
	assert.Equal(t, "https://liquipedia.net/rocketleague/Match:ID_ghi", rows[2].MatchLink)
}

func TestExtractReplayRefs(t *testing.T) {
	html := `<a href="https://ballchasing.com/replay/aaaa-1111">g1</a>
<a href="https://ballchasing.com/group/series-xyz">all</a>
<a href="https://ballchasing.com/replay/aaaa-1111">dup</a>
<a href="https://ballchasing.com/">home</a>
<a href="https://example.com/replay/zzz">other</a>`

	refs := ExtractReplayRefs(doc(t, html))
	assert.Equal(t, []ReplayRef{
		{Kind: KindReplay, ID: "aaaa-1111"},
		{Kind: KindGroup, ID: "series-xyz"},
	}, refs)
}

func newTestService(pages fakePages, api ReplayAPI) (*Service, *logger.Notes) {
	notes := &logger.Notes{}
	s := NewService(pages, api, notes, WithWikiBase(wikiBase))
	s.sleep = func(time.Duration) {}
	return s, notes
}

func TestLookup_DedupesAcrossPages(t *testing.T) {
	h2hURL := BuildURL(wikiBase, "A", "B")
	pages := fakePages{
		h2hURL: `<table>
<tr><td>2024-01-01</td><td><a href="/rocketleague/Match1">m1</a></td></tr>
<tr><td>2024-02-01</td><td><a href="/rocketleague/Match2">m2</a></td></tr>
<tr><td>2024-03-01</td><td><a href="/rocketleague/Missing">m3</a></td></tr>
</table>`,
		"https://wiki.test/rocketleague/Match1": `<a href="https://ballchasing.com/replay/r1">r1</a><a href="https://ballchasing.com/group/g1">g</a>`,
		"https://wiki.test/rocketleague/Match2": `<a href="https://ballchasing.com/replay/r1">same replay again</a>`,
	}
	api := &fakeAPI{
		groups: map[string][]string{"g1": {"r2", "r1"}},
		replays: map[string]*ballchasing.Replay{
			"r1": rep("r1", []string{"Alpha"}, []string{"Gamma"}),
			"r2": rep("r2", []string{"Alpha"}, []string{"Gamma"}),
		},
	}

	s, notes := newTestService(pages, api)
	res, err := s.Lookup(context.Background(), "A", "B", []string{"Alpha"}, []string{"Gamma"})
	require.NoError(t, err)

	assert.Equal(t, SourceLinks, res.Source)
	assert.Equal(t, []string{"r1", "r2"}, res.ReplayIDs)
	assert.Equal(t, 1, api.getCalls["r1"], "replay found on two pages is fetched once")
	require.Len(t, res.Players, 2)
	assert.Equal(t, 2, res.Players[0].Games)
	assert.Equal(t, 2, res.Players[0].Goals)
	assert.Equal(t, 1, notes.Len(), "the missing series page is noted")
}

func TestLookup_LimitsSeries(t *testing.T) {
	var b strings.Builder
	b.WriteString("<table>")
	for i := 0; i < 10; i++ {
		b.WriteString(`<tr><td>d</td><td><a href="/rocketleague/M">m</a></td></tr>`)
	}
	b.WriteString("</table>")

	pages := fakePages{BuildURL(wikiBase, "A", "B"): b.String()}
	s, _ := newTestService(pages, &fakeAPI{})
	res, err := s.Lookup(context.Background(), "A", "B", nil, nil)
	require.NoError(t, err)
	assert.Len(t, res.Records, DefaultLimit)
}

func TestLookup_NameFallback(t *testing.T) {
	pages := fakePages{BuildURL(wikiBase, "A", "B"): `<table></table>`}
	api := &fakeAPI{
		byName: map[string][]string{
			"Alpha": {"both", "only-a"},
			"Gamma": {"both", "one-each"},
		},
		replays: map[string]*ballchasing.Replay{
			"both":     rep("both", []string{"alpha", "BETA", "x"}, []string{"Gamma", "Delta", "y"}),
			"only-a":   rep("only-a", []string{"Alpha", "Beta"}, []string{"p", "q"}),
			"one-each": rep("one-each", []string{"Alpha", "z"}, []string{"Gamma", "Delta"}),
		},
	}

	s, notes := newTestService(pages, api)
	res, err := s.Lookup(context.Background(), "A", "B",
		[]string{"Alpha", "Beta", "Gamma2"}, []string{"Gamma", "Delta"})
	require.NoError(t, err)

	assert.Equal(t, SourceNames, res.Source)
	assert.Equal(t, []string{"both"}, res.ReplayIDs)
	assert.Equal(t, 1, api.getCalls["both"], "accepted replay is not fetched twice")
	assert.Len(t, res.Players, 6)
	assert.GreaterOrEqual(t, notes.Len(), 2)
}

func TestLookup_NothingFound(t *testing.T) {
	s, _ := newTestService(fakePages{}, &fakeAPI{})
	res, err := s.Lookup(context.Background(), "A", "B", []string{"x"}, []string{"y"})
	require.NoError(t, err)
	assert.Equal(t, SourceNone, res.Source)
	assert.Empty(t, res.Players)
	assert.Empty(t, res.Records)
}
