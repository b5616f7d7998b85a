package bracket

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/rl-predictor/internal/config"
	"github.com/pfrederiksen/rl-predictor/internal/fetch"
	"github.com/pfrederiksen/rl-predictor/internal/logger"
	"github.com/pfrederiksen/rl-predictor/internal/match"
	"github.com/pfrederiksen/rl-predictor/internal/roster"
)

const (
	// DefaultSection keeps only playoff brackets.
	DefaultSection   = "playoff"
	DefaultPageDelay = 400 * time.Millisecond
)

// Scraper handles fetching and parsing tournament brackets
type Scraper struct {
	renderer  fetch.Fetcher
	pages     fetch.Fetcher
	wikiBase  string
	section   string
	pageDelay time.Duration
	sleep     func(time.Duration)
	cache     *RosterCache
	notes     *logger.Notes
}

// Option customises a Scraper.
type Option func(*Scraper)

// WithWikiBase sets the base URL team pages are resolved against.
func WithWikiBase(base string) Option {
	return func(s *Scraper) { s.wikiBase = base }
}

// WithSection sets the section substring a bracket must sit under. Empty keeps all.
func WithSection(section string) Option {
	return func(s *Scraper) { s.section = section }
}

// WithPageDelay sets the pause after each team page fetch.
func WithPageDelay(d time.Duration) Option {
	return func(s *Scraper) { s.pageDelay = d }
}

// WithNotes collects per-team fetch failures for the run summary.
func WithNotes(n *logger.Notes) Option {
	return func(s *Scraper) { s.notes = n }
}

// New creates a Scraper. renderer loads the tournament page, pages loads team pages.
func New(renderer, pages fetch.Fetcher, opts ...Option) *Scraper {
	s := &Scraper{
		renderer:  renderer,
		pages:     pages,
		wikiBase:  config.DefaultWikiBaseURL,
		section:   DefaultSection,
		pageDelay: DefaultPageDelay,
		sleep:     time.Sleep,
		cache:     NewRosterCache(),
		notes:     &logger.Notes{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape renders the tournament page, parses its brackets and attaches rosters.
func (s *Scraper) Scrape(ctx context.Context, tournamentURL string) ([]match.Row, error) {
	logger.Info("scraping tournament", logger.Fields{"url": tournamentURL, "section": s.section})

	doc, err := s.renderer.Fetch(ctx, tournamentURL)
	if err != nil {
		return nil, errors.Wrap(err, "loading tournament page")
	}

	rows := s.Parse(doc)
	logger.Info("parsed brackets", logger.Fields{"matches": len(rows)})

	if err := s.ResolveRosters(ctx, rows); err != nil {
		return rows, err
	}
	return rows, nil
}

// Parse extracts match rows from a rendered tournament page. Rosters are left empty.
func (s *Scraper) Parse(doc *goquery.Document) []match.Row {
	rows := make([]match.Row, 0)
	section := unknown

	// Headings and brackets come back in document order, so the last heading
	// seen is the one nearest before each bracket.
	doc.Find("h2, h3, h4, div.brkts-bracket").Each(func(_ int, sel *goquery.Selection) {
		if !sel.Is("div.brkts-bracket") {
			if text := headingText(sel); text != "" {
				section = text
			} else {
				section = unknown
			}
			return
		}
		if !s.sectionWanted(section) {
			return
		}
		rows = append(rows, s.parseBracket(sel, section, len(rows))...)
	})

	return rows
}

func (s *Scraper) sectionWanted(section string) bool {
	return s.section == "" || strings.Contains(strings.ToLower(section), strings.ToLower(s.section))
}

func (s *Scraper) parseBracket(b *goquery.Selection, section string, offset int) []match.Row {
	bestOf := match.InferBestOf(section)
	var rows []match.Row

	b.Find("div.brkts-match").Each(func(_ int, m *goquery.Selection) {
		ops := m.Find(".brkts-opponent-entry")
		if ops.Length() < 2 {
			return
		}

		t1 := OpponentName(ops.Eq(0))
		t2 := OpponentName(ops.Eq(1))
		row := match.NewRow(offset+len(rows), section, RoundLabel(b, m), bestOf, t1, t2)
		if !match.IsPlaceholder(t1) {
			row.Team1URL = TeamURL(s.wikiBase, t1)
		}
		if !match.IsPlaceholder(t2) {
			row.Team2URL = TeamURL(s.wikiBase, t2)
		}
		rows = append(rows, row)
	})

	return rows
}

// ResolveRosters fills in player lists for every row with a team URL. Fetch
// failures are noted and cached as empty rosters; only context cancellation
// stops the walk.
func (s *Scraper) ResolveRosters(ctx context.Context, rows []match.Row) error {
	for i := range rows {
		for _, side := range []struct {
			url     string
			players *[]string
		}{
			{rows[i].Team1URL, &rows[i].Team1Players},
			{rows[i].Team2URL, &rows[i].Team2Players},
		} {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "resolving rosters")
			}
			if side.url == "" {
				*side.players = []string{}
				continue
			}
			*side.players = s.roster(ctx, side.url)
		}
	}
	logger.Debug("rosters resolved", logger.Fields{"pages": s.cache.Size(), "cache_hits": s.cache.Hits()})
	return nil
}

func (s *Scraper) roster(ctx context.Context, url string) []string {
	if players, ok := s.cache.Get(url); ok {
		return players
	}

	doc, err := s.pages.Fetch(ctx, url)
	if err != nil {
		s.notes.Addf("Roster fetch failed for %s: %v", url, err)
		s.cache.Set(url, nil)
		return []string{}
	}

	players := roster.Extract(doc)
	s.cache.Set(url, players)
	s.sleep(s.pageDelay)
	return players
}

// Notes returns the messages collected while scraping.
func (s *Scraper) Notes() *logger.Notes {
	return s.notes
}
