package h2h

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/rl-predictor/internal/ballchasing"
	"github.com/pfrederiksen/rl-predictor/internal/config"
	"github.com/pfrederiksen/rl-predictor/internal/feature"
	"github.com/pfrederiksen/rl-predictor/internal/fetch"
	"github.com/pfrederiksen/rl-predictor/internal/logger"
)

const (
	DefaultLimit      = 6
	DefaultNameCount  = 25
	DefaultNameCutoff = 50
	DefaultNameDelay  = 200 * time.Millisecond
	// MinRosterHits is how many players of each roster a name-search replay must contain.
	MinRosterHits = 2
)

// Source says where the replay ids of a Result came from.
type Source string

const (
	SourceNone  Source = ""
	SourceLinks Source = "links"
	SourceNames Source = "names"
)

// ReplayAPI is the part of the ballchasing client the lookup needs.
type ReplayAPI interface {
	GetReplay(ctx context.Context, replayID string) (*ballchasing.Replay, error)
	GetGroup(ctx context.Context, groupID string) (*ballchasing.Group, error)
	ListReplays(ctx context.Context, q ballchasing.ListQuery) (*ballchasing.ReplayList, error)
}

// Result is the outcome of a head-to-head lookup.
type Result struct {
	Records   []Record             `json:"records"`
	ReplayIDs []string             `json:"replay_ids"`
	Source    Source               `json:"source"`
	Players   []feature.PlayerLine `json:"players"`
}

// Service looks up head-to-head stats.
type Service struct {
	pages      fetch.Fetcher
	api        ReplayAPI
	notes      *logger.Notes
	wikiBase   string
	limit      int
	nameCount  int
	nameCutoff int
	nameDelay  time.Duration
	sleep      func(time.Duration)
}

// Option customises a Service.
type Option func(*Service)

// WithWikiBase sets the wiki the Head2Head query runs against.
func WithWikiBase(base string) Option {
	return func(s *Service) { s.wikiBase = base }
}

// WithLimit caps how many past series are followed.
func WithLimit(n int) Option {
	return func(s *Service) { s.limit = n }
}

// NewService creates a Service.
func NewService(pages fetch.Fetcher, api ReplayAPI, notes *logger.Notes, opts ...Option) *Service {
	if notes == nil {
		notes = &logger.Notes{}
	}
	s := &Service{
		pages:      pages,
		api:        api,
		notes:      notes,
		wikiBase:   config.DefaultWikiBaseURL,
		limit:      DefaultLimit,
		nameCount:  DefaultNameCount,
		nameCutoff: DefaultNameCutoff,
		nameDelay:  DefaultNameDelay,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup gathers per-player stats from past meetings of team1 and team2.
// Failures along the way are noted and the result shrinks accordingly; only
// context cancellation is returned as an error.
func (s *Service) Lookup(ctx context.Context, team1, team2 string, roster1, roster2 []string) (Result, error) {
	var res Result
	replays := make(map[string]*ballchasing.Replay)

	res.Records = s.records(ctx, team1, team2)
	if len(res.Records) > s.limit {
		res.Records = res.Records[:s.limit]
	}

	ids, err := s.idsFromPages(ctx, res.Records)
	if err != nil {
		return res, err
	}
	if len(ids) > 0 {
		res.Source = SourceLinks
	} else {
		s.notes.Addf("No ballchasing links on H2H pages; attempting name-based search")
		ids, err = s.idsFromNames(ctx, roster1, roster2, replays)
		if err != nil {
			return res, err
		}
		if len(ids) > 0 {
			res.Source = SourceNames
		}
	}
	res.ReplayIDs = ids

	var lines []ballchasing.StatLine
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrap(err, "fetching replays")
		}
		rep, ok := replays[id]
		if !ok {
			rep, err = s.api.GetReplay(ctx, id)
			if err != nil {
				s.notes.Addf("Replay %s fetch failed: %v", id, err)
				continue
			}
		}
		lines = append(lines, rep.StatLines()...)
	}
	res.Players = feature.AggregatePlayers(lines)

	logger.Info("head-to-head lookup finished", logger.Fields{
		"team1":   team1,
		"team2":   team2,
		"series":  len(res.Records),
		"replays": len(ids),
		"source":  string(res.Source),
	})
	return res, nil
}

func (s *Service) records(ctx context.Context, team1, team2 string) []Record {
	doc, err := s.pages.Fetch(ctx, BuildURL(s.wikiBase, team1, team2))
	if err != nil {
		s.notes.Addf("H2H query failed for %s vs %s: %v", team1, team2, err)
		return nil
	}
	records := ParseRows(doc, s.wikiBase)
	if len(records) == 0 {
		s.notes.Addf("No H2H rows found on Liquipedia for %s vs %s", team1, team2)
	}
	return records
}

// idsFromPages follows each series link and collects replay ids, expanding groups.
func (s *Service) idsFromPages(ctx context.Context, records []Record) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "reading series pages")
		}
		doc, err := s.pages.Fetch(ctx, rec.MatchLink)
		if err != nil {
			s.notes.Addf("Failed to extract series %s (%v)", rec.MatchLink, err)
			continue
		}

		for _, ref := range ExtractReplayRefs(doc) {
			switch ref.Kind {
			case KindReplay:
				add(ref.ID)
			case KindGroup:
				g, err := s.api.GetGroup(ctx, ref.ID)
				if err != nil {
					s.notes.Addf("Failed group fetch %s: %v", ref.ID, err)
					continue
				}
				for _, stub := range g.Replays {
					add(stub.ID)
				}
			}
		}
	}
	return ids, nil
}

// idsFromNames searches replays by each roster name and keeps those with at
// least MinRosterHits players from both rosters. Fetched replays are stored in
// cache so they are not requested twice.
func (s *Service) idsFromNames(ctx context.Context, roster1, roster2 []string, cache map[string]*ballchasing.Replay) ([]string, error) {
	var candidates []string
	seen := make(map[string]bool)

	for _, name := range uniqueNames(roster1, roster2) {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "searching replays by name")
		}
		list, err := s.api.ListReplays(ctx, ballchasing.ListQuery{
			PlayerName: name,
			SortBy:     "replay-date",
			SortDir:    "desc",
			Count:      s.nameCount,
		})
		if err != nil {
			s.notes.Addf("Ballchasing list error for %s: %v", name, err)
		} else {
			for _, stub := range list.List {
				if stub.ID != "" && !seen[stub.ID] {
					seen[stub.ID] = true
					candidates = append(candidates, stub.ID)
				}
			}
			s.sleep(s.nameDelay)
		}
		if len(candidates) > s.nameCutoff {
			break
		}
	}

	var ids []string
	for _, id := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "checking candidate replays")
		}
		rep, err := s.api.GetReplay(ctx, id)
		if err != nil {
			s.notes.Addf("Ballchasing detail error %s: %v", id, err)
			continue
		}
		names := make(map[string]bool)
		for _, n := range rep.PlayerNames() {
			names[strings.ToLower(n)] = true
		}
		if rosterHits(roster1, names) >= MinRosterHits && rosterHits(roster2, names) >= MinRosterHits {
			cache[id] = rep
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func rosterHits(roster []string, names map[string]bool) int {
	hits := 0
	for _, p := range roster {
		if p != "" && names[strings.ToLower(p)] {
			hits++
		}
	}
	return hits
}

func uniqueNames(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range lists {
		for _, n := range l {
			if n != "" && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}
