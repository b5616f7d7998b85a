package feature

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/rl-predictor/internal/ballchasing"
	"github.com/pfrederiksen/rl-predictor/internal/logger"
	"github.com/pfrederiksen/rl-predictor/internal/match"
	"github.com/pfrederiksen/rl-predictor/internal/players"
)

const (
	DefaultRecentDays = 90
	DefaultMaxReplays = 150
	DefaultListDelay  = 120 * time.Millisecond

	SideTeam1 = "team1"
	SideTeam2 = "team2"
)

// ReplayAPI is the part of the ballchasing client the builder needs.
type ReplayAPI interface {
	GetReplay(ctx context.Context, replayID string) (*ballchasing.Replay, error)
	ListReplays(ctx context.Context, q ballchasing.ListQuery) (*ballchasing.ReplayList, error)
}

// Config bounds how much history is pulled per player.
type Config struct {
	RecentDays int
	MaxReplays int
	ListDelay  time.Duration
}

// DefaultConfig returns the standard window and caps.
func DefaultConfig() Config {
	return Config{
		RecentDays: DefaultRecentDays,
		MaxReplays: DefaultMaxReplays,
		ListDelay:  DefaultListDelay,
	}
}

// TeamFeature is the aggregated row for one side of a matchup.
type TeamFeature struct {
	Team     string       `json:"team"`
	Opponent string       `json:"opponent"`
	Section  string       `json:"section"`
	Round    string       `json:"round"`
	BestOf   int          `json:"best_of"`
	Side     string       `json:"side"`
	Games    int          `json:"games"`
	Goals    int          `json:"goals"`
	Shots    int          `json:"shots"`
	Saves    int          `json:"saves"`
	Demos    int          `json:"demos"`
	ShotPct  float64      `json:"shot_pct"`
	Players  []PlayerLine `json:"players,omitempty"`
}

// Builder computes TeamFeature rows. Replay details fetched for one side are
// reused for the other.
type Builder struct {
	api     ReplayAPI
	ids     *players.Map
	cfg     Config
	notes   *logger.Notes
	now     func() time.Time
	sleep   func(time.Duration)
	replays map[string]*ballchasing.Replay
}

// NewBuilder creates a Builder. ids may be nil, in which case every player is
// searched by name.
func NewBuilder(api ReplayAPI, ids *players.Map, cfg Config, notes *logger.Notes) *Builder {
	if notes == nil {
		notes = &logger.Notes{}
	}
	return &Builder{
		api:     api,
		ids:     ids,
		cfg:     cfg,
		notes:   notes,
		now:     time.Now,
		sleep:   time.Sleep,
		replays: make(map[string]*ballchasing.Replay),
	}
}

// BuildRows returns the team1 and team2 feature rows for a match. Per-item API
// failures are noted and skipped; only context cancellation is returned.
func (b *Builder) BuildRows(ctx context.Context, row match.Row) (TeamFeature, TeamFeature, error) {
	left := TeamFeature{
		Team: row.Team1, Opponent: row.Team2,
		Section: row.Section, Round: row.Round, BestOf: row.BestOf, Side: SideTeam1,
	}
	right := TeamFeature{
		Team: row.Team2, Opponent: row.Team1,
		Section: row.Section, Round: row.Round, BestOf: row.BestOf, Side: SideTeam2,
	}

	if err := b.fill(ctx, &left, row.Team1Players); err != nil {
		return left, right, err
	}
	if err := b.fill(ctx, &right, row.Team2Players); err != nil {
		return left, right, err
	}
	return left, right, nil
}

func (b *Builder) fill(ctx context.Context, tf *TeamFeature, roster []string) error {
	if len(roster) == 0 {
		b.notes.Addf("No roster for %s; features left at zero", tf.Team)
		return nil
	}

	start := time.Now()
	defer func() { logger.RecordTiming("feature.team", time.Since(start)) }()

	refs := b.ids.Resolve(roster)
	ids, err := b.candidateReplays(ctx, refs)
	if err != nil {
		return err
	}
	member := newRosterSet(refs)

	now := b.now()
	var lines []ballchasing.StatLine
	games := make(map[string]bool)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "building features")
		}
		rep, ok := b.replay(ctx, id)
		if !ok || !InWindow(rep.Date, now, b.cfg.RecentDays) {
			continue
		}
		for _, l := range rep.StatLines() {
			if member.has(l) {
				lines = append(lines, l)
				games[l.ReplayID] = true
			}
		}
	}

	tf.Players = AggregatePlayers(lines)
	for _, p := range tf.Players {
		tf.Goals += p.Goals
		tf.Shots += p.Shots
		tf.Saves += p.Saves
		tf.Demos += p.Demos
	}
	tf.Games = len(games)
	tf.ShotPct = ShotPct(tf.Goals, tf.Shots)

	logger.Info("team features built", logger.Fields{
		"team":       tf.Team,
		"candidates": len(ids),
		"games":      tf.Games,
	})
	return nil
}

// rosterSet recognises roster players in replay stat lines. A resolved player
// matches on platform id, since in-game names often differ from wiki titles;
// every roster name also matches case-insensitively.
type rosterSet struct {
	ids   map[string]bool
	names map[string]bool
}

func newRosterSet(refs []players.Ref) rosterSet {
	rs := rosterSet{ids: make(map[string]bool), names: make(map[string]bool)}
	for _, ref := range refs {
		if ref.Resolved() {
			rs.ids[strings.ToLower(ref.ID)] = true
		}
		if n := strings.ToLower(strings.TrimSpace(ref.Name)); n != "" {
			rs.names[n] = true
		}
	}
	return rs
}

func (rs rosterSet) has(l ballchasing.StatLine) bool {
	if l.ID != "" && rs.ids[strings.ToLower(l.ID)] {
		return true
	}
	return rs.names[strings.ToLower(strings.TrimSpace(l.Player))]
}

// candidateReplays lists recent replays for each player and returns the
// de-duplicated ids in listing order.
func (b *Builder) candidateReplays(ctx context.Context, refs []players.Ref) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	queried := make(map[string]bool)

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "listing replays")
		}

		q := ballchasing.ListQuery{
			SortBy:  "replay-date",
			SortDir: "desc",
			Count:   min(ballchasing.MaxListCount, b.cfg.MaxReplays),
		}
		who := ref.ID
		if ref.Resolved() {
			q.PlayerID = ref.ID
		} else {
			q.PlayerName = ref.Name
			who = ref.Name
			logger.Debug("no player id, searching by name", logger.Fields{"player": ref.Name})
		}
		if who == "" || queried[who] {
			continue
		}
		queried[who] = true

		list, err := b.api.ListReplays(ctx, q)
		if err != nil {
			b.notes.Addf("List replays failed for %s: %v", who, err)
			continue
		}
		b.sleep(b.cfg.ListDelay)

		for _, stub := range list.List {
			if stub.ID == "" || seen[stub.ID] {
				continue
			}
			seen[stub.ID] = true
			ids = append(ids, stub.ID)
		}
	}
	return ids, nil
}

func (b *Builder) replay(ctx context.Context, id string) (*ballchasing.Replay, bool) {
	if rep, ok := b.replays[id]; ok {
		return rep, rep != nil
	}
	rep, err := b.api.GetReplay(ctx, id)
	if err != nil {
		b.notes.Addf("getReplay %s failed: %v", id, err)
		b.replays[id] = nil
		return nil, false
	}
	b.replays[id] = rep
	return rep, true
}
