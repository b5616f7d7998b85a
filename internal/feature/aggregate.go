package feature

import (
	"sort"

	"github.com/pfrederiksen/rl-predictor/internal/ballchasing"
)

// PlayerLine is one player's totals over a set of replays.
type PlayerLine struct {
	Player  string  `json:"player"`
	Games   int     `json:"games"`
	Goals   int     `json:"goals"`
	Shots   int     `json:"shots"`
	ShotPct float64 `json:"shot_pct"`
	Saves   int     `json:"saves"`
	Demos   int     `json:"demos"`
}

// ShotPct is goals over shots, 0 when there were no shots.
func ShotPct(goals, shots int) float64 {
	if shots == 0 {
		return 0
	}
	return float64(goals) / float64(shots)
}

// AggregatePlayers sums stat lines per player. Games counts distinct replay
// ids. Results are sorted by Games then ShotPct, both descending.
func AggregatePlayers(lines []ballchasing.StatLine) []PlayerLine {
	byPlayer := make(map[string]*PlayerLine)
	replays := make(map[string]map[string]bool)
	var order []string

	for _, l := range lines {
		pl, ok := byPlayer[l.Player]
		if !ok {
			pl = &PlayerLine{Player: l.Player}
			byPlayer[l.Player] = pl
			replays[l.Player] = make(map[string]bool)
			order = append(order, l.Player)
		}
		pl.Goals += l.Goals
		pl.Shots += l.Shots
		pl.Saves += l.Saves
		pl.Demos += l.Demos
		replays[l.Player][l.ReplayID] = true
	}

	out := make([]PlayerLine, 0, len(order))
	for _, name := range order {
		pl := byPlayer[name]
		pl.Games = len(replays[name])
		pl.ShotPct = ShotPct(pl.Goals, pl.Shots)
		out = append(out, *pl)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Games != out[j].Games {
			return out[i].Games > out[j].Games
		}
		return out[i].ShotPct > out[j].ShotPct
	})
	return out
}
