package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/rl-predictor/internal/feature"
)

// SortOrder represents the available sorting options for player tables
type SortOrder string

const (
	SortByGames   SortOrder = "games"
	SortByGoals   SortOrder = "goals"
	SortByShotPct SortOrder = "shot-pct"
	SortByPlayer  SortOrder = "player"
)

func validSortOrder(s SortOrder) bool {
	switch s {
	case SortByGames, SortByGoals, SortByShotPct, SortByPlayer:
		return true
	}
	return false
}

// sortPlayers sorts player lines in place. Ties fall back to games, then name.
func sortPlayers(lines []feature.PlayerLine, order SortOrder) {
	switch order {
	case SortByGames:
		sort.SliceStable(lines, func(i, j int) bool {
			if lines[i].Games != lines[j].Games {
				return lines[i].Games > lines[j].Games
			}
			if lines[i].ShotPct != lines[j].ShotPct {
				return lines[i].ShotPct > lines[j].ShotPct
			}
			return byName(lines[i], lines[j])
		})
	case SortByGoals:
		sort.SliceStable(lines, func(i, j int) bool {
			if lines[i].Goals != lines[j].Goals {
				return lines[i].Goals > lines[j].Goals
			}
			return compareByGames(lines[i], lines[j])
		})
	case SortByShotPct:
		sort.SliceStable(lines, func(i, j int) bool {
			if lines[i].ShotPct != lines[j].ShotPct {
				return lines[i].ShotPct > lines[j].ShotPct
			}
			return compareByGames(lines[i], lines[j])
		})
	case SortByPlayer:
		sort.SliceStable(lines, func(i, j int) bool {
			return byName(lines[i], lines[j])
		})
	}
}

// compareByGames returns true if i should come before j
func compareByGames(i, j feature.PlayerLine) bool {
	if i.Games != j.Games {
		return i.Games > j.Games
	}
	return byName(i, j)
}

func byName(i, j feature.PlayerLine) bool {
	return strings.ToLower(i.Player) < strings.ToLower(j.Player)
}
