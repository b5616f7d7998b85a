package match

import (
	"crypto/sha1"
	"fmt"
	"regexp"
	"strings"
)

// Row is one match scraped from a bracket.
type Row struct {
	Index        int      `json:"index"`
	ID           string   `json:"id"`
	Section      string   `json:"section"`
	Round        string   `json:"round"`
	BestOf       int      `json:"best_of"`
	Team1        string   `json:"team1"`
	Team2        string   `json:"team2"`
	Team1URL     string   `json:"team1_url,omitempty"`
	Team2URL     string   `json:"team2_url,omitempty"`
	Team1Players []string `json:"team1_players"`
	Team2Players []string `json:"team2_players"`
}

var placeholderPattern = regexp.MustCompile(`(?i)\b(winner|loser)\s+of\b|^tbd$|^[-—]$`)

// IsPlaceholder reports whether a team slot is still unresolved.
func IsPlaceholder(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || placeholderPattern.MatchString(name)
}

// GenerateID creates a deterministic ID for a match from its stable fields.
func GenerateID(section, round, team1, team2 string) string {
	h := sha1.New()
	h.Write([]byte(strings.Join([]string{section, round, team1, team2}, "|")))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// NewRow builds a row with its ID populated. URLs and rosters are filled in later.
func NewRow(index int, section, round string, bestOf int, team1, team2 string) Row {
	return Row{
		Index:   index,
		ID:      GenerateID(section, round, team1, team2),
		Section: section,
		Round:   round,
		BestOf:  bestOf,
		Team1:   team1,
		Team2:   team2,
	}
}

// Concrete reports whether both teams are known.
func (r Row) Concrete() bool {
	return !IsPlaceholder(r.Team1) && !IsPlaceholder(r.Team2)
}

// Label is the one-line menu description of the match.
func (r Row) Label() string {
	return strings.TrimRight(fmt.Sprintf("%s  vs  %s   | %s %s", r.Team1, r.Team2, r.Section, r.Round), " ")
}

// Concrete returns the rows whose two teams are both known, in scrape order.
func Concrete(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Concrete() {
			out = append(out, r)
		}
	}
	return out
}

// InferBestOf guesses the series length from the section heading. Group
// stages play best-of-5; playoffs and anything unrecognised play best-of-7.
func InferBestOf(section string) int {
	if strings.Contains(strings.ToLower(section), "group") {
		return 5
	}
	return 7
}
