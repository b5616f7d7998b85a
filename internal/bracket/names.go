package bracket

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/rl-predictor/internal/roster"
)

// nameStrategy extracts an opponent name from a .brkts-opponent-entry.
type nameStrategy func(op *goquery.Selection) string

// opponentNameStrategies run in order until one yields a non-empty name.
var opponentNameStrategies = []nameStrategy{
	func(op *goquery.Selection) string {
		return op.AttrOr("aria-label", "")
	},
	titledLink(".team-template-text a[title]"),
	titledLink(".team-template-image a[title]"),
	func(op *goquery.Selection) string {
		return op.Find(".name.hidden-xs, .name.visible-xs, .brkts-opponent-name, .team-template-name, .name").First().Text()
	},
	func(op *goquery.Selection) string {
		a := op.Find("a").First()
		if title := strings.TrimSpace(a.AttrOr("title", "")); title != "" {
			return title
		}
		return a.Text()
	},
	func(op *goquery.Selection) string {
		return op.Text()
	},
}

func titledLink(sel string) nameStrategy {
	return func(op *goquery.Selection) string {
		return op.Find(sel).First().AttrOr("title", "")
	}
}

// OpponentName returns the cleaned team name of an opponent entry, or "".
func OpponentName(op *goquery.Selection) string {
	for _, s := range opponentNameStrategies {
		if name := roster.CleanTitle(s(op)); name != "" {
			return name
		}
	}
	return ""
}

const (
	columnSelector     = ".brkts-column, .brkts-round, .brkts-round-wrapper"
	roundLabelSelector = ".brkts-round-label, .brkts-matchlist-header, .brkts-roundheader"
	unknown            = "Unknown"
)

// RoundLabel resolves the round a match belongs to. It looks for the nearest
// .brkts-header before the match inside its column, then for a round label
// anywhere in the column.
func RoundLabel(bracket, m *goquery.Selection) string {
	col := m.Closest(columnSelector)
	if col.Length() == 0 {
		col = bracket
	}

	child := m.ParentsUntilSelection(col).Last()
	if child.Length() == 0 {
		child = m
	}
	if h := child.PrevAllFiltered(".brkts-header").First(); h.Length() > 0 {
		if label := roster.CleanTitle(h.Text()); label != "" {
			return label
		}
	}

	if label := roster.CleanTitle(col.Find(roundLabelSelector).First().Text()); label != "" {
		return label
	}
	return unknown
}

// headingText prefers the .mw-headline span MediaWiki wraps heading text in.
func headingText(h *goquery.Selection) string {
	if hl := h.Find(".mw-headline").First(); hl.Length() > 0 {
		if text := roster.CleanTitle(hl.Text()); text != "" {
			return text
		}
	}
	return roster.CleanTitle(h.Text())
}
