package roster

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MaxPlayers is the number of starters kept per team.
	MaxPlayers = 3
	// MaxNameLength drops link titles that are clearly not handles.
	MaxNameLength = 40

	activeHeadingWindow = 7
	maxSiblingHops      = 12
)

// staffKeywords mark link titles that belong to staff or page furniture.
var staffKeywords = []string{
	"coach", "twitter", "country", "substitute",
	"manager", "owner", "analyst", "staff",
}

// Selectors are the roster card layouts tried after the heading walk.
var Selectors = []string{
	".roster-card .team-template-text a[title]",
	".roster-card .ID a[title]",
	".roster-card .player a[title]",
	".roster .player a[title]",
	".teamcard .team-template-text a[title]",
	".infobox-cell-2 a[title]",
}

// Strategy extracts candidate names from a team page.
type Strategy func(doc *goquery.Document) []string

// Strategies is the ordered cascade Extract runs.
var Strategies = []Strategy{
	FromActiveHeading,
	FromSelectors,
	FromAnyTitledLink,
}

// Extract returns up to MaxPlayers cleaned player names.
func Extract(doc *goquery.Document) []string {
	if doc == nil {
		return nil
	}
	for _, s := range Strategies {
		if names := s(doc); len(names) > 0 {
			return limit(names)
		}
	}
	return nil
}

// FromActiveHeading finds the "Player Roster" heading, then the first "Active"
// heading after it that has linked names in the sections that follow.
func FromActiveHeading(doc *goquery.Document) []string {
	headings := doc.Find("h2, h3, h4")

	rosterIdx := -1
	headings.EachWithBreak(func(i int, h *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(CleanTitle(h.Text())), "player roster") {
			rosterIdx = i
			return false
		}
		return true
	})
	if rosterIdx < 0 {
		return nil
	}

	end := rosterIdx + 1 + activeHeadingWindow
	if end > headings.Length() {
		end = headings.Length()
	}
	for j := rosterIdx + 1; j < end; j++ {
		h := headings.Eq(j)
		if !strings.Contains(strings.ToLower(h.Text()), "active") {
			continue
		}
		if names := Clean(namesUnderHeading(h)); len(names) > 0 {
			return names
		}
	}
	return nil
}

func namesUnderHeading(h *goquery.Selection) []string {
	var names []string
	node := h.Next()
	for hops := 0; node.Length() > 0 && hops < maxSiblingHops; hops++ {
		if node.Is("h2, h3, h4") {
			break
		}
		node.Find("a[title]").Each(func(_ int, a *goquery.Selection) {
			names = append(names, titleOrText(a))
		})
		node = node.Next()
	}
	return names
}

// FromSelectors tries each known roster card layout.
func FromSelectors(doc *goquery.Document) []string {
	for _, sel := range Selectors {
		var raw []string
		doc.Find(sel).Each(func(_ int, a *goquery.Selection) {
			raw = append(raw, titleOrText(a))
		})
		if names := Clean(raw); len(names) > 0 {
			return names
		}
	}
	return nil
}

// FromAnyTitledLink takes link titles from the article body as a last resort.
func FromAnyTitledLink(doc *goquery.Document) []string {
	var raw []string
	doc.Find(".mw-parser-output a[title]").Each(func(_ int, a *goquery.Selection) {
		title, _ := a.Attr("title")
		raw = append(raw, title)
	})
	return Clean(raw)
}

// Clean drops staff entries, blanks and overlong names, then de-duplicates
// preserving order.
func Clean(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = CleanTitle(n)
		if n == "" || len(n) > MaxNameLength || isStaff(n) || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func isStaff(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range staffKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var whitespace = regexp.MustCompile(`\s+`)

// CleanTitle strips zero-width spaces, turns NBSP into spaces and collapses
// whitespace.
func CleanTitle(s string) string {
	s = strings.ReplaceAll(s, "\u200b", "")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}

func titleOrText(a *goquery.Selection) string {
	if title, ok := a.Attr("title"); ok && strings.TrimSpace(title) != "" {
		return title
	}
	return a.Text()
}

func limit(names []string) []string {
	if len(names) > MaxPlayers {
		return names[:MaxPlayers]
	}
	return names
}
