package h2h

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/rl-predictor/internal/roster"
)

const maxDateLen = 32

// Record is one past series listed on the head-to-head page.
type Record struct {
	Date      string `json:"date"`
	MatchLink string `json:"match_link"`
	Score     string `json:"score"`
}

// RefKind says whether a ballchasing link points at a replay or a group.
type RefKind string

const (
	KindReplay RefKind = "replay"
	KindGroup  RefKind = "group"
)

// ReplayRef is a ballchasing id found on a match page.
type ReplayRef struct {
	Kind RefKind
	ID   string
}

// BuildURL returns the Special:RunQuery/Head2Head URL for two teams.
func BuildURL(wikiBase, team1, team2 string) string {
	params := url.Values{}
	params.Set("Headtohead[team1]", team1)
	params.Set("Headtohead[team2]", team2)
	params.Set("RunQuery", "Run")
	params.Set("pfRunQueryFormName", "Head2head")

	if !strings.HasSuffix(wikiBase, "/") {
		wikiBase += "/"
	}
	return wikiBase + "Special:RunQuery/Head2Head?" + params.Encode()
}

// ParseRows reads the result table of a head-to-head page. Rows need at least
// two cells and a link into the wiki.
func ParseRows(doc *goquery.Document, wikiBase string) []Record {
	origin, _ := url.Parse(wikiOrigin(wikiBase))
	records := make([]Record, 0)

	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() < 2 {
			return
		}
		href := strings.TrimSpace(tr.Find("a[href*='/rocketleague/']").First().AttrOr("href", ""))
		if href == "" {
			return
		}

		link := resolveLink(origin, href)

		records = append(records, Record{
			Date:      truncate(roster.CleanTitle(tds.First().Text()), maxDateLen),
			MatchLink: link,
			Score:     roster.CleanTitle(tr.Text()),
		})
	})

	return records
}

var ballchasingIDPattern = regexp.MustCompile(`ballchasing\.com/(replay|group)/([A-Za-z0-9-]+)`)

// ExtractReplayRefs returns the ballchasing replay and group links on a page,
// without duplicates, in page order.
func ExtractReplayRefs(doc *goquery.Document) []ReplayRef {
	var refs []ReplayRef
	seen := make(map[ReplayRef]bool)

	doc.Find("a[href*='ballchasing.com']").Each(func(_ int, a *goquery.Selection) {
		m := ballchasingIDPattern.FindStringSubmatch(a.AttrOr("href", ""))
		if m == nil {
			return
		}
		ref := ReplayRef{Kind: RefKind(m[1]), ID: m[2]}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	})

	return refs
}

// resolveLink keeps absolute http(s) links and resolves everything else,
// protocol-relative links included, against the wiki origin.
func resolveLink(origin *url.URL, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil || origin == nil {
		return href
	}
	if ref.Host == "" && !strings.HasPrefix(ref.Path, "/") {
		ref.Path = "/" + ref.Path
	}
	return origin.ResolveReference(ref).String()
}

func wikiOrigin(wikiBase string) string {
	u, err := url.Parse(wikiBase)
	if err != nil || u.Host == "" {
		return strings.TrimRight(wikiBase, "/")
	}
	return u.Scheme + "://" + u.Host
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
