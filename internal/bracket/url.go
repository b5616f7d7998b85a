package bracket

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/rl-predictor/internal/roster"
)

// TeamURL builds the wiki page URL for a team name: spaces become underscores
// and every byte outside A-Za-z0-9 and _.-~()'! is percent-encoded.
func TeamURL(wikiBase, name string) string {
	slug := strings.ReplaceAll(roster.CleanTitle(name), " ", "_")
	if !strings.HasSuffix(wikiBase, "/") {
		wikiBase += "/"
	}
	return wikiBase + escapeTitle(slug)
}

func escapeTitle(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isTitleSafe(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isTitleSafe(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("_.-~()'!", c) >= 0
}
