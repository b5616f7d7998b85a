package bracket

import "github.com/pfrederiksen/rl-predictor/internal/logger"

// RosterCache holds team page URL -> roster for one run. Failed lookups are
// stored as empty rosters so the page is not fetched again.
type RosterCache struct {
	rosters map[string][]string
	hits    int
}

// NewRosterCache creates an empty cache.
func NewRosterCache() *RosterCache {
	return &RosterCache{rosters: make(map[string][]string)}
}

// Get returns the cached roster and whether the URL was seen before.
func (c *RosterCache) Get(url string) ([]string, bool) {
	players, ok := c.rosters[url]
	if ok {
		c.hits++
		logger.IncrCounter("bracket.roster_cache_hits")
	}
	return players, ok
}

// Set stores a roster. A nil roster is stored as empty.
func (c *RosterCache) Set(url string, players []string) {
	if players == nil {
		players = []string{}
	}
	c.rosters[url] = players
}

// Size returns the number of cached team pages.
func (c *RosterCache) Size() int {
	return len(c.rosters)
}

// Hits returns how many lookups were served from the cache.
func (c *RosterCache) Hits() int {
	return c.hits
}
