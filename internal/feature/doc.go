// Package feature turns ballchasing replay stats into per-team feature rows
// for one matchup.
//
// For each side the roster's recent replays are listed (by player id when the
// id map knows the player, by name otherwise), de-duplicated, fetched, kept if
// they fall inside the recency window, and reduced to the roster's own stat
// lines. Totals are summed over the roster and Games counts the distinct
// qualifying replays.
package feature
