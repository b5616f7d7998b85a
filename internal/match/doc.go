// Package match defines the bracket match row shared by the scraper, the
// aggregators and the exports, plus the helpers that pick one match to analyse.
//
// Each row carries a stable Index (its position in the scrape) and a
// deterministic SHA1 ID derived from section, round and team names, so a row
// can be referenced across the menu, the CSV export and the log output.
package match
