// Package storage writes the CSV exports of a run.
//
// Three files are produced under the output directory (data/ by default):
// playoffs_scraped.csv with every scraped match, h2h_stats.csv with
// head-to-head player totals, and features_playoffs_selected.csv with the two
// feature rows of the chosen match. Each run overwrites the previous files.
package storage
