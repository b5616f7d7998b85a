// Package cli implements the command-line interface for rl-predictor.
//
// The root command scrapes a Liquipedia tournament, writes the match export,
// lets the user pick one concrete matchup (by --match or an interactive menu)
// and then either builds feature rows for both teams or collects head-to-head
// player stats. Results go to the console as tables or JSON and to CSV files
// under the output directory.
package cli
