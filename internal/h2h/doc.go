// Package h2h collects replay stats for past meetings of two teams.
//
// The Liquipedia Head2Head query page lists previous series; each linked match
// page is scanned for ballchasing replay and group links. When no page carries
// such links, replays are searched by player name and kept only when both
// rosters are represented.
package h2h
