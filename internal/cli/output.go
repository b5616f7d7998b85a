package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pfrederiksen/rl-predictor/internal/feature"
	"github.com/pfrederiksen/rl-predictor/internal/h2h"
	"github.com/pfrederiksen/rl-predictor/internal/match"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Mode        string                `json:"mode"`
	Match       match.Row             `json:"match"`
	Features    []feature.TeamFeature `json:"features,omitempty"`
	H2H         *h2h.Result           `json:"h2h,omitempty"`
	Exports     []string              `json:"exports"`
	Logs        []string              `json:"logs,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return errors.Newf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	data, err := sonic.ConfigStd.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding result")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

// writeText outputs results as human-readable tables
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	m := result.Match
	fmt.Fprintf(w, "\n%s vs %s | %s %s (Bo%d)\n\n", m.Team1, m.Team2, m.Section, m.Round, m.BestOf)

	switch {
	case result.Features != nil:
		writeFeatureTable(w, result.Features)
	case result.H2H != nil:
		if len(result.H2H.Players) == 0 {
			fmt.Fprintln(w, "No stats found.")
		} else {
			writePlayerTable(w, result.H2H.Players)
		}
		if verbose {
			fmt.Fprintf(w, "\nSeries followed: %d, replays: %d (%s)\n",
				len(result.H2H.Records), len(result.H2H.ReplayIDs), sourceLabel(result.H2H.Source))
		}
	}

	if verbose && len(result.Features) > 0 {
		for _, f := range result.Features {
			if len(f.Players) == 0 {
				continue
			}
			fmt.Fprintf(w, "\n%s players:\n", f.Team)
			writePlayerTable(w, f.Players)
		}
	}

	for _, path := range result.Exports {
		fmt.Fprintf(w, "\nSaved to %s\n", path)
	}

	if len(result.Logs) > 0 {
		fmt.Fprintln(w, "\nLogs:")
		for _, l := range result.Logs {
			fmt.Fprintf(w, "- %s\n", l)
		}
	}
	return nil
}

func writeFeatureTable(w io.Writer, rows []feature.TeamFeature) {
	table := newTable(w)
	table.Header("SIDE", "TEAM", "OPPONENT", "GAMES", "GOALS", "SHOTS", "SAVES", "DEMOS", "SHOT%")
	for _, f := range rows {
		table.Append(
			f.Side,
			f.Team,
			f.Opponent,
			strconv.Itoa(f.Games),
			strconv.Itoa(f.Goals),
			strconv.Itoa(f.Shots),
			strconv.Itoa(f.Saves),
			strconv.Itoa(f.Demos),
			formatPct(f.ShotPct),
		)
	}
	table.Render()
}

func writePlayerTable(w io.Writer, lines []feature.PlayerLine) {
	table := newTable(w)
	table.Header("PLAYER", "GAMES", "GOALS", "SHOTS", "SHOT%", "SAVES", "DEMOS")
	for _, l := range lines {
		table.Append(
			l.Player,
			strconv.Itoa(l.Games),
			strconv.Itoa(l.Goals),
			strconv.Itoa(l.Shots),
			formatPct(l.ShotPct),
			strconv.Itoa(l.Saves),
			strconv.Itoa(l.Demos),
		)
	}
	table.Render()
}

// writeMatchTable prints the scraped rows, placeholders included.
func writeMatchTable(w io.Writer, rows []match.Row, limit int) {
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	table := newTable(w)
	table.Header("#", "SECTION", "ROUND", "TEAM1", "TEAM2", "ROSTER1", "ROSTER2")
	for _, r := range rows {
		table.Append(
			strconv.Itoa(r.Index),
			r.Section,
			r.Round,
			r.Team1,
			r.Team2,
			strconv.Itoa(len(r.Team1Players)),
			strconv.Itoa(len(r.Team2Players)),
		)
	}
	table.Render()
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func sourceLabel(s h2h.Source) string {
	if s == h2h.SourceNone {
		return "none"
	}
	return string(s)
}
