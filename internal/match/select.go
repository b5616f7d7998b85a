package match

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrQuit is returned by Prompt when the user leaves the menu.
var ErrQuit = errors.New("selection cancelled")

// Preselect picks a row by menu position or by a case-insensitive team name
// substring. A non-empty warning explains a miss, or notes that several rows
// matched and the first was taken.
func Preselect(rows []Row, arg string) (Row, string, bool) {
	s := strings.TrimSpace(arg)
	if s == "" {
		return Row{}, "", false
	}

	if i, err := strconv.Atoi(s); err == nil && isDigits(s) {
		if i >= 0 && i < len(rows) {
			return rows[i], "", true
		}
		return Row{}, fmt.Sprintf("--match index %d out of range (0..%d)", i, len(rows)-1), false
	}

	needle := strings.ToLower(s)
	var hits []Row
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Team1), needle) || strings.Contains(strings.ToLower(r.Team2), needle) {
			hits = append(hits, r)
		}
	}
	switch len(hits) {
	case 0:
		return Row{}, fmt.Sprintf("--match %q did not match any team names", arg), false
	case 1:
		return hits[0], "", true
	default:
		return hits[0], fmt.Sprintf("--match %q matched %d rows; picking the first", arg, len(hits)), true
	}
}

// Prompt shows a numbered menu on out and reads choices from in until a valid
// index is entered. q, quit, exit or end of input return ErrQuit.
func Prompt(in io.Reader, out io.Writer, rows []Row) (Row, error) {
	if len(rows) == 0 {
		return Row{}, errors.New("no matches to choose from")
	}

	fmt.Fprintln(out, "\nAvailable matchups:")
	for i, r := range rows {
		fmt.Fprintf(out, "[%d] %s\n", i, r.Label())
	}
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Enter a match number (or 'q' to quit): ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return Row{}, errors.Wrap(err, "reading selection")
			}
			return Row{}, ErrQuit
		}

		sel := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch sel {
		case "q", "quit", "exit":
			return Row{}, ErrQuit
		}
		if isDigits(sel) {
			if i, err := strconv.Atoi(sel); err == nil && i < len(rows) {
				return rows[i], nil
			}
		}
		fmt.Fprintf(out, "Invalid selection. Choose 0-%d, or 'q' to quit.\n", len(rows)-1)
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
