package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pfrederiksen/rl-predictor/internal/feature"
	"github.com/pfrederiksen/rl-predictor/internal/logger"
	"github.com/pfrederiksen/rl-predictor/internal/match"
)

const (
	MatchesFile  = "playoffs_scraped.csv"
	H2HFile      = "h2h_stats.csv"
	FeaturesFile = "features_playoffs_selected.csv"
)

// Storage writes run exports into one directory
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "getting home directory")
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Path returns the full path of an export file.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.dataDir, name)
}

// SaveMatches writes every scraped match row. Rosters are joined with "; ".
func (s *Storage) SaveMatches(rows []match.Row) (string, error) {
	header := []string{
		"index", "id", "section", "round", "best_of",
		"team1", "team2", "team1_url", "team2_url", "team1_players", "team2_players",
	}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.Itoa(r.Index), r.ID, r.Section, r.Round, strconv.Itoa(r.BestOf),
			r.Team1, r.Team2, r.Team1URL, r.Team2URL,
			strings.Join(r.Team1Players, "; "), strings.Join(r.Team2Players, "; "),
		})
	}
	return s.write(MatchesFile, header, records)
}

// SaveH2H writes per-player head-to-head totals.
func (s *Storage) SaveH2H(lines []feature.PlayerLine) (string, error) {
	header := []string{"Player", "Games", "Goals", "Shots", "Shot %", "Saves", "Demos"}
	records := make([][]string, 0, len(lines))
	for _, l := range lines {
		records = append(records, []string{
			l.Player, strconv.Itoa(l.Games), strconv.Itoa(l.Goals), strconv.Itoa(l.Shots),
			formatPct(l.ShotPct), strconv.Itoa(l.Saves), strconv.Itoa(l.Demos),
		})
	}
	return s.write(H2HFile, header, records)
}

// SaveFeatures writes the feature rows of the selected match.
func (s *Storage) SaveFeatures(rows ...feature.TeamFeature) (string, error) {
	header := []string{
		"team", "opponent", "section", "round", "best_of", "side",
		"Games", "Goals", "Shots", "Saves", "Demos", "Shot %",
	}
	records := make([][]string, 0, len(rows))
	for _, f := range rows {
		records = append(records, []string{
			f.Team, f.Opponent, f.Section, f.Round, strconv.Itoa(f.BestOf), f.Side,
			strconv.Itoa(f.Games), strconv.Itoa(f.Goals), strconv.Itoa(f.Shots),
			strconv.Itoa(f.Saves), strconv.Itoa(f.Demos), formatPct(f.ShotPct),
		})
	}
	return s.write(FeaturesFile, header, records)
}

func (s *Storage) write(name string, header []string, records [][]string) (string, error) {
	path := s.Path(name)

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", name)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", errors.Wrapf(err, "writing %s", name)
	}
	if err := w.WriteAll(records); err != nil {
		return "", errors.Wrapf(err, "writing %s", name)
	}

	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "closing %s", name)
	}
	logger.Debug("export written", logger.Fields{"path": path, "rows": len(records)})
	return path, nil
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
