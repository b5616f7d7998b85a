package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/rl-predictor/internal/ballchasing"
	"github.com/pfrederiksen/rl-predictor/internal/bracket"
	"github.com/pfrederiksen/rl-predictor/internal/config"
	"github.com/pfrederiksen/rl-predictor/internal/feature"
	"github.com/pfrederiksen/rl-predictor/internal/fetch"
	"github.com/pfrederiksen/rl-predictor/internal/h2h"
	"github.com/pfrederiksen/rl-predictor/internal/logger"
	"github.com/pfrederiksen/rl-predictor/internal/match"
	"github.com/pfrederiksen/rl-predictor/internal/players"
	"github.com/pfrederiksen/rl-predictor/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

const (
	ModeFeatures = "features"
	ModeH2H      = "h2h"

	h2hLogLimit     = 10
	featureLogLimit = 12
	matchPreview    = 20
)

var (
	flagMode       string
	flagMatch      string
	flagSection    string
	flagNoRender   bool
	flagOutDir     string
	flagPlayerIDs  string
	flagRecentDays int
	flagMaxReplays int
	flagFormat     string
	flagSort       string
	flagVerbose    bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rl-predictor <tournament-url>",
		Short: "Scrape a Liquipedia bracket and pull ballchasing stats for one matchup",
		Long: `Scrapes the playoff bracket of a Liquipedia Rocket League tournament,
resolves team rosters, and for a chosen matchup either builds per-team
feature rows from recent ballchasing replays or collects head-to-head
player stats from past meetings.

BALLCHASING_API_KEY must be set in the environment or in .env.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	cmd.Flags().StringVar(&flagMode, "mode", ModeFeatures, "Mode: features or h2h")
	cmd.Flags().StringVar(&flagMatch, "match", "", "Preselect a match by index (e.g. 0) or team substring (e.g. 'Karmine')")
	cmd.Flags().StringVar(&flagSection, "section", bracket.DefaultSection, "Only keep brackets under headings containing this text (empty = all)")
	cmd.Flags().BoolVar(&flagNoRender, "no-render", false, "Fetch the tournament page without headless Chrome")
	cmd.Flags().StringVar(&flagOutDir, "out-dir", config.DefaultOutputDir, "Directory for CSV exports (env: RL_OUTPUT_DIR)")
	cmd.Flags().StringVar(&flagPlayerIDs, "player-ids", config.DefaultPlayerIDMap, "Player name -> ballchasing id map, JSON or CSV (env: RL_PLAYER_ID_MAP)")
	cmd.Flags().IntVar(&flagRecentDays, "recent-days", config.DefaultRecentDays, "Only use replays from the last N days (env: RL_RECENT_DAYS)")
	cmd.Flags().IntVar(&flagMaxReplays, "max-replays", config.DefaultMaxReplays, "Replays listed per player, max 200 (env: RL_MAX_REPLAYS)")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagSort, "sort", string(SortByGames), "Sort player tables by: games, goals, shot-pct, player")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	return cmd
}

// Options are the per-run choices taken from flags.
type Options struct {
	Mode    string
	Match   string
	Format  OutputFormat
	Sort    SortOrder
	Verbose bool
}

// Validate checks flag values that cobra cannot.
func (o Options) Validate() error {
	if o.Mode != ModeFeatures && o.Mode != ModeH2H {
		return errors.Newf("invalid mode: %s (must be 'features' or 'h2h')", o.Mode)
	}
	if o.Format != FormatText && o.Format != FormatJSON {
		return errors.Newf("invalid format: %s (must be 'text' or 'json')", o.Format)
	}
	if !validSortOrder(o.Sort) {
		return errors.Newf("invalid sort: %s", o.Sort)
	}
	return nil
}

// App holds the collaborators of one run.
type App struct {
	Config   config.Config
	Scraper  *bracket.Scraper
	Pages    fetch.Fetcher
	API      h2h.ReplayAPI
	Store    *storage.Storage
	PlayerID *players.Map
	Notes    *logger.Notes
	In       io.Reader
	Out      io.Writer
	Now      func() time.Time
}

// runRoot is the main command logic
func runRoot(cmd *cobra.Command, args []string) error {
	opts := Options{
		Mode:    strings.ToLower(strings.TrimSpace(flagMode)),
		Match:   flagMatch,
		Format:  OutputFormat(strings.ToLower(flagFormat)),
		Sort:    SortOrder(strings.ToLower(flagSort)),
		Verbose: flagVerbose,
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.LogLevel
	if opts.Verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, os.Stderr))
	defer logger.Default().Sync()

	app, err := NewApp(cfg, flagNoRender, flagSection)
	if err != nil {
		return err
	}
	app.In = cmd.InOrStdin()
	app.Out = cmd.OutOrStdout()

	return app.Run(cmd.Context(), args[0], opts)
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("out-dir") {
		cfg.OutputDir = flagOutDir
	}
	if flags.Changed("player-ids") {
		cfg.PlayerIDMapPath = flagPlayerIDs
	}
	if flags.Changed("recent-days") {
		cfg.RecentDays = flagRecentDays
	}
	if flags.Changed("max-replays") {
		cfg.MaxReplays = flagMaxReplays
	}
}

// NewApp wires the production collaborators from configuration.
func NewApp(cfg config.Config, noRender bool, section string) (*App, error) {
	client, err := ballchasing.NewClient(cfg.BallchasingAPIKey, ballchasing.WithDelay(cfg.APIDelay))
	if err != nil {
		return nil, err
	}

	store, err := storage.New(cfg.OutputDir)
	if err != nil {
		return nil, errors.Wrap(err, "initializing storage")
	}

	ids, err := players.Load(cfg.PlayerIDMapPath)
	if err != nil {
		return nil, errors.Wrap(err, "loading player id map")
	}

	pages := fetch.NewHTTP(nil)
	var renderer fetch.Fetcher = fetch.NewChrome()
	if noRender {
		renderer = pages
	}

	notes := &logger.Notes{}
	sc := bracket.New(renderer, pages,
		bracket.WithWikiBase(cfg.WikiBaseURL),
		bracket.WithSection(section),
		bracket.WithNotes(notes),
	)

	return &App{
		Config:   cfg,
		Scraper:  sc,
		Pages:    pages,
		API:      client,
		Store:    store,
		PlayerID: ids,
		Notes:    notes,
		In:       os.Stdin,
		Out:      os.Stdout,
		Now:      time.Now,
	}, nil
}

// Run scrapes the tournament, selects a match and runs the chosen mode.
func (a *App) Run(ctx context.Context, tournamentURL string, opts Options) error {
	fmt.Fprintf(a.Out, "\nScraping Liquipedia data from: %s\n\n", tournamentURL)

	rows, err := a.Scraper.Scrape(ctx, tournamentURL)
	if err != nil {
		return errors.Wrap(err, "scraping tournament")
	}
	if _, err := a.Store.SaveMatches(rows); err != nil {
		return errors.Wrap(err, "saving matches")
	}
	if opts.Format == FormatText {
		writeMatchTable(a.Out, rows, matchPreview)
	}

	concrete := match.Concrete(rows)
	logger.SetGauge("bracket.matches", float64(len(rows)))
	logger.SetGauge("bracket.concrete", float64(len(concrete)))
	if len(concrete) == 0 {
		fmt.Fprintln(a.Out, "No concrete matchups yet.")
		return nil
	}

	row, err := a.selectMatch(concrete, opts.Match)
	if errors.Is(err, match.ErrQuit) {
		fmt.Fprintln(a.Out, "Exited.")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("match selected", logger.Fields{
		"index": row.Index, "team1": row.Team1, "team2": row.Team2, "mode": opts.Mode,
	})

	result := &OutputResult{GeneratedAt: a.now(), Mode: opts.Mode, Match: row}
	switch opts.Mode {
	case ModeH2H:
		err = a.runH2H(ctx, row, opts, result)
	default:
		err = a.runFeatures(ctx, row, opts, result)
	}
	if err != nil {
		return err
	}

	if opts.Verbose {
		logger.Info("run metrics", logger.MetricsSnapshot().Fields())
	}
	return WriteOutput(a.Out, result, opts.Format, opts.Verbose)
}

func (a *App) selectMatch(rows []match.Row, arg string) (match.Row, error) {
	if strings.TrimSpace(arg) != "" {
		row, warning, ok := match.Preselect(rows, arg)
		if warning != "" {
			fmt.Fprintf(a.Out, "Warning: %s.\n", warning)
		}
		if ok {
			return row, nil
		}
	}
	return match.Prompt(a.In, a.Out, rows)
}

func (a *App) runH2H(ctx context.Context, row match.Row, opts Options, result *OutputResult) error {
	svc := h2h.NewService(a.Pages, a.API, a.Notes, h2h.WithWikiBase(a.Config.WikiBaseURL))
	res, err := svc.Lookup(ctx, row.Team1, row.Team2, row.Team1Players, row.Team2Players)
	if err != nil {
		return errors.Wrap(err, "head-to-head lookup")
	}
	sortPlayers(res.Players, opts.Sort)

	path, err := a.Store.SaveH2H(res.Players)
	if err != nil {
		return errors.Wrap(err, "saving head-to-head stats")
	}

	result.H2H = &res
	result.Exports = []string{path}
	result.Logs = a.Notes.Head(h2hLogLimit)
	return nil
}

func (a *App) runFeatures(ctx context.Context, row match.Row, opts Options, result *OutputResult) error {
	b := feature.NewBuilder(a.API, a.PlayerID, feature.Config{
		RecentDays: a.Config.RecentDays,
		MaxReplays: a.Config.MaxReplays,
		ListDelay:  feature.DefaultListDelay,
	}, a.Notes)

	left, right, err := b.BuildRows(ctx, row)
	if err != nil {
		return errors.Wrap(err, "building features")
	}
	sortPlayers(left.Players, opts.Sort)
	sortPlayers(right.Players, opts.Sort)

	path, err := a.Store.SaveFeatures(left, right)
	if err != nil {
		return errors.Wrap(err, "saving features")
	}

	result.Features = []feature.TeamFeature{left, right}
	result.Exports = []string{path}
	result.Logs = a.Notes.Head(featureLogLimit)
	return nil
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now().UTC()
	}
	return a.Now().UTC()
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signalContext()
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(ExitError)
	}
}
