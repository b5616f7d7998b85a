// Package config loads runtime configuration for rl-predictor from the
// environment and an optional .env file.
package config

import (
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/pfrederiksen/rl-predictor/internal/logger"
)

const (
	DefaultWikiBaseURL = "https://liquipedia.net/rocketleague/"
	DefaultOutputDir   = "data"
	DefaultPlayerIDMap = "data/player_ids.json"
	DefaultRecentDays  = 90
	DefaultMaxReplays  = 150
	DefaultAPIDelay    = 350 * time.Millisecond
)

// ErrMissingAPIKey is returned when BALLCHASING_API_KEY is not set.
var ErrMissingAPIKey = errors.New("BALLCHASING_API_KEY is not set (export it or add it to .env)")

// Config stores runtime configuration for a run.
type Config struct {
	BallchasingAPIKey string `validate:"required"`
	WikiBaseURL       string `validate:"required,url"`
	OutputDir         string `validate:"required"`
	PlayerIDMapPath   string
	RecentDays        int           `validate:"gte=1"`
	MaxReplays        int           `validate:"gte=1,lte=200"`
	APIDelay          time.Duration `validate:"gte=0"`
	LogLevel          logger.Level
}

// Load reads .env (when present) and the environment, applies defaults and
// validates the result. A missing API key is fatal.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, errors.Wrap(err, "load .env")
	}

	recentDays, err := getEnvAsInt("RL_RECENT_DAYS", DefaultRecentDays)
	if err != nil {
		return Config{}, errors.Wrap(err, "parse RL_RECENT_DAYS")
	}
	maxReplays, err := getEnvAsInt("RL_MAX_REPLAYS", DefaultMaxReplays)
	if err != nil {
		return Config{}, errors.Wrap(err, "parse RL_MAX_REPLAYS")
	}
	apiDelay, err := getEnvAsDuration("RL_API_DELAY", DefaultAPIDelay)
	if err != nil {
		return Config{}, errors.Wrap(err, "parse RL_API_DELAY")
	}
	level, err := logger.ParseLevel(getEnv("RL_LOG_LEVEL", string(logger.LevelInfo)))
	if err != nil {
		return Config{}, errors.Wrap(err, "parse RL_LOG_LEVEL")
	}

	cfg := Config{
		BallchasingAPIKey: strings.TrimSpace(getEnv("BALLCHASING_API_KEY", "")),
		WikiBaseURL:       normalizeBaseURL(getEnv("RL_WIKI_BASE_URL", DefaultWikiBaseURL)),
		OutputDir:         getEnv("RL_OUTPUT_DIR", DefaultOutputDir),
		PlayerIDMapPath:   getEnv("RL_PLAYER_ID_MAP", DefaultPlayerIDMap),
		RecentDays:        recentDays,
		MaxReplays:        maxReplays,
		APIDelay:          apiDelay,
		LogLevel:          level,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints. Flag overrides applied after Load should
// call it again.
func (c Config) Validate() error {
	if c.BallchasingAPIKey == "" {
		return ErrMissingAPIKey
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

func normalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
