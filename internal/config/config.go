// Package config loads runtime settings from defaults, an optional YAML
// file, an optional .env file and CASSINI_* environment variables, in that
// order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/cassini/internal/logger"
	"github.com/abhisek/cassini/internal/progress"
	"github.com/abhisek/cassini/internal/quiz"
)

// Redis points at an optional shared lock cache.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

// Quiz tunes the quiz engine and progress tracker.
type Quiz struct {
	UnlockThreshold float64       `yaml:"unlock_threshold" validate:"gte=0,lte=100"`
	SpeedrunGrace   time.Duration `yaml:"speedrun_grace" validate:"gte=0"`
	RandomCount     int           `yaml:"random_count" validate:"gte=1"`
	RandomUnits     int           `yaml:"random_units" validate:"gte=1"`
	SurvivalCount   int           `yaml:"survival_count" validate:"gte=1"`
	ChallengeCount  int           `yaml:"challenge_count" validate:"gte=1"`
	ReviewParts     int           `yaml:"review_parts" validate:"gte=1"`
}

// Config is the full runtime configuration.
type Config struct {
	DBPath        string        `yaml:"db_path"`
	DataDir       string        `yaml:"data_dir" validate:"required"`
	AdminIDs      []int64       `yaml:"admin_ids"`
	LogLevel      string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat     string        `yaml:"log_format" validate:"oneof=json console"`
	LogFile       string        `yaml:"log_file"`
	HTTPAddr      string        `yaml:"http_addr" validate:"required"`
	StoreTimeout  time.Duration `yaml:"store_timeout" validate:"gte=0"`
	LockCacheTTL  time.Duration `yaml:"lock_cache_ttl" validate:"gte=0"`
	NavStackLimit int           `yaml:"nav_stack_limit" validate:"gte=1"`
	Redis         Redis         `yaml:"redis"`
	Quiz          Quiz          `yaml:"quiz"`
}

// Default returns the built-in configuration.
func Default() Config {
	q := quiz.DefaultConfig()
	return Config{
		DataDir:       "data",
		LogLevel:      "info",
		LogFormat:     "json",
		HTTPAddr:      ":8080",
		StoreTimeout:  5 * time.Second,
		LockCacheTTL:  30 * time.Second,
		NavStackLimit: 10,
		Quiz: Quiz{
			UnlockThreshold: progress.DefaultUnlockThreshold,
			SpeedrunGrace:   q.SpeedrunGrace,
			RandomCount:     q.RandomCount,
			RandomUnits:     q.RandomUnitsPerSubject,
			SurvivalCount:   q.SurvivalCount,
			ChallengeCount:  q.ChallengeCount,
			ReviewParts:     q.ReviewParts,
		},
	}
}

// Load builds a Config. path may be empty, in which case CASSINI_CONFIG is
// consulted; a missing .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CASSINI_CONFIG")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str("CASSINI_DB", &cfg.DBPath)
	str("CASSINI_DATA_DIR", &cfg.DataDir)
	str("CASSINI_LOG_LEVEL", &cfg.LogLevel)
	str("CASSINI_LOG_FORMAT", &cfg.LogFormat)
	str("CASSINI_LOG_FILE", &cfg.LogFile)
	str("CASSINI_HTTP_ADDR", &cfg.HTTPAddr)
	str("CASSINI_REDIS_ADDR", &cfg.Redis.Addr)
	str("CASSINI_REDIS_PASSWORD", &cfg.Redis.Password)

	if v, ok := os.LookupEnv("CASSINI_REDIS_DB"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("CASSINI_REDIS_DB: %w", err)
		}
		cfg.Redis.DB = n
	}
	if v, ok := os.LookupEnv("CASSINI_ADMIN_IDS"); ok {
		ids, err := ParseIDs(v)
		if err != nil {
			return fmt.Errorf("CASSINI_ADMIN_IDS: %w", err)
		}
		cfg.AdminIDs = ids
	}
	return nil
}

// ParseIDs parses a comma separated id list. Blank entries are skipped.
func ParseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// EngineConfig returns the quiz engine settings.
func (c Config) EngineConfig() quiz.Config {
	q := quiz.DefaultConfig()
	q.SpeedrunGrace = c.Quiz.SpeedrunGrace
	q.RandomCount = c.Quiz.RandomCount
	q.RandomUnitsPerSubject = c.Quiz.RandomUnits
	q.SurvivalCount = c.Quiz.SurvivalCount
	q.ChallengeCount = c.Quiz.ChallengeCount
	q.ReviewParts = c.Quiz.ReviewParts
	return q
}

// LoggerOptions returns the logger settings.
func (c Config) LoggerOptions() logger.Options {
	return logger.Options{Level: c.LogLevel, Format: c.LogFormat, File: c.LogFile}
}

// DefaultLogFile is where the terminal UI logs when no log_file is set:
// $XDG_STATE_HOME/cassini/cassini.log, falling back to ~/.local/state.
func DefaultLogFile() (string, error) {
	state := os.Getenv("XDG_STATE_HOME")
	if state == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		state = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(state, "cassini", "cassini.log"), nil
}
