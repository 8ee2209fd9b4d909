package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"rugby"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"rugby_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisEnabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogDir    string `envconfig:"LOG_DIR" default:"logs"`
	LogToFile bool   `envconfig:"LOG_TO_FILE" default:"false"`
	Timezone  string `envconfig:"TIMEZONE" default:"UTC"`

	// Sources
	SourceURLs  string `envconfig:"SOURCE_URLS" default:""`
	CatalogFile string `envconfig:"CATALOG_FILE" default:""`

	// Reconciliation
	CandidateDaysBack  int  `envconfig:"CANDIDATE_DAYS_BACK" default:"3"`
	CandidateDaysAhead int  `envconfig:"CANDIDATE_DAYS_AHEAD" default:"7"`
	FuzzyMinScore      int  `envconfig:"FUZZY_MIN_SCORE" default:"2"`
	AllowSwappedLookup bool `envconfig:"ALLOW_SWAPPED_LOOKUP" default:"true"`

	// Browser
	BrowserHeadless  bool          `envconfig:"BROWSER_HEADLESS" default:"true"`
	BrowserExecPath  string        `envconfig:"BROWSER_EXEC_PATH" default:""`
	BrowserUserAgent string        `envconfig:"BROWSER_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36"`
	NavAttempts      int           `envconfig:"NAV_ATTEMPTS" default:"3"`
	NavBackoff       time.Duration `envconfig:"NAV_BACKOFF" default:"2s"`
	NavTimeout       time.Duration `envconfig:"NAV_TIMEOUT" default:"60s"`
	NavMinInterval   time.Duration `envconfig:"NAV_MIN_INTERVAL" default:"1s"`
	RowWaitTimeout   time.Duration `envconfig:"ROW_WAIT_TIMEOUT" default:"15s"`
	SettleDelay      time.Duration `envconfig:"SETTLE_DELAY" default:"2s"`
	ExpandRounds     int           `envconfig:"EXPAND_ROUNDS" default:"10"`

	// Scheduler
	EnableScheduler  bool          `envconfig:"ENABLE_SCHEDULER" default:"true"`
	LivePollInterval time.Duration `envconfig:"LIVE_POLL_INTERVAL" default:"60s"`
	StandingsCron    string        `envconfig:"STANDINGS_CRON" default:"*/30 * * * *"`
	BackfillCron     string        `envconfig:"BACKFILL_CRON" default:"0 4 * * *"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.CandidateDaysBack < 0 || c.CandidateDaysAhead < 0 {
		return fmt.Errorf("CANDIDATE_DAYS_BACK and CANDIDATE_DAYS_AHEAD must not be negative")
	}

	if c.FuzzyMinScore < 1 {
		return fmt.Errorf("FUZZY_MIN_SCORE must be at least 1")
	}

	if c.NavAttempts < 1 {
		return fmt.Errorf("NAV_ATTEMPTS must be at least 1")
	}

	if c.NavTimeout <= 0 || c.RowWaitTimeout <= 0 {
		return fmt.Errorf("NAV_TIMEOUT and ROW_WAIT_TIMEOUT must be positive")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}

	return nil
}

// RequireSources fails when SOURCE_URLS is empty. Only the live sync needs it.
func (c *Config) RequireSources() error {
	if strings.TrimSpace(c.SourceURLs) == "" {
		return fmt.Errorf("SOURCE_URLS is required")
	}
	return nil
}

// Location returns the configured timezone, UTC if it cannot be loaded
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// MustLoad loads configuration or exits on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
