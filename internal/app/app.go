// Package app holds the start-up wiring shared by the commands.
package app

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"rugbyscores/ingestion/internal/cache"
	"rugbyscores/ingestion/internal/config"
	"rugbyscores/ingestion/internal/logging"
	"rugbyscores/ingestion/internal/pipeline"
	"rugbyscores/ingestion/internal/repository"
	"rugbyscores/ingestion/internal/scrape"

	"github.com/rs/zerolog/log"
)

// SetupLogging configures the global logger and, with LOG_TO_FILE, the run
// log file. The returned function flushes and closes the file.
func SetupLogging(cfg *config.Config, command string) func() {
	runID := logging.Setup(cfg.AppEnv, cfg.LogLevel)

	closeLog := func() {}
	if cfg.LogToFile {
		path, closeFn, err := logging.TeeToFile(cfg.LogDir, time.Now())
		if err != nil {
			log.Warn().Err(err).Msg("Failed to open run log, logging to console only")
		} else {
			closeLog = closeFn
			log.Info().Str("path", path).Msg("Run log opened")
		}
	}

	log.Info().
		Str("command", command).
		Str("run_id", runID).
		Str("env", cfg.AppEnv).
		Msg("Configuration loaded")

	return closeLog
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM
func SignalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			log.Info().Msg("Received shutdown signal, gracefully shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// DatabaseConfig maps the service configuration to the pool settings
func DatabaseConfig(cfg *config.Config) repository.Config {
	return repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}
}

// BrowserOptions maps the service configuration to the browser settings
func BrowserOptions(cfg *config.Config) scrape.BrowserOptions {
	return scrape.BrowserOptions{
		Headless:       cfg.BrowserHeadless,
		ExecPath:       cfg.BrowserExecPath,
		UserAgent:      cfg.BrowserUserAgent,
		NavAttempts:    cfg.NavAttempts,
		NavBackoff:     cfg.NavBackoff,
		NavTimeout:     cfg.NavTimeout,
		MinInterval:    cfg.NavMinInterval,
		RowWaitTimeout: cfg.RowWaitTimeout,
		SettleDelay:    cfg.SettleDelay,
		ExpandRounds:   cfg.ExpandRounds,
	}
}

// ConnectCache returns the Redis cache, or nil when it is disabled or
// unreachable. The service runs without it.
func ConnectCache(cfg *config.Config) *cache.RedisCache {
	if !cfg.RedisEnabled {
		return nil
	}

	redisCache, err := cache.NewRedisCache(cache.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		return nil
	}

	log.Info().Str("addr", cfg.RedisAddr()).Msg("Redis cache connected")
	return redisCache
}

// Diagnostics adapts a possibly nil cache to the pipeline's optional sink
func Diagnostics(c *cache.RedisCache) pipeline.Diagnostics {
	if c == nil {
		return nil
	}
	return c
}

// Services are the long-lived dependencies of a command
type Services struct {
	Config  *config.Config
	Catalog *config.Catalog
	DB      *repository.Database
	Store   *pipeline.DBStore
	Cache   *cache.RedisCache
	Browser *scrape.Browser
	Fetcher *scrape.Fetcher
}

// Open loads the catalog, connects to the database and cache, and starts the
// browser when withBrowser is set
func Open(ctx context.Context, cfg *config.Config, withBrowser bool) (*Services, error) {
	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("competitions", len(catalog.Competitions)).
		Int("aliases", len(catalog.Aliases)).
		Msg("Catalog loaded")

	db, err := repository.NewDatabase(ctx, DatabaseConfig(cfg))
	if err != nil {
		return nil, err
	}
	log.Info().Msg("Database connection established")

	s := &Services{
		Config:  cfg,
		Catalog: catalog,
		DB:      db,
		Store:   pipeline.NewDBStore(db),
		Cache:   ConnectCache(cfg),
	}

	if withBrowser {
		browser, err := scrape.NewBrowser(BrowserOptions(cfg))
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Browser = browser
		s.Fetcher = scrape.NewFetcher(browser)
		log.Info().Bool("headless", cfg.BrowserHeadless).Msg("Browser started")
	}

	return s, nil
}

// Close releases everything Open acquired
func (s *Services) Close() {
	if s.Browser != nil {
		s.Browser.Close()
	}
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
	if s.DB != nil {
		s.DB.Close()
	}
}

// LiveSync builds the live reconciliation job
func (s *Services) LiveSync() *pipeline.LiveSync {
	return pipeline.NewLiveSync(s.Store, s.Fetcher, s.Catalog, Diagnostics(s.Cache), pipeline.LiveOptionsFromConfig(s.Config))
}

// StandingsRefresh builds the standings job. Without a browser, competitions
// lacking results get placeholder tables.
func (s *Services) StandingsRefresh() *pipeline.StandingsRefresh {
	if s.Fetcher == nil {
		return pipeline.NewStandingsRefresh(s.Store, nil, s.Catalog, s.Config.FuzzyMinScore)
	}
	return pipeline.NewStandingsRefresh(s.Store, s.Fetcher, s.Catalog, s.Config.FuzzyMinScore)
}

// Backfill builds the listing import job
func (s *Services) Backfill() *pipeline.Backfill {
	return pipeline.NewBackfill(s.Store, s.Fetcher, pipeline.BackfillOptions{
		LogDir:   s.Config.LogDir,
		Location: s.Config.Location(),
	})
}
