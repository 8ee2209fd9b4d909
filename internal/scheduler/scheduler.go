package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rugbyscores/ingestion/internal/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job names used in logs and metrics
const (
	JobLiveSync  = "livesync"
	JobStandings = "standings"
	JobBackfill  = "backfill"
)

// Jobs are the runs the worker schedules
type Jobs interface {
	LiveSync(ctx context.Context) error
	Standings(ctx context.Context) error
	Backfill(ctx context.Context) error
}

// Config holds the schedules
type Config struct {
	LivePollInterval time.Duration
	StandingsCron    string
	BackfillCron     string
}

// Scheduler runs the live sync on a ticker and the standings and backfill
// jobs on cron schedules. Only one job runs at a time: the browser session
// and database writes assume a single writer.
type Scheduler struct {
	cfg      Config
	jobs     Jobs
	cron     *cron.Cron
	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
	running  sync.Mutex
	wg       sync.WaitGroup
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg Config, jobs Jobs) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		cfg:      cfg,
		jobs:     jobs,
		cron:     cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		stopChan: make(chan struct{}),
	}
}

// Start registers the cron jobs and starts the live sync ticker
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if s.cfg.LivePollInterval <= 0 {
		return fmt.Errorf("live poll interval must be positive, got %s", s.cfg.LivePollInterval)
	}

	if s.cfg.StandingsCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.StandingsCron, func() {
			s.run(ctx, JobStandings, s.jobs.Standings)
		}); err != nil {
			return fmt.Errorf("failed to schedule standings refresh: %w", err)
		}
		log.Info().Str("schedule", s.cfg.StandingsCron).Msg("Standings refresh scheduled")
	}

	if s.cfg.BackfillCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.BackfillCron, func() {
			s.run(ctx, JobBackfill, s.jobs.Backfill)
		}); err != nil {
			return fmt.Errorf("failed to schedule backfill: %w", err)
		}
		log.Info().Str("schedule", s.cfg.BackfillCron).Msg("Backfill scheduled")
	}

	s.cron.Start()

	s.ticker = time.NewTicker(s.cfg.LivePollInterval)
	log.Info().
		Dur("interval", s.cfg.LivePollInterval).
		Msg("Live sync polling started")

	s.wg.Add(1)
	go s.pollLive(ctx)

	return nil
}

// Stop stops the scheduler and waits for a running job to return
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		log.Info().Msg("Stopping scheduler...")

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopChan)

		if s.cron != nil {
			<-s.cron.Stop().Done()
		}
		s.wg.Wait()

		log.Info().Msg("Scheduler stopped")
	})
}

// pollLive runs the live sync on every tick, once immediately
func (s *Scheduler) pollLive(ctx context.Context) {
	defer s.wg.Done()

	s.run(ctx, JobLiveSync, s.jobs.LiveSync)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping live sync polling")
			return
		case <-s.stopChan:
			log.Info().Msg("Stop signal received, stopping live sync polling")
			return
		case <-s.ticker.C:
			s.run(ctx, JobLiveSync, s.jobs.LiveSync)
		}
	}
}

// run executes fn unless another job holds the lock, in which case the run is
// skipped rather than queued
func (s *Scheduler) run(ctx context.Context, name string, fn func(context.Context) error) bool {
	if ctx.Err() != nil {
		return false
	}
	if !s.running.TryLock() {
		metrics.RecordJobSkipped(name)
		log.Warn().Str("job", name).Msg("Another job is running, skipping")
		return false
	}
	defer s.running.Unlock()

	start := time.Now()
	if err := fn(ctx); err != nil {
		metrics.RecordWorkerIteration(name, "error")
		log.Error().
			Err(err).
			Str("job", name).
			Dur("duration", time.Since(start)).
			Msg("Job failed")
		return true
	}

	metrics.RecordWorkerIteration(name, "success")
	log.Info().
		Str("job", name).
		Dur("duration", time.Since(start)).
		Msg("Job complete")
	return true
}

// cronLogger routes cron's logging through zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
