package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"rugbyscores/ingestion/internal/app"
	"rugbyscores/ingestion/internal/config"
	"rugbyscores/ingestion/internal/metrics"
	"rugbyscores/ingestion/internal/pipeline"
	"rugbyscores/ingestion/internal/repository"
	"rugbyscores/ingestion/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.MustLoad()
	closeLog := app.SetupLogging(cfg, "worker")

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("Worker failed")
		closeLog()
		os.Exit(1)
	}
	closeLog()
}

func run(cfg *config.Config) error {
	log.Info().Msg("Starting rugby score worker")

	if err := cfg.RequireSources(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Create context that listens for cancellation
	ctx, cancel := app.SignalContext()
	defer cancel()

	services, err := app.Open(ctx, cfg, true)
	if err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}
	defer services.Close()

	if cfg.EnableMetrics {
		go startMetricsServer(cfg.MetricsPort, services.DB)
	}

	// Update uptime and pool metrics
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
				stat := services.DB.Pool.Stat()
				metrics.UpdateDBConnectionStats(stat.AcquiredConns(), stat.IdleConns())
			case <-ctx.Done():
				return
			}
		}
	}()

	jobs := &workerJobs{
		live:      services.LiveSync(),
		standings: services.StandingsRefresh(),
		backfill:  services.Backfill(),
	}

	if !cfg.EnableScheduler {
		log.Info().Msg("Scheduler disabled, running one live sync")
		return jobs.LiveSync(ctx)
	}

	sched := scheduler.NewScheduler(scheduler.Config{
		LivePollInterval: cfg.LivePollInterval,
		StandingsCron:    cfg.StandingsCron,
		BackfillCron:     cfg.BackfillCron,
	}, jobs)

	log.Info().Msg("Starting scheduler...")
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Fields(services.DB.PoolStats()).Msg("Database pool stats")
	log.Info().Msg("Worker shutdown complete")
	return nil
}

// workerJobs adapts the pipeline jobs to the scheduler
type workerJobs struct {
	live      *pipeline.LiveSync
	standings *pipeline.StandingsRefresh
	backfill  *pipeline.Backfill
}

func (j *workerJobs) LiveSync(ctx context.Context) error {
	runs, err := j.live.Run(ctx)
	if err != nil {
		return err
	}
	log.Info().Msg(pipeline.Summarize(runs))
	return nil
}

func (j *workerJobs) Standings(ctx context.Context) error {
	_, err := j.standings.Run(ctx)
	return err
}

func (j *workerJobs) Backfill(ctx context.Context) error {
	_, err := j.backfill.Run(ctx)
	return err
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port int, db *repository.Database) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"unhealthy","error":%q}`, err.Error())
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	addr := fmt.Sprintf(":%d", port)
	log.Info().Int("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
