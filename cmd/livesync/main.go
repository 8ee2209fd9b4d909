// Command livesync reconciles every configured source page once against the
// stored fixtures and exits.
package main

import (
	"fmt"
	"os"

	"rugbyscores/ingestion/internal/app"
	"rugbyscores/ingestion/internal/config"
	"rugbyscores/ingestion/internal/pipeline"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.MustLoad()
	closeLog := app.SetupLogging(cfg, "livesync")

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("Live sync failed")
		closeLog()
		os.Exit(1)
	}
	closeLog()
}

func run(cfg *config.Config) error {
	if err := cfg.RequireSources(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := app.SignalContext()
	defer cancel()

	services, err := app.Open(ctx, cfg, true)
	if err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}
	defer services.Close()

	if err := services.DB.Health(ctx); err != nil {
		return err
	}

	runs, err := services.LiveSync().Run(ctx)
	if err != nil {
		return err
	}

	log.Info().Msg(pipeline.Summarize(runs))

	if services.Cache == nil {
		return nil
	}
	for _, r := range runs {
		if len(r.Unmapped) == 0 {
			continue
		}
		top, err := services.Cache.TopUnmapped(ctx, r.Slug, 5)
		if err != nil {
			log.Warn().Err(err).Str("competition", r.Slug).Msg("Failed to read unmapped history")
			continue
		}
		for _, u := range top {
			log.Info().
				Str("competition", r.Slug).
				Str("name", u.Raw).
				Int("total", u.Count).
				Msg("Frequently unmapped name, consider an alias")
		}
	}
	return nil
}
