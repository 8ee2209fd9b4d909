// Command backfill imports the full results and fixtures listings of every
// competition that has them, writing a JSONL dump and summary per
// competition under LOG_DIR.
package main

import (
	"fmt"
	"os"

	"rugbyscores/ingestion/internal/app"
	"rugbyscores/ingestion/internal/config"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.MustLoad()
	closeLog := app.SetupLogging(cfg, "backfill")

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("Backfill failed")
		closeLog()
		os.Exit(1)
	}
	closeLog()
}

func run(cfg *config.Config) error {
	ctx, cancel := app.SignalContext()
	defer cancel()

	services, err := app.Open(ctx, cfg, true)
	if err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}
	defer services.Close()

	results, err := services.Backfill().Run(ctx)
	if err != nil {
		return err
	}

	var ok, fail int
	for _, r := range results {
		ok += r.UpsertOK
		fail += r.UpsertFail
		log.Info().
			Str("competition", r.Slug).
			Str("season", r.Season).
			Int("results", r.Results).
			Int("fixtures", r.Fixtures).
			Int("upsert_ok", r.UpsertOK).
			Int("upsert_fail", r.UpsertFail).
			Str("dump", r.DumpPath).
			Msg("Imported")
	}

	log.Info().
		Int("competitions", len(results)).
		Int("upsert_ok", ok).
		Int("upsert_fail", fail).
		Msg("Backfill complete")
	return nil
}
