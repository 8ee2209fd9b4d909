// Command standings rebuilds the current season table of every competition.
// Tables are computed from finished matches, scraped from the standings page
// when there are none, or filled with placeholders.
package main

import (
	"flag"
	"fmt"
	"os"

	"rugbyscores/ingestion/internal/app"
	"rugbyscores/ingestion/internal/config"

	"github.com/rs/zerolog/log"
)

func main() {
	noBrowser := flag.Bool("no-browser", false, "never scrape standings pages")
	flag.Parse()

	cfg := config.MustLoad()
	closeLog := app.SetupLogging(cfg, "standings")

	if err := run(cfg, !*noBrowser); err != nil {
		log.Error().Err(err).Msg("Standings refresh failed")
		closeLog()
		os.Exit(1)
	}
	closeLog()
}

func run(cfg *config.Config, withBrowser bool) error {
	ctx, cancel := app.SignalContext()
	defer cancel()

	services, err := app.Open(ctx, cfg, withBrowser)
	if err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}
	defer services.Close()

	results, err := services.StandingsRefresh().Run(ctx)
	if err != nil {
		return err
	}

	for slug, res := range results {
		log.Info().
			Str("competition", slug).
			Str("mode", string(res.Mode)).
			Int("rows", res.Rows).
			Int("unmapped", res.Unmapped).
			Msg("Standings")
	}
	return nil
}
