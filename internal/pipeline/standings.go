package pipeline

import (
	"context"
	"errors"
	"time"

	"rugbyscores/ingestion/internal/config"
	"rugbyscores/ingestion/internal/metrics"
	"rugbyscores/ingestion/internal/normalize"
	"rugbyscores/ingestion/internal/repository"
	"rugbyscores/ingestion/internal/standings"

	"github.com/rs/zerolog/log"
)

// StandingsRefresh rebuilds the current season table of every competition
type StandingsRefresh struct {
	store         StandingsStore
	service       *standings.Service
	catalog       *config.Catalog
	fuzzyMinScore int
}

// NewStandingsRefresh creates the job. scraper may be nil, which leaves
// competitions without results on placeholder tables.
func NewStandingsRefresh(store StandingsStore, scraper standings.Scraper, catalog *config.Catalog, fuzzyMinScore int) *StandingsRefresh {
	if fuzzyMinScore < 1 {
		fuzzyMinScore = normalize.DefaultMinScore
	}
	return &StandingsRefresh{
		store:         store,
		service:       standings.NewService(store, scraper),
		catalog:       catalog,
		fuzzyMinScore: fuzzyMinScore,
	}
}

// Run refreshes each competition. A failing competition is logged and the
// rest still run; the returned map holds the mode used per competition slug.
func (r *StandingsRefresh) Run(ctx context.Context) (map[string]standings.Result, error) {
	start := time.Now()

	comps, err := r.store.ListCompetitions(ctx)
	if err != nil {
		metrics.RecordSync("standings", "error", time.Since(start).Seconds())
		return nil, err
	}

	teams, err := r.store.ListTeams(ctx)
	if err != nil {
		metrics.RecordSync("standings", "error", time.Since(start).Seconds())
		return nil, err
	}

	results := make(map[string]standings.Result, len(comps))
	failed := 0

	for _, comp := range comps {
		if err := ctx.Err(); err != nil {
			metrics.RecordSync("standings", "cancelled", time.Since(start).Seconds())
			return results, err
		}

		season, err := r.store.CurrentSeason(ctx, comp.ID)
		if errors.Is(err, repository.ErrNotFound) {
			log.Debug().Str("competition", comp.Slug).Msg("No season, skipping standings")
			continue
		}
		if err != nil {
			failed++
			log.Error().Err(err).Str("competition", comp.Slug).Msg("Failed to load current season")
			continue
		}

		var th standings.Thresholds
		if entry, ok := r.catalog.Competition(comp.Slug); ok {
			th = standings.Thresholds{Qualify: entry.Qualify, Relegate: entry.Relegate}
		}

		res, err := r.service.Refresh(ctx, standings.Request{
			Competition: comp,
			Season:      *season,
			Thresholds:  th,
			Names:       normalize.NewResolver(teams, r.catalog.Aliases, r.fuzzyMinScore),
		})
		if err != nil {
			failed++
			metrics.RecordError("standings", "refresh")
			log.Error().Err(err).Str("competition", comp.Slug).Msg("Failed to refresh standings")
			continue
		}
		results[comp.Slug] = res
	}

	status := "success"
	if failed > 0 {
		status = "partial"
	}
	metrics.RecordSync("standings", status, time.Since(start).Seconds())

	log.Info().
		Int("competitions", len(comps)).
		Int("refreshed", len(results)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Standings refresh complete")

	return results, nil
}
