package pipeline

import (
	"context"
	"time"

	"rugbyscores/ingestion/internal/dump"
	"rugbyscores/ingestion/internal/metrics"
	"rugbyscores/ingestion/internal/models"
	"rugbyscores/ingestion/internal/normalize"
	"rugbyscores/ingestion/internal/parse"
	"rugbyscores/ingestion/internal/repository"

	"github.com/rs/zerolog/log"
)

const importSource = "flashscore"

// ListingFetcher renders a results or fixtures listing
type ListingFetcher interface {
	Items(ctx context.Context, url string, status models.MatchStatus, competition, fallbackSeason string) (string, []models.FixtureItem, error)
}

// BackfillOptions tune the listing import
type BackfillOptions struct {
	LogDir   string
	Location *time.Location
	Now      func() time.Time
}

// ImportResult summarizes one competition's import
type ImportResult struct {
	Slug       string
	Season     string
	Results    int
	Fixtures   int
	UpsertOK   int
	UpsertKept int
	UpsertFail int
	DumpPath   string
}

// Backfill imports full results and fixtures listings
type Backfill struct {
	store   BackfillStore
	fetcher ListingFetcher
	opts    BackfillOptions
}

// NewBackfill creates the import job
func NewBackfill(store BackfillStore, fetcher ListingFetcher, opts BackfillOptions) *Backfill {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Backfill{store: store, fetcher: fetcher, opts: opts}
}

// Run imports every competition that has a results or fixtures URL. Row
// failures are counted and never stop the competition.
func (b *Backfill) Run(ctx context.Context) ([]ImportResult, error) {
	start := time.Now()

	comps, err := b.store.ListListingCompetitions(ctx)
	if err != nil {
		metrics.RecordSync("backfill", "error", time.Since(start).Seconds())
		return nil, err
	}

	log.Info().Int("competitions", len(comps)).Msg("Starting listing import")

	var out []ImportResult
	for _, comp := range comps {
		if err := ctx.Err(); err != nil {
			metrics.RecordSync("backfill", "cancelled", time.Since(start).Seconds())
			return out, err
		}

		res, ok := b.importCompetition(ctx, comp)
		if ok {
			out = append(out, res)
		}
	}

	metrics.RecordSync("backfill", "success", time.Since(start).Seconds())
	return out, nil
}

func (b *Backfill) importCompetition(ctx context.Context, comp models.Competition) (ImportResult, bool) {
	now := b.opts.Now().In(b.opts.Location)
	logger := log.With().Str("competition", comp.Slug).Logger()
	res := ImportResult{Slug: comp.Slug}

	season := parse.SeasonFallback(now)
	fixturesSeason := season
	var results, fixtures []models.FixtureItem

	if comp.ResultsURL.Valid && comp.ResultsURL.String != "" {
		detected, items, err := b.fetcher.Items(ctx, comp.ResultsURL.String, models.StatusFullTime, comp.Slug, season)
		if err != nil {
			logger.Error().Err(err).Str("url", comp.ResultsURL.String).Msg("Failed to render results listing")
			metrics.RecordError("backfill", "navigation")
		} else {
			season = detected
			results = items
		}
	}

	if comp.FixturesURL.Valid && comp.FixturesURL.String != "" {
		detected, items, err := b.fetcher.Items(ctx, comp.FixturesURL.String, models.StatusNotStarted, comp.Slug, season)
		if err != nil {
			logger.Error().Err(err).Str("url", comp.FixturesURL.String).Msg("Failed to render fixtures listing")
			metrics.RecordError("backfill", "navigation")
		} else {
			fixturesSeason = detected
			fixtures = items
		}
	}

	// fixture dates follow their own page's season
	switch {
	case len(results) == 0:
		season = fixturesSeason
	case len(fixtures) > 0 && fixturesSeason != season:
		logger.Warn().
			Str("results_season", season).
			Str("fixtures_season", fixturesSeason).
			Msg("Listings disagree on season, importing each under its own")
	default:
		fixturesSeason = season
	}

	res.Season = season
	res.Results = len(results)
	res.Fixtures = len(fixtures)

	if len(results) == 0 && len(fixtures) == 0 {
		logger.Warn().Str("season", season).Msg("No listing items, nothing to import")
		return res, false
	}

	teams := make(map[string]int)
	if len(results) > 0 {
		if !b.importListing(ctx, comp, season, results, comp.ResultsURL.String, teams, &res) {
			return res, false
		}
	}
	if len(fixtures) > 0 {
		if !b.importListing(ctx, comp, fixturesSeason, fixtures, comp.FixturesURL.String, teams, &res) {
			return res, false
		}
	}

	logger.Info().
		Str("season", season).
		Int("results", res.Results).
		Int("fixtures", res.Fixtures).
		Int("upsert_ok", res.UpsertOK).
		Int("upsert_kept", res.UpsertKept).
		Int("upsert_fail", res.UpsertFail).
		Msg("Listing import complete")

	if b.opts.LogDir != "" {
		jsonlPath, summaryPath := dump.Paths(b.opts.LogDir, comp.Slug, season, now)
		all := append(append([]models.FixtureItem{}, results...), fixtures...)
		if err := dump.WriteJSONL(jsonlPath, all); err != nil {
			logger.Warn().Err(err).Msg("Failed to write dump")
		} else {
			res.DumpPath = jsonlPath
		}
		err := dump.WriteSummary(summaryPath, dump.Summary{
			Competition: comp.Slug,
			Season:      season,
			Results:     results,
			Fixtures:    fixtures,
			UpsertOK:    res.UpsertOK,
			UpsertFail:  res.UpsertFail,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to write summary")
		}
	}

	return res, true
}

func (b *Backfill) importListing(ctx context.Context, comp models.Competition, season string, items []models.FixtureItem, url string, teams map[string]int, res *ImportResult) bool {
	dbSeason, err := b.store.GetOrCreateSeason(ctx, comp.ID, season)
	if err != nil {
		log.Error().Err(err).Str("competition", comp.Slug).Str("season", season).Msg("Failed to get or create season")
		metrics.RecordError("backfill", "database")
		return false
	}
	b.upsertAll(ctx, dbSeason.ID, items, url, teams, res)
	return true
}

func (b *Backfill) upsertAll(ctx context.Context, seasonID int, items []models.FixtureItem, url string, teams map[string]int, res *ImportResult) {
	for _, item := range items {
		if ctx.Err() != nil {
			return
		}

		homeID, err := b.teamID(ctx, item.Home, teams)
		if err != nil {
			res.UpsertFail++
			log.Error().Err(err).Str("team", item.Home).Msg("Failed to resolve team")
			continue
		}
		awayID, err := b.teamID(ctx, item.Away, teams)
		if err != nil {
			res.UpsertFail++
			log.Error().Err(err).Str("team", item.Away).Msg("Failed to resolve team")
			continue
		}

		m, err := item.ToMatch(seasonID, homeID, awayID)
		if err != nil {
			res.UpsertFail++
			log.Warn().Err(err).Str("event", item.SourceEventKey).Msg("Skipping item with bad date")
			continue
		}

		written, err := b.store.UpsertMatch(ctx, m, repository.UpsertSource{
			Name:     importSource,
			EventKey: item.SourceEventKey,
			URL:      url,
		})
		if err != nil {
			res.UpsertFail++
			log.Error().Err(err).Str("event", item.SourceEventKey).Msg("Failed to upsert match")
			continue
		}

		res.UpsertOK++
		if !written {
			res.UpsertKept++
		}
	}
}

func (b *Backfill) teamID(ctx context.Context, name string, cache map[string]int) (int, error) {
	slug := normalize.Slugify(name)
	if id, ok := cache[slug]; ok {
		return id, nil
	}
	team, err := b.store.GetOrCreateTeam(ctx, name, slug)
	if err != nil {
		return 0, err
	}
	cache[slug] = team.ID
	return team.ID, nil
}
