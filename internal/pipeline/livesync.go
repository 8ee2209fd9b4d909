package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rugbyscores/ingestion/internal/candidates"
	"rugbyscores/ingestion/internal/config"
	"rugbyscores/ingestion/internal/metrics"
	"rugbyscores/ingestion/internal/models"
	"rugbyscores/ingestion/internal/normalize"
	"rugbyscores/ingestion/internal/reconcile"
	"rugbyscores/ingestion/internal/repository"
	"rugbyscores/ingestion/internal/scrape"
	"rugbyscores/ingestion/internal/sources"

	"github.com/rs/zerolog/log"
)

// FixtureFetcher returns the fixture rows of a live-score page
type FixtureFetcher interface {
	Fixtures(ctx context.Context, url string) ([]models.ScrapedRow, error)
}

// LiveOptions tune the live sync
type LiveOptions struct {
	SourceURLs         string
	DaysBack           int
	DaysAhead          int
	FuzzyMinScore      int
	AllowSwappedLookup bool
	Location           *time.Location
	Now                func() time.Time
}

// LiveOptionsFromConfig maps the service configuration
func LiveOptionsFromConfig(cfg *config.Config) LiveOptions {
	return LiveOptions{
		SourceURLs:         cfg.SourceURLs,
		DaysBack:           cfg.CandidateDaysBack,
		DaysAhead:          cfg.CandidateDaysAhead,
		FuzzyMinScore:      cfg.FuzzyMinScore,
		AllowSwappedLookup: cfg.AllowSwappedLookup,
		Location:           cfg.Location(),
	}
}

// Outcome says how far a competition got
type Outcome string

const (
	OutcomeReconciled   Outcome = "reconciled"
	OutcomeNoCandidates Outcome = "no_candidates"
	OutcomeNoRows       Outcome = "no_rows"
	OutcomeSkipped      Outcome = "skipped"
)

// CompetitionRun is the result of one source
type CompetitionRun struct {
	Slug       string           `json:"slug"`
	URL        string           `json:"url"`
	Season     string           `json:"season,omitempty"`
	Outcome    Outcome          `json:"outcome"`
	Candidates int              `json:"candidates"`
	Report     reconcile.Report `json:"report"`
	Unmapped   []string         `json:"unmapped,omitempty"`
	Error      string           `json:"error,omitempty"`
	FinishedAt time.Time        `json:"finished_at"`
}

// LiveSync reconciles every configured source once per Run
type LiveSync struct {
	store   LiveStore
	fetcher FixtureFetcher
	catalog *config.Catalog
	diag    Diagnostics
	opts    LiveOptions
}

// NewLiveSync creates a LiveSync. diag may be nil.
func NewLiveSync(store LiveStore, fetcher FixtureFetcher, catalog *config.Catalog, diag Diagnostics, opts LiveOptions) *LiveSync {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FuzzyMinScore < 1 {
		opts.FuzzyMinScore = normalize.DefaultMinScore
	}
	return &LiveSync{store: store, fetcher: fetcher, catalog: catalog, diag: diag, opts: opts}
}

// Run processes each source in order. It fails only when the context ends;
// unrecognized urls and per-competition problems are logged and skipped.
func (s *LiveSync) Run(ctx context.Context) ([]CompetitionRun, error) {
	start := time.Now()

	srcs := sources.Parse(s.opts.SourceURLs, s.catalog.SlugsBySourcePath())
	if len(srcs) == 0 {
		log.Warn().Msg("No source url maps to a known competition, nothing to sync")
		metrics.RecordSync("live", "success", time.Since(start).Seconds())
		return []CompetitionRun{}, nil
	}

	log.Info().Int("sources", len(srcs)).Msg("Starting live sync")

	runs := make([]CompetitionRun, 0, len(srcs))
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			metrics.RecordSync("live", "cancelled", time.Since(start).Seconds())
			return runs, err
		}

		run := s.syncSource(ctx, src)
		run.FinishedAt = time.Now().UTC()
		runs = append(runs, run)

		if s.diag != nil {
			if err := s.diag.SaveReport(ctx, src.Slug, run); err != nil {
				log.Warn().Err(err).Str("competition", src.Slug).Msg("Failed to cache run report")
			}
		}
	}

	metrics.RecordSync("live", "success", time.Since(start).Seconds())
	log.Info().
		Int("sources", len(srcs)).
		Dur("duration", time.Since(start)).
		Msg("Live sync complete")

	return runs, nil
}

func (s *LiveSync) syncSource(ctx context.Context, src sources.Source) CompetitionRun {
	run := CompetitionRun{Slug: src.Slug, URL: src.URL, Outcome: OutcomeSkipped}
	logger := log.With().Str("competition", src.Slug).Logger()

	comp, err := s.store.CompetitionBySlug(ctx, src.Slug)
	if err != nil {
		run.Error = err.Error()
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn().Msg("Competition not in database, skipping")
		} else {
			logger.Error().Err(err).Msg("Failed to load competition")
			metrics.RecordError("livesync", "database")
		}
		return run
	}

	season, err := s.store.CurrentSeason(ctx, comp.ID)
	if err != nil {
		run.Error = err.Error()
		logger.Warn().Err(err).Msg("No current season, skipping")
		return run
	}
	run.Season = season.Name

	now := s.opts.Now().In(s.opts.Location)
	from, to := candidates.Window(now, s.opts.DaysBack, s.opts.DaysAhead)

	matches, err := s.store.ListCandidates(ctx, season.ID, from, to)
	if err != nil {
		run.Error = err.Error()
		logger.Error().Err(err).Msg("Failed to load candidate matches")
		metrics.RecordError("livesync", "database")
		return run
	}

	index := candidates.Build(matches)
	run.Candidates = index.Len()
	if index.Len() == 0 {
		run.Outcome = OutcomeNoCandidates
		logger.Info().
			Str("season", season.Name).
			Time("from", from).
			Time("to", to).
			Msg("No candidate matches in window, not fetching")
		metrics.RecordReconcile(src.Slug, 0, 0, 0, 0, 0, 0, 0)
		return run
	}

	teams, err := s.store.ListTeams(ctx)
	if err != nil {
		run.Error = err.Error()
		logger.Error().Err(err).Msg("Failed to load teams")
		metrics.RecordError("livesync", "database")
		return run
	}
	names := normalize.NewResolver(teams, s.catalog.Aliases, s.opts.FuzzyMinScore)

	rows, err := s.fetcher.Fixtures(ctx, src.URL)
	if errors.Is(err, scrape.ErrNoRows) {
		run.Outcome = OutcomeNoRows
		logger.Warn().Str("url", src.URL).Msg("No fixture rows on page")
		return run
	}
	if err != nil {
		run.Error = err.Error()
		logger.Error().Err(err).Str("url", src.URL).Msg("Failed to fetch source page, skipping competition")
		metrics.RecordError("livesync", "navigation")
		return run
	}

	rec := reconcile.New(s.store, reconcile.Options{
		Competition:        src.Slug,
		AllowSwappedLookup: s.opts.AllowSwappedLookup,
		Now:                func() time.Time { return now },
	})
	report := rec.Reconcile(ctx, rows, names, index)
	run.Report = report
	run.Outcome = OutcomeReconciled

	metrics.RecordReconcile(src.Slug, report.Rows, index.Len(), report.Updated, report.Unchanged, report.Failed, report.Unmapped, report.Swapped)

	logger.Info().
		Str("season", season.Name).
		Int("rows", report.Rows).
		Int("duplicates", report.Duplicates).
		Int("candidates", index.Len()).
		Int("updated", report.Updated).
		Int("unchanged", report.Unchanged).
		Int("finished", report.Finished).
		Int("failed", report.Failed).
		Int("unmapped", report.Unmapped).
		Int("no_candidate", report.NoCandidate).
		Int("swapped", report.Swapped).
		Msg("Competition reconciled")

	s.reportUnmapped(ctx, src.Slug, names, &run)
	return run
}

func (s *LiveSync) reportUnmapped(ctx context.Context, slug string, names *normalize.Resolver, run *CompetitionRun) {
	unmapped := names.Unmapped()
	if len(unmapped) == 0 {
		return
	}

	counts := make(map[string]int, len(unmapped))
	for _, u := range unmapped {
		counts[u.Raw] = u.Count
		run.Unmapped = append(run.Unmapped, u.Raw)

		ev := log.Warn().
			Str("competition", slug).
			Str("name", u.Raw).
			Int("count", u.Count)
		if u.Suggestion != "" {
			ev = ev.Str("suggestion", u.Suggestion).Int("score", u.Score)
		}
		ev.Msg("Unmapped team name")
	}

	if s.diag != nil {
		if err := s.diag.RecordUnmapped(ctx, slug, counts); err != nil {
			log.Warn().Err(err).Str("competition", slug).Msg("Failed to record unmapped names")
		}
	}
}

// Summarize totals the runs for the final log line
func Summarize(runs []CompetitionRun) string {
	var updated, failed, unmapped, skipped int
	for _, r := range runs {
		updated += r.Report.Updated
		failed += r.Report.Failed
		unmapped += r.Report.Unmapped
		if r.Outcome == OutcomeSkipped {
			skipped++
		}
	}
	return fmt.Sprintf("%d competitions, %d updated, %d failed, %d unmapped rows, %d skipped",
		len(runs), updated, failed, unmapped, skipped)
}
