// Package reconcile matches scraped fixture rows to stored matches and
// applies status, minute and score patches.
package reconcile

import (
	"context"
	"errors"
	"strings"
	"time"

	"rugbyscores/ingestion/internal/candidates"
	"rugbyscores/ingestion/internal/models"
	"rugbyscores/ingestion/internal/normalize"
	"rugbyscores/ingestion/internal/parse"
	"rugbyscores/ingestion/internal/repository"

	"github.com/rs/zerolog/log"
)

// MatchWriter applies a targeted update to one existing match row
type MatchWriter interface {
	ApplyPatch(ctx context.Context, matchID int, patch models.MatchPatch) error
}

// NameResolver maps a scraped team name to a team id
type NameResolver interface {
	Resolve(raw string) (int, bool)
}

// Options tune a Reconciler
type Options struct {
	Competition        string
	AllowSwappedLookup bool
	Now                func() time.Time
}

// Report counts what happened to the rows of one run
type Report struct {
	Rows            int
	Duplicates      int
	Unmapped        int
	NoCandidate     int
	Swapped         int
	DuplicateTarget int
	Unchanged       int
	Updated         int
	Finished        int
	Failed          int
}

// Reconciler runs the matching algorithm for one competition page
type Reconciler struct {
	writer MatchWriter
	opts   Options
}

// New creates a Reconciler writing through w
func New(w MatchWriter, opts Options) *Reconciler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{writer: w, opts: opts}
}

// Reconcile processes rows in order. Rows whose names do not resolve or that
// have no stored fixture are skipped; a failed write is logged and the loop
// moves on. Each stored match receives at most one patch per call.
func (r *Reconciler) Reconcile(ctx context.Context, rows []models.ScrapedRow, names NameResolver, index *candidates.Index) Report {
	deduped := Dedupe(rows)
	report := Report{Rows: len(rows), Duplicates: len(rows) - len(deduped)}
	now := r.opts.Now()
	seen := make(map[int]struct{})

	for _, row := range deduped {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Str("competition", r.opts.Competition).Msg("Reconciliation interrupted")
			break
		}

		homeID, homeOK := names.Resolve(row.HomeText)
		awayID, awayOK := names.Resolve(row.AwayText)
		if !homeOK || !awayOK {
			report.Unmapped++
			log.Debug().
				Str("home", row.HomeText).
				Str("away", row.AwayText).
				Bool("home_resolved", homeOK).
				Bool("away_resolved", awayOK).
				Msg("Skipping row with unmapped team")
			continue
		}

		cands, swapped := index.Lookup(homeID, awayID, r.opts.AllowSwappedLookup)
		if len(cands) == 0 {
			report.NoCandidate++
			log.Debug().
				Str("home", row.HomeText).
				Str("away", row.AwayText).
				Msg("No stored fixture in window")
			continue
		}
		if swapped {
			report.Swapped++
			log.Warn().
				Str("competition", r.opts.Competition).
				Str("home", row.HomeText).
				Str("away", row.AwayText).
				Msg("Fixture matched with home and away reversed")
		}

		target, _ := candidates.PickClosest(cands, now)
		if len(cands) > 1 {
			log.Debug().
				Int("candidates", len(cands)).
				Int("match_id", target.ID).
				Time("match_date", target.MatchDate).
				Msg("Ambiguous pair resolved by date proximity")
		}

		if _, dup := seen[target.ID]; dup {
			report.DuplicateTarget++
			continue
		}
		seen[target.ID] = struct{}{}

		patch := ComputePatch(target, parse.Status(row.StatusText), parse.Score(row.ScoreHomeText), parse.Score(row.ScoreAwayText), swapped)
		if Unchanged(target, patch) {
			report.Unchanged++
			continue
		}

		err := r.writer.ApplyPatch(ctx, target.ID, patch)
		if errors.Is(err, repository.ErrNotFound) {
			// finished after the candidates were loaded
			report.Finished++
			log.Debug().
				Int("match_id", target.ID).
				Str("status", string(patch.Status)).
				Msg("Match already finished, update skipped")
			continue
		}
		if err != nil {
			report.Failed++
			log.Error().
				Err(err).
				Int("match_id", target.ID).
				Str("status", string(patch.Status)).
				Msg("Failed to update match")
			continue
		}

		report.Updated++
		log.Info().
			Int("match_id", target.ID).
			Str("status", string(patch.Status)).
			Interface("minute", patch.Minute).
			Interface("home_score", patch.HomeScore).
			Interface("away_score", patch.AwayScore).
			Bool("clear_scores", patch.ClearScores).
			Msg("Match updated")
	}

	return report
}

// Dedupe drops rows that repeat the same teams, scores and status. The first
// occurrence wins.
func Dedupe(rows []models.ScrapedRow) []models.ScrapedRow {
	out := make([]models.ScrapedRow, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		key := dedupeKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}

func dedupeKey(row models.ScrapedRow) string {
	return strings.Join([]string{
		normalize.Normalize(row.HomeText),
		normalize.Normalize(row.AwayText),
		strings.TrimSpace(row.ScoreHomeText),
		strings.TrimSpace(row.ScoreAwayText),
		strings.TrimSpace(row.StatusText),
	}, "|")
}

// ComputePatch derives the update for current from a parsed status and
// scores. NOT_STARTED always clears scores. Scores from a swapped lookup are
// put back in stored orientation. While a match stays LIVE a lower score
// never replaces a higher stored one.
func ComputePatch(current models.Match, status parse.StatusResult, home, away *int, swapped bool) models.MatchPatch {
	patch := models.MatchPatch{Status: status.Status}
	if status.Status == models.StatusLive {
		patch.Minute = status.Minute
	}

	if status.Status == models.StatusNotStarted {
		patch.ClearScores = true
		return patch
	}

	if swapped {
		home, away = away, home
	}
	if current.Status == models.StatusLive && status.Status == models.StatusLive {
		home = notBelow(current.HomeScore, home)
		away = notBelow(current.AwayScore, away)
	}

	patch.HomeScore = home
	patch.AwayScore = away
	return patch
}

func notBelow(stored, scraped *int) *int {
	if stored != nil && scraped != nil && *scraped < *stored {
		return stored
	}
	return scraped
}

// Unchanged reports whether applying patch would leave current as it is
func Unchanged(current models.Match, patch models.MatchPatch) bool {
	if current.Status != patch.Status || !equalPtr(current.Minute, patch.Minute) {
		return false
	}
	if patch.ClearScores {
		return current.HomeScore == nil && current.AwayScore == nil
	}
	return (patch.HomeScore == nil || equalPtr(current.HomeScore, patch.HomeScore)) &&
		(patch.AwayScore == nil || equalPtr(current.AwayScore, patch.AwayScore))
}

func equalPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
