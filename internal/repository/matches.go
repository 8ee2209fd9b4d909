package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rugbyscores/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// MatchRepository handles match database operations
type MatchRepository struct {
	db *Database
}

const matchColumns = `
	id, season_id, match_date, kickoff_time::text, home_team_id, away_team_id,
	status, minute, home_score, away_score, round, venue, updated_at`

func scanMatch(row pgx.Row) (models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.SeasonID, &m.MatchDate, &m.KickoffTime, &m.HomeTeamID, &m.AwayTeamID,
		&m.Status, &m.Minute, &m.HomeScore, &m.AwayScore, &m.Round, &m.Venue, &m.UpdatedAt,
	)
	return m, err
}

func collectMatches(rows pgx.Rows) ([]models.Match, error) {
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}

// ListCandidates returns the season's unfinished matches dated within
// [from, to]. These are the only rows a live sync may touch.
func (r *MatchRepository) ListCandidates(ctx context.Context, seasonID int, from, to time.Time) ([]models.Match, error) {
	query := `
		SELECT` + matchColumns + `
		FROM matches
		WHERE season_id = $1
		  AND status <> 'FULL_TIME'
		  AND match_date BETWEEN $2 AND $3
		ORDER BY match_date, id
	`

	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query, seasonID, from, to)
	if err != nil {
		observe("select", "matches", start, err)
		return nil, fmt.Errorf("failed to get candidate matches: %w", err)
	}

	matches, err := collectMatches(rows)
	observe("select", "matches", start, err)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("season_id", seasonID).
		Time("from", from).
		Time("to", to).
		Int("count", len(matches)).
		Msg("Retrieved candidate matches")
	return matches, nil
}

// ListCompleted returns every FULL_TIME match of a season
func (r *MatchRepository) ListCompleted(ctx context.Context, seasonID int) ([]models.Match, error) {
	query := `
		SELECT` + matchColumns + `
		FROM matches
		WHERE season_id = $1 AND status = 'FULL_TIME'
		ORDER BY match_date, id
	`

	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query, seasonID)
	if err != nil {
		observe("select", "matches", start, err)
		return nil, fmt.Errorf("failed to get completed matches: %w", err)
	}

	matches, err := collectMatches(rows)
	observe("select", "matches", start, err)
	return matches, err
}

// ListParticipants returns every team that appears in a season's matches
func (r *MatchRepository) ListParticipants(ctx context.Context, seasonID int) ([]models.Team, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.created_at
		FROM teams t
		WHERE t.id IN (
			SELECT home_team_id FROM matches WHERE season_id = $1
			UNION
			SELECT away_team_id FROM matches WHERE season_id = $1
		)
		ORDER BY t.name
	`

	rows, err := r.db.Pool.Query(ctx, query, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get season participants: %w", err)
	}

	return collectTeams(rows)
}

// ApplyPatch updates status, minute and scores of one match. Nil scores keep
// the stored value; ClearScores nulls both. A FULL_TIME row is never changed
// and reports ErrNotFound.
func (r *MatchRepository) ApplyPatch(ctx context.Context, matchID int, patch models.MatchPatch) error {
	query := `
		UPDATE matches
		SET status = $2,
		    minute = $3,
		    home_score = CASE WHEN $4::boolean THEN NULL ELSE COALESCE($5::int, home_score) END,
		    away_score = CASE WHEN $4::boolean THEN NULL ELSE COALESCE($6::int, away_score) END,
		    updated_at = NOW()
		WHERE id = $1 AND status <> 'FULL_TIME'
	`

	start := time.Now()
	result, err := r.db.Pool.Exec(ctx, query,
		matchID, string(patch.Status), patch.Minute, patch.ClearScores, patch.HomeScore, patch.AwayScore,
	)
	if err == nil && result.RowsAffected() == 0 {
		err = fmt.Errorf("match %d unchanged: %w", matchID, ErrNotFound)
	}
	observe("update", "matches", start, err)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update match: %w", err)
	}

	return nil
}

// UpsertSource carries the provenance stored with an imported match
type UpsertSource struct {
	Name     string
	EventKey string
	URL      string
}

// Upsert inserts or refreshes an imported match on its natural key. A
// FULL_TIME row is left as it is, and a LIVE row is not pushed back to
// NOT_STARTED by a fixtures listing. Returns false when the stored row was kept.
func (r *MatchRepository) Upsert(ctx context.Context, m *models.Match, src UpsertSource) (bool, error) {
	query := `
		INSERT INTO matches (
			season_id, match_date, kickoff_time, home_team_id, away_team_id,
			status, home_score, away_score, round, source, source_event_key, source_url
		) VALUES ($1, $2, $3::text::time, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (season_id, match_date, kickoff_time, home_team_id, away_team_id) DO UPDATE SET
			status = EXCLUDED.status,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			minute = NULL,
			round = COALESCE(EXCLUDED.round, matches.round),
			source = EXCLUDED.source,
			source_event_key = EXCLUDED.source_event_key,
			source_url = EXCLUDED.source_url,
			updated_at = NOW()
		WHERE matches.status <> 'FULL_TIME'
		  AND NOT (matches.status = 'LIVE' AND EXCLUDED.status = 'NOT_STARTED')
		RETURNING id, updated_at
	`

	start := time.Now()
	err := r.db.Pool.QueryRow(ctx, query,
		m.SeasonID, m.MatchDate, m.KickoffTime, m.HomeTeamID, m.AwayTeamID,
		string(m.Status), m.HomeScore, m.AwayScore, m.Round, src.Name, src.EventKey, src.URL,
	).Scan(&m.ID, &m.UpdatedAt)
	observe("upsert", "matches", start, err)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to upsert match: %w", err)
	}

	return true, nil
}

// GetByID retrieves a match by its database ID
func (r *MatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("match id=%d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return &m, nil
}
