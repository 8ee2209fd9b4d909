package repository

import (
	"context"
	"fmt"
	"time"

	"rugbyscores/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// StandingRepository handles standings table operations
type StandingRepository struct {
	db *Database
}

// Replace swaps a season's standings for rows in one transaction
func (r *StandingRepository) Replace(ctx context.Context, seasonID int, rows []models.StandingRow) error {
	start := time.Now()
	err := r.replace(ctx, seasonID, rows)
	observe("replace", "standings", start, err)
	return err
}

func (r *StandingRepository) replace(ctx context.Context, seasonID int, rows []models.StandingRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM standings WHERE season_id = $1`, seasonID); err != nil {
		return fmt.Errorf("failed to clear standings: %w", err)
	}

	insert := `
		INSERT INTO standings (
			season_id, team_id, position, played, won, drawn, lost,
			points_for, points_against, diff, bonus_points, points, badge, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''), NOW())
	`

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(insert,
			seasonID, row.TeamID, row.Position, row.Played, row.Won, row.Drawn, row.Lost,
			row.PointsFor, row.PointsAgainst, row.Diff, row.BonusPoints, row.Points, row.Badge,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range rows {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert standing row %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit standings: %w", err)
	}

	log.Debug().Int("season_id", seasonID).Int("rows", len(rows)).Msg("Standings replaced")
	return nil
}

// ListBySeason retrieves a season's standings in table order
func (r *StandingRepository) ListBySeason(ctx context.Context, seasonID int) ([]models.StandingRow, error) {
	query := `
		SELECT s.season_id, s.team_id, t.name, s.position, s.played, s.won, s.drawn, s.lost,
		       s.points_for, s.points_against, s.diff, s.bonus_points, s.points,
		       COALESCE(s.badge, ''), s.updated_at
		FROM standings s
		JOIN teams t ON t.id = s.team_id
		WHERE s.season_id = $1
		ORDER BY s.position
	`

	rows, err := r.db.Pool.Query(ctx, query, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get standings: %w", err)
	}
	defer rows.Close()

	var out []models.StandingRow
	for rows.Next() {
		var s models.StandingRow
		err := rows.Scan(
			&s.SeasonID, &s.TeamID, &s.TeamName, &s.Position, &s.Played, &s.Won, &s.Drawn, &s.Lost,
			&s.PointsFor, &s.PointsAgainst, &s.Diff, &s.BonusPoints, &s.Points,
			&s.Badge, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating standings: %w", err)
	}
	return out, nil
}
