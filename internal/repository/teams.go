package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rugbyscores/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// TeamRepository handles team database operations
type TeamRepository struct {
	db *Database
}

func collectTeams(rows pgx.Rows) ([]models.Team, error) {
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.Slug, &team.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}
	return teams, nil
}

// List retrieves every team, the canonical set the name resolver matches against
func (r *TeamRepository) List(ctx context.Context) ([]models.Team, error) {
	query := `
		SELECT id, name, slug, created_at
		FROM teams
		ORDER BY name, id
	`

	start := time.Now()
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		observe("select", "teams", start, err)
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}

	teams, err := collectTeams(rows)
	observe("select", "teams", start, err)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("count", len(teams)).Msg("Retrieved teams")
	return teams, nil
}

// GetBySlug retrieves a team by its slug
func (r *TeamRepository) GetBySlug(ctx context.Context, slug string) (*models.Team, error) {
	query := `
		SELECT id, name, slug, created_at
		FROM teams
		WHERE slug = $1
	`

	var team models.Team
	err := r.db.Pool.QueryRow(ctx, query, slug).Scan(&team.ID, &team.Name, &team.Slug, &team.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("team slug=%s: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return &team, nil
}

// GetOrCreateBySlug returns the team with slug, inserting it under name when
// it does not exist yet
func (r *TeamRepository) GetOrCreateBySlug(ctx context.Context, name, slug string) (*models.Team, error) {
	team, err := r.GetBySlug(ctx, slug)
	if err == nil {
		return team, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	query := `
		INSERT INTO teams (name, slug)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		RETURNING id, created_at
	`

	created := models.Team{Name: name, Slug: sql.NullString{String: slug, Valid: true}}
	start := time.Now()
	err = r.db.Pool.QueryRow(ctx, query, name, slug).Scan(&created.ID, &created.CreatedAt)
	observe("insert", "teams", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	log.Info().
		Int("id", created.ID).
		Str("name", name).
		Str("slug", slug).
		Msg("Team created")

	return &created, nil
}
