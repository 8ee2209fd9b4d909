package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"rugbyscores/ingestion/internal/models"
	"rugbyscores/ingestion/internal/parse"

	"github.com/jackc/pgx/v5"
)

// CompetitionRepository handles competition database operations
type CompetitionRepository struct {
	db *Database
}

const competitionColumns = `id, slug, name, region, results_url, fixtures_url, standings_url`

func scanCompetition(row pgx.Row) (models.Competition, error) {
	var c models.Competition
	err := row.Scan(&c.ID, &c.Slug, &c.Name, &c.Region, &c.ResultsURL, &c.FixturesURL, &c.StandingsURL)
	return c, err
}

// GetBySlug retrieves a competition by its slug
func (r *CompetitionRepository) GetBySlug(ctx context.Context, slug string) (*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE slug = $1`

	c, err := scanCompetition(r.db.Pool.QueryRow(ctx, query, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("competition slug=%s: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}

	return &c, nil
}

// List retrieves every competition ordered by slug
func (r *CompetitionRepository) List(ctx context.Context) ([]models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions ORDER BY slug`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get competitions: %w", err)
	}
	defer rows.Close()

	var comps []models.Competition
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan competition: %w", err)
		}
		comps = append(comps, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating competitions: %w", err)
	}
	return comps, nil
}

// ListWithListingURLs retrieves competitions that have a results or fixtures URL
func (r *CompetitionRepository) ListWithListingURLs(ctx context.Context) ([]models.Competition, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.Competition
	for _, c := range all {
		if c.ResultsURL.String != "" || c.FixturesURL.String != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// SeasonRepository handles season database operations
type SeasonRepository struct {
	db *Database
}

// ListByCompetition retrieves every season of a competition
func (r *SeasonRepository) ListByCompetition(ctx context.Context, competitionID int) ([]models.Season, error) {
	query := `
		SELECT id, competition_id, name
		FROM seasons
		WHERE competition_id = $1
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get seasons: %w", err)
	}
	defer rows.Close()

	var seasons []models.Season
	for rows.Next() {
		var s models.Season
		if err := rows.Scan(&s.ID, &s.CompetitionID, &s.Name); err != nil {
			return nil, fmt.Errorf("failed to scan season: %w", err)
		}
		seasons = append(seasons, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seasons: %w", err)
	}
	return seasons, nil
}

// Current returns the most recent season of a competition by the years in
// its name, not by lexical order
func (r *SeasonRepository) Current(ctx context.Context, competitionID int) (*models.Season, error) {
	seasons, err := r.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	s, ok := MostRecentSeason(seasons)
	if !ok {
		return nil, fmt.Errorf("competition id=%d has no season: %w", competitionID, ErrNotFound)
	}
	return &s, nil
}

// MostRecentSeason picks the season with the latest end year, then start
// year, then highest id
func MostRecentSeason(seasons []models.Season) (models.Season, bool) {
	if len(seasons) == 0 {
		return models.Season{}, false
	}

	sorted := make([]models.Season, len(seasons))
	copy(sorted, seasons)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := parse.SeasonRecency(sorted[i].Name), parse.SeasonRecency(sorted[j].Name)
		if ri != rj {
			return ri > rj
		}
		return sorted[i].ID > sorted[j].ID
	})
	return sorted[0], true
}

// GetOrCreate returns the season of competitionID called name, inserting it
// when missing
func (r *SeasonRepository) GetOrCreate(ctx context.Context, competitionID int, name string) (*models.Season, error) {
	query := `
		SELECT id, competition_id, name
		FROM seasons
		WHERE competition_id = $1 AND name = $2
		ORDER BY id
		LIMIT 1
	`

	var s models.Season
	err := r.db.Pool.QueryRow(ctx, query, competitionID, name).Scan(&s.ID, &s.CompetitionID, &s.Name)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get season: %w", err)
	}

	insert := `
		INSERT INTO seasons (competition_id, name)
		VALUES ($1, $2)
		RETURNING id
	`
	s = models.Season{CompetitionID: competitionID, Name: name}
	if err := r.db.Pool.QueryRow(ctx, insert, competitionID, name).Scan(&s.ID); err != nil {
		return nil, fmt.Errorf("failed to create season: %w", err)
	}

	return &s, nil
}
