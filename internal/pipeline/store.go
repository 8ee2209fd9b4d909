// Package pipeline runs the three jobs of the service: live reconciliation,
// standings refresh and the listing backfill. Each job walks competitions
// sequentially and never lets one competition's failure stop the rest.
package pipeline

import (
	"context"
	"time"

	"rugbyscores/ingestion/internal/models"
	"rugbyscores/ingestion/internal/repository"
)

// LiveStore is the persistence used by the live sync
type LiveStore interface {
	CompetitionBySlug(ctx context.Context, slug string) (*models.Competition, error)
	CurrentSeason(ctx context.Context, competitionID int) (*models.Season, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	ListCandidates(ctx context.Context, seasonID int, from, to time.Time) ([]models.Match, error)
	ApplyPatch(ctx context.Context, matchID int, patch models.MatchPatch) error
}

// StandingsStore is the persistence used by the standings refresh
type StandingsStore interface {
	ListCompetitions(ctx context.Context) ([]models.Competition, error)
	CurrentSeason(ctx context.Context, competitionID int) (*models.Season, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	ListCompleted(ctx context.Context, seasonID int) ([]models.Match, error)
	ListParticipants(ctx context.Context, seasonID int) ([]models.Team, error)
	ReplaceStandings(ctx context.Context, seasonID int, rows []models.StandingRow) error
}

// BackfillStore is the persistence used by the listing import
type BackfillStore interface {
	ListListingCompetitions(ctx context.Context) ([]models.Competition, error)
	GetOrCreateSeason(ctx context.Context, competitionID int, name string) (*models.Season, error)
	GetOrCreateTeam(ctx context.Context, name, slug string) (*models.Team, error)
	UpsertMatch(ctx context.Context, m *models.Match, src repository.UpsertSource) (bool, error)
}

// DBStore serves every job from the Postgres repositories
type DBStore struct {
	db *repository.Database
}

// NewDBStore wraps db
func NewDBStore(db *repository.Database) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) CompetitionBySlug(ctx context.Context, slug string) (*models.Competition, error) {
	return s.db.Competitions.GetBySlug(ctx, slug)
}

func (s *DBStore) ListCompetitions(ctx context.Context) ([]models.Competition, error) {
	return s.db.Competitions.List(ctx)
}

func (s *DBStore) ListListingCompetitions(ctx context.Context) ([]models.Competition, error) {
	return s.db.Competitions.ListWithListingURLs(ctx)
}

func (s *DBStore) CurrentSeason(ctx context.Context, competitionID int) (*models.Season, error) {
	return s.db.Seasons.Current(ctx, competitionID)
}

func (s *DBStore) GetOrCreateSeason(ctx context.Context, competitionID int, name string) (*models.Season, error) {
	return s.db.Seasons.GetOrCreate(ctx, competitionID, name)
}

func (s *DBStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	return s.db.Teams.List(ctx)
}

func (s *DBStore) GetOrCreateTeam(ctx context.Context, name, slug string) (*models.Team, error) {
	return s.db.Teams.GetOrCreateBySlug(ctx, name, slug)
}

func (s *DBStore) ListCandidates(ctx context.Context, seasonID int, from, to time.Time) ([]models.Match, error) {
	return s.db.Matches.ListCandidates(ctx, seasonID, from, to)
}

func (s *DBStore) ApplyPatch(ctx context.Context, matchID int, patch models.MatchPatch) error {
	return s.db.Matches.ApplyPatch(ctx, matchID, patch)
}

func (s *DBStore) UpsertMatch(ctx context.Context, m *models.Match, src repository.UpsertSource) (bool, error) {
	return s.db.Matches.Upsert(ctx, m, src)
}

func (s *DBStore) ListCompleted(ctx context.Context, seasonID int) ([]models.Match, error) {
	return s.db.Matches.ListCompleted(ctx, seasonID)
}

func (s *DBStore) ListParticipants(ctx context.Context, seasonID int) ([]models.Team, error) {
	return s.db.Matches.ListParticipants(ctx, seasonID)
}

func (s *DBStore) ReplaceStandings(ctx context.Context, seasonID int, rows []models.StandingRow) error {
	return s.db.Standings.Replace(ctx, seasonID, rows)
}

// Diagnostics receives per-run diagnostics. The Redis cache implements it;
// nil disables it.
type Diagnostics interface {
	RecordUnmapped(ctx context.Context, competition string, counts map[string]int) error
	SaveReport(ctx context.Context, competition string, v interface{}) error
}
