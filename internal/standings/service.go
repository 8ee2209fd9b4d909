package standings

import (
	"context"
	"errors"
	"fmt"

	"rugbyscores/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// Mode is how a table was produced
type Mode string

const (
	ModeCompute     Mode = "compute"
	ModeScrape      Mode = "scrape"
	ModePlaceholder Mode = "placeholder"
)

// Store is the persistence the aggregator needs
type Store interface {
	ListCompleted(ctx context.Context, seasonID int) ([]models.Match, error)
	ListParticipants(ctx context.Context, seasonID int) ([]models.Team, error)
	ReplaceStandings(ctx context.Context, seasonID int, rows []models.StandingRow) error
}

// Scraper fetches a standings page
type Scraper interface {
	Standings(ctx context.Context, url string) ([]models.ScrapedStanding, error)
}

// Request identifies the table to rebuild
type Request struct {
	Competition models.Competition
	Season      models.Season
	Thresholds  Thresholds
	Names       NameResolver
}

// Result summarizes one rebuild
type Result struct {
	Mode     Mode
	Rows     int
	Unmapped int
}

// Service chooses a mode per season and persists the table
type Service struct {
	store   Store
	scraper Scraper
}

// NewService creates a Service. scraper may be nil, which disables scrape mode.
func NewService(store Store, scraper Scraper) *Service {
	return &Service{store: store, scraper: scraper}
}

// Refresh rebuilds one season's table. Finished matches win; without them
// the standings page is scraped when the competition has one, and anything
// else gets a placeholder.
func (s *Service) Refresh(ctx context.Context, req Request) (Result, error) {
	seasonID := req.Season.ID

	completed, err := s.store.ListCompleted(ctx, seasonID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load completed matches: %w", err)
	}

	participants, err := s.store.ListParticipants(ctx, seasonID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load participants: %w", err)
	}

	var (
		rows   []models.StandingRow
		result Result
	)

	switch {
	case len(completed) > 0:
		rows = Compute(seasonID, completed, participants, req.Thresholds)
		result.Mode = ModeCompute

	case s.scraper != nil && req.Competition.StandingsURL.String != "" && req.Names != nil:
		rows, result.Unmapped, err = s.scrape(ctx, req)
		if err == nil && len(rows) > 0 {
			result.Mode = ModeScrape
			break
		}
		log.Warn().
			Err(err).
			Str("competition", req.Competition.Slug).
			Msg("Standings scrape gave no rows, using placeholder")
		fallthrough

	default:
		rows = Placeholder(seasonID, participants)
		result.Mode = ModePlaceholder
	}

	if len(rows) == 0 {
		log.Info().
			Str("competition", req.Competition.Slug).
			Str("season", req.Season.Name).
			Msg("No teams for standings, leaving table untouched")
		return result, nil
	}

	if err := s.store.ReplaceStandings(ctx, seasonID, rows); err != nil {
		return result, fmt.Errorf("failed to save standings: %w", err)
	}
	result.Rows = len(rows)

	log.Info().
		Str("competition", req.Competition.Slug).
		Str("season", req.Season.Name).
		Str("mode", string(result.Mode)).
		Int("rows", result.Rows).
		Int("unmapped", result.Unmapped).
		Msg("Standings refreshed")

	return result, nil
}

func (s *Service) scrape(ctx context.Context, req Request) ([]models.StandingRow, int, error) {
	scraped, err := s.scraper.Standings(ctx, req.Competition.StandingsURL.String)
	if err != nil {
		return nil, 0, err
	}

	rows, unmapped := FromScraped(req.Season.ID, scraped, req.Names, req.Thresholds)
	if len(rows) == 0 {
		return nil, unmapped, errors.New("no standings row resolved to a team")
	}
	return rows, unmapped, nil
}
