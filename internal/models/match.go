package models

import (
	"database/sql"
	"time"
)

// MatchStatus is the closed set of states a stored match can be in
type MatchStatus string

const (
	StatusNotStarted MatchStatus = "NOT_STARTED"
	StatusLive       MatchStatus = "LIVE"
	StatusFullTime   MatchStatus = "FULL_TIME"
)

// Match represents a fixture within a season
type Match struct {
	ID          int            `db:"id"`
	SeasonID    int            `db:"season_id"`
	MatchDate   time.Time      `db:"match_date"`
	KickoffTime string         `db:"kickoff_time"`
	HomeTeamID  int            `db:"home_team_id"`
	AwayTeamID  int            `db:"away_team_id"`
	Status      MatchStatus    `db:"status"`
	Minute      *int           `db:"minute"`
	HomeScore   *int           `db:"home_score"`
	AwayScore   *int           `db:"away_score"`
	Round       sql.NullInt32  `db:"round"`
	Venue       sql.NullString `db:"venue"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// MatchPatch is the targeted update the reconciler applies to one match.
// Nil scores leave the stored value alone unless ClearScores is set.
type MatchPatch struct {
	Status      MatchStatus
	Minute      *int
	HomeScore   *int
	AwayScore   *int
	ClearScores bool
}

// ScrapedRow is one fixture-list entry as extracted from a source page
type ScrapedRow struct {
	HomeText      string
	AwayText      string
	ScoreHomeText string
	ScoreAwayText string
	StatusText    string
	RowText       string
}

// FixtureItem is a parsed results/fixtures entry produced by the backfill import
type FixtureItem struct {
	Round          *int        `json:"round"`
	MatchDate      string      `json:"match_date"`
	KickoffTime    string      `json:"kickoff_time"`
	Home           string      `json:"home"`
	Away           string      `json:"away"`
	HomeScore      *int        `json:"home_score"`
	AwayScore      *int        `json:"away_score"`
	Status         MatchStatus `json:"status"`
	SourceEventKey string      `json:"source_event_key"`
}

// ToMatch converts a parsed item to a Match row for the given season and team ids
func (fi *FixtureItem) ToMatch(seasonID, homeTeamID, awayTeamID int) (*Match, error) {
	date, err := time.Parse("2006-01-02", fi.MatchDate)
	if err != nil {
		return nil, err
	}

	match := &Match{
		SeasonID:    seasonID,
		MatchDate:   date,
		KickoffTime: fi.KickoffTime,
		HomeTeamID:  homeTeamID,
		AwayTeamID:  awayTeamID,
		Status:      fi.Status,
	}
	if fi.Round != nil {
		match.Round = sql.NullInt32{Int32: int32(*fi.Round), Valid: true}
	}
	if fi.Status != StatusNotStarted {
		match.HomeScore = fi.HomeScore
		match.AwayScore = fi.AwayScore
	}

	return match, nil
}
