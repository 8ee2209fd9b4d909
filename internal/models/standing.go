package models

import "time"

// Badges assigned from per-competition thresholds
const (
	BadgeQualification = "qualification"
	BadgeRelegation    = "relegation"
)

// StandingRow is one team's line in a season table
type StandingRow struct {
	SeasonID      int       `db:"season_id"`
	TeamID        int       `db:"team_id"`
	TeamName      string    `db:"-"`
	Position      int       `db:"position"`
	Played        int       `db:"played"`
	Won           int       `db:"won"`
	Drawn         int       `db:"drawn"`
	Lost          int       `db:"lost"`
	PointsFor     int       `db:"points_for"`
	PointsAgainst int       `db:"points_against"`
	Diff          int       `db:"diff"`
	BonusPoints   int       `db:"bonus_points"`
	Points        int       `db:"points"`
	Badge         string    `db:"badge"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// ScrapedStanding is one row of a standings page before name resolution
type ScrapedStanding struct {
	Rank          int
	TeamText      string
	Played        int
	Won           int
	Drawn         int
	Lost          int
	PointsFor     int
	PointsAgainst int
	Points        int
}
