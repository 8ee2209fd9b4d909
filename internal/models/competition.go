package models

import "database/sql"

// Competition identifies a tournament. Slug is the stable key used to
// associate a source URL with it.
type Competition struct {
	ID           int            `db:"id"`
	Slug         string         `db:"slug"`
	Name         string         `db:"name"`
	Region       sql.NullString `db:"region"`
	ResultsURL   sql.NullString `db:"results_url"`
	FixturesURL  sql.NullString `db:"fixtures_url"`
	StandingsURL sql.NullString `db:"standings_url"`
}

// Season is one edition of a competition
type Season struct {
	ID            int    `db:"id"`
	CompetitionID int    `db:"competition_id"`
	Name          string `db:"name"`
}
