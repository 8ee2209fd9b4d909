// Package standings builds a season's league table from finished matches,
// from a scraped standings page, or as an all-zero placeholder.
package standings

import (
	"sort"

	"rugbyscores/ingestion/internal/models"
)

// Points awarded per result. Bonus points are not computed.
const (
	PointsWin  = 4
	PointsDraw = 2
	PointsLoss = 0
)

// Thresholds are the per-competition badge cut-offs: the top Qualify rows
// qualify and the bottom Relegate rows are relegated
type Thresholds struct {
	Qualify  int
	Relegate int
}

// Compute aggregates FULL_TIME matches into a ranked table. Every
// participant gets a row even without results. Matches lacking a score are
// ignored.
func Compute(seasonID int, completed []models.Match, participants []models.Team, th Thresholds) []models.StandingRow {
	rows := make(map[int]*models.StandingRow, len(participants))
	for _, team := range participants {
		rows[team.ID] = &models.StandingRow{SeasonID: seasonID, TeamID: team.ID, TeamName: team.Name}
	}

	row := func(teamID int) *models.StandingRow {
		r, ok := rows[teamID]
		if !ok {
			r = &models.StandingRow{SeasonID: seasonID, TeamID: teamID}
			rows[teamID] = r
		}
		return r
	}

	for _, m := range completed {
		if m.Status != models.StatusFullTime || m.HomeScore == nil || m.AwayScore == nil {
			continue
		}
		home, away := row(m.HomeTeamID), row(m.AwayTeamID)
		hs, as := *m.HomeScore, *m.AwayScore

		home.Played++
		away.Played++
		home.PointsFor += hs
		home.PointsAgainst += as
		away.PointsFor += as
		away.PointsAgainst += hs

		switch {
		case hs > as:
			home.Won++
			away.Lost++
			home.Points += PointsWin
			away.Points += PointsLoss
		case hs < as:
			away.Won++
			home.Lost++
			away.Points += PointsWin
			home.Points += PointsLoss
		default:
			home.Drawn++
			away.Drawn++
			home.Points += PointsDraw
			away.Points += PointsDraw
		}
	}

	out := make([]models.StandingRow, 0, len(rows))
	for _, r := range rows {
		r.Diff = r.PointsFor - r.PointsAgainst
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Diff != b.Diff {
			return a.Diff > b.Diff
		}
		if a.PointsFor != b.PointsFor {
			return a.PointsFor > b.PointsFor
		}
		if a.TeamName != b.TeamName {
			return a.TeamName < b.TeamName
		}
		return a.TeamID < b.TeamID
	})

	rank(out, th)
	return out
}

// NameResolver maps a scraped team name to a team id
type NameResolver interface {
	Resolve(raw string) (int, bool)
}

// FromScraped converts standings page rows. Rows whose team does not
// resolve, or that repeat a team, are dropped and counted. Bonus points are
// whatever the page's points exceed the win/draw points by.
func FromScraped(seasonID int, scraped []models.ScrapedStanding, names NameResolver, th Thresholds) ([]models.StandingRow, int) {
	sorted := make([]models.ScrapedStanding, len(scraped))
	copy(sorted, scraped)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	var out []models.StandingRow
	seen := make(map[int]struct{}, len(sorted))
	unmapped := 0

	for _, s := range sorted {
		teamID, ok := names.Resolve(s.TeamText)
		if !ok {
			unmapped++
			continue
		}
		if _, dup := seen[teamID]; dup {
			unmapped++
			continue
		}
		seen[teamID] = struct{}{}

		bonus := s.Points - PointsWin*s.Won - PointsDraw*s.Drawn
		if bonus < 0 {
			bonus = 0
		}

		out = append(out, models.StandingRow{
			SeasonID:      seasonID,
			TeamID:        teamID,
			TeamName:      s.TeamText,
			Played:        s.Played,
			Won:           s.Won,
			Drawn:         s.Drawn,
			Lost:          s.Lost,
			PointsFor:     s.PointsFor,
			PointsAgainst: s.PointsAgainst,
			Diff:          s.PointsFor - s.PointsAgainst,
			BonusPoints:   bonus,
			Points:        s.Points,
		})
	}

	rank(out, th)
	return out, unmapped
}

// Placeholder returns an all-zero table for participants ordered by name
func Placeholder(seasonID int, participants []models.Team) []models.StandingRow {
	out := make([]models.StandingRow, 0, len(participants))
	for _, team := range participants {
		out = append(out, models.StandingRow{SeasonID: seasonID, TeamID: team.ID, TeamName: team.Name})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TeamName != out[j].TeamName {
			return out[i].TeamName < out[j].TeamName
		}
		return out[i].TeamID < out[j].TeamID
	})

	rank(out, Thresholds{})
	return out
}

// rank numbers rows from 1 and applies badges. Qualification wins where the
// two ranges overlap.
func rank(rows []models.StandingRow, th Thresholds) {
	n := len(rows)
	for i := range rows {
		rows[i].Position = i + 1
		rows[i].Badge = ""
		switch {
		case th.Qualify > 0 && i < th.Qualify:
			rows[i].Badge = models.BadgeQualification
		case th.Relegate > 0 && i >= n-th.Relegate:
			rows[i].Badge = models.BadgeRelegation
		}
	}
}
