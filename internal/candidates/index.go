// Package candidates indexes the not-yet-finished matches of a season by team
// pair so scraped rows can be matched in constant time.
package candidates

import (
	"fmt"
	"sort"
	"time"

	"rugbyscores/ingestion/internal/models"
)

// Key builds the "<homeId>__<awayId>" lookup key
func Key(homeID, awayID int) string {
	return fmt.Sprintf("%d__%d", homeID, awayID)
}

// Index maps a team pair to every candidate match between them. A pair can
// have more than one fixture in the window (league and cup).
type Index struct {
	byPair map[string][]models.Match
	size   int
}

// Build indexes matches by home/away pair. Finished matches are left out.
func Build(matches []models.Match) *Index {
	idx := &Index{byPair: make(map[string][]models.Match, len(matches))}
	for _, m := range matches {
		if m.Status == models.StatusFullTime {
			continue
		}
		key := Key(m.HomeTeamID, m.AwayTeamID)
		idx.byPair[key] = append(idx.byPair[key], m)
		idx.size++
	}
	return idx
}

// Len returns the number of indexed matches
func (idx *Index) Len() int {
	return idx.size
}

// Lookup returns the candidates for home vs away. When there are none and
// allowSwap is set it tries away vs home and reports swapped=true.
func (idx *Index) Lookup(homeID, awayID int, allowSwap bool) ([]models.Match, bool) {
	if found := idx.byPair[Key(homeID, awayID)]; len(found) > 0 {
		return found, false
	}
	if !allowSwap {
		return nil, false
	}
	if found := idx.byPair[Key(awayID, homeID)]; len(found) > 0 {
		return found, true
	}
	return nil, false
}

// PickClosest returns the candidate whose match date is the fewest whole days
// from now. Ties go to the earlier date, then the lower id.
func PickClosest(cands []models.Match, now time.Time) (models.Match, bool) {
	if len(cands) == 0 {
		return models.Match{}, false
	}

	sorted := make([]models.Match, len(cands))
	copy(sorted, cands)
	today := dateOnly(now)

	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := dayDistance(sorted[i].MatchDate, today), dayDistance(sorted[j].MatchDate, today)
		if di != dj {
			return di < dj
		}
		if !sorted[i].MatchDate.Equal(sorted[j].MatchDate) {
			return sorted[i].MatchDate.Before(sorted[j].MatchDate)
		}
		return sorted[i].ID < sorted[j].ID
	})

	return sorted[0], true
}

// Window returns the inclusive [today-back, today+ahead] date range. "today"
// is the calendar date of now in its own location.
func Window(now time.Time, back, ahead int) (time.Time, time.Time) {
	today := dateOnly(now)
	return today.AddDate(0, 0, -back), today.AddDate(0, 0, ahead)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayDistance(date, today time.Time) int {
	days := int(dateOnly(date).Sub(today).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
