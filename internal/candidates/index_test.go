package candidates

import (
	"testing"
	"time"

	"rugbyscores/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildAndLookup(t *testing.T) {
	idx := Build([]models.Match{
		{ID: 1, HomeTeamID: 10, AwayTeamID: 20, Status: models.StatusNotStarted},
		{ID: 2, HomeTeamID: 10, AwayTeamID: 20, Status: models.StatusLive},
		{ID: 3, HomeTeamID: 30, AwayTeamID: 40, Status: models.StatusNotStarted},
		{ID: 4, HomeTeamID: 50, AwayTeamID: 60, Status: models.StatusFullTime},
	})

	assert.Equal(t, 3, idx.Len(), "finished matches are not candidates")

	found, swapped := idx.Lookup(10, 20, true)
	assert.Len(t, found, 2)
	assert.False(t, swapped)

	found, swapped = idx.Lookup(40, 30, true)
	require.Len(t, found, 1)
	assert.True(t, swapped)
	assert.Equal(t, 3, found[0].ID)

	found, swapped = idx.Lookup(40, 30, false)
	assert.Empty(t, found)
	assert.False(t, swapped)

	found, _ = idx.Lookup(50, 60, true)
	assert.Empty(t, found)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "12__34", Key(12, 34))
}

func TestPickClosest(t *testing.T) {
	now := time.Date(2026, time.March, 14, 18, 30, 0, 0, time.UTC)
	cands := []models.Match{
		{ID: 1, MatchDate: day(2026, time.March, 20)},
		{ID: 2, MatchDate: day(2026, time.March, 13)},
		{ID: 3, MatchDate: day(2026, time.March, 11)},
	}

	got, ok := PickClosest(cands, now)
	require.True(t, ok)
	assert.Equal(t, 2, got.ID)
}

func TestPickClosest_TieGoesToEarlierDate(t *testing.T) {
	now := day(2026, time.March, 14)
	cands := []models.Match{
		{ID: 9, MatchDate: day(2026, time.March, 16)},
		{ID: 8, MatchDate: day(2026, time.March, 12)},
	}

	got, ok := PickClosest(cands, now)
	require.True(t, ok)
	assert.Equal(t, 8, got.ID)
}

func TestPickClosest_Empty(t *testing.T) {
	_, ok := PickClosest(nil, time.Now())
	assert.False(t, ok)
}

func TestWindow(t *testing.T) {
	from, to := Window(time.Date(2026, time.March, 14, 23, 59, 0, 0, time.UTC), 3, 7)
	assert.Equal(t, day(2026, time.March, 11), from)
	assert.Equal(t, day(2026, time.March, 21), to)
}
