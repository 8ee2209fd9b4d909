package reconcile

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"rugbyscores/ingestion/internal/candidates"
	"rugbyscores/ingestion/internal/models"
	"rugbyscores/ingestion/internal/normalize"
	"rugbyscores/ingestion/internal/parse"
	"rugbyscores/ingestion/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 14, 15, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

// memStore mimics the targeted UPDATE: finished rows are never touched.
type memStore struct {
	matches map[int]*models.Match
	writes  map[int]int
	failIDs map[int]bool
}

func newMemStore(matches ...models.Match) *memStore {
	s := &memStore{
		matches: make(map[int]*models.Match),
		writes:  make(map[int]int),
		failIDs: make(map[int]bool),
	}
	for i := range matches {
		m := matches[i]
		s.matches[m.ID] = &m
	}
	return s
}

func (s *memStore) ApplyPatch(_ context.Context, matchID int, patch models.MatchPatch) error {
	if s.failIDs[matchID] {
		return errors.New("connection reset")
	}
	m, ok := s.matches[matchID]
	if !ok || m.Status == models.StatusFullTime {
		return repository.ErrNotFound
	}

	s.writes[matchID]++
	m.Status = patch.Status
	m.Minute = patch.Minute
	if patch.ClearScores {
		m.HomeScore, m.AwayScore = nil, nil
		return nil
	}
	if patch.HomeScore != nil {
		m.HomeScore = patch.HomeScore
	}
	if patch.AwayScore != nil {
		m.AwayScore = patch.AwayScore
	}
	return nil
}

func (s *memStore) snapshot() []models.Match {
	out := make([]models.Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) index() *candidates.Index {
	return candidates.Build(s.snapshot())
}

const (
	ireland = 1
	italy   = 2
	france  = 3
	wales   = 4
)

func resolver() *normalize.Resolver {
	teams := []models.Team{
		{ID: ireland, Name: "Ireland"},
		{ID: italy, Name: "Italy"},
		{ID: france, Name: "France"},
		{ID: wales, Name: "Wales"},
	}
	return normalize.NewResolver(teams, map[string]string{
		"Irlanda": "Ireland",
		"Italia":  "Italy",
		"Francia": "France",
		"Gales":   "Wales",
	}, normalize.DefaultMinScore)
}

func newReconciler(store MatchWriter) *Reconciler {
	return New(store, Options{
		Competition:        "six-nations",
		AllowSwappedLookup: true,
		Now:                func() time.Time { return now },
	})
}

func match(id, home, away int, status models.MatchStatus, date time.Time) models.Match {
	return models.Match{ID: id, HomeTeamID: home, AwayTeamID: away, Status: status, MatchDate: date}
}

func today() time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func TestReconcile_FullTimeViaAlias(t *testing.T) {
	store := newMemStore(match(100, ireland, italy, models.StatusNotStarted, today()))

	rows := []models.ScrapedRow{
		{HomeText: "Irlanda", AwayText: "Italia", ScoreHomeText: "24", ScoreAwayText: "10", StatusText: "FT"},
	}
	report := newReconciler(store).Reconcile(context.Background(), rows, resolver(), store.index())

	assert.Equal(t, 1, report.Updated)
	got := store.matches[100]
	assert.Equal(t, models.StatusFullTime, got.Status)
	assert.Equal(t, intPtr(24), got.HomeScore)
	assert.Equal(t, intPtr(10), got.AwayScore)
	assert.Nil(t, got.Minute)
}

func TestReconcile_LiveMinute(t *testing.T) {
	store := newMemStore(match(100, ireland, italy, models.StatusNotStarted, today()))

	rows := []models.ScrapedRow{
		{HomeText: "Ireland", AwayText: "Italy", ScoreHomeText: "14", ScoreAwayText: "7", StatusText: "52'"},
	}
	newReconciler(store).Reconcile(context.Background(), rows, resolver(), store.index())

	got := store.matches[100]
	assert.Equal(t, models.StatusLive, got.Status)
	assert.Equal(t, intPtr(52), got.Minute)
	assert.Equal(t, intPtr(14), got.HomeScore)
}

func TestReconcile_PostponedClearsScores(t *testing.T) {
	live := match(100, ireland, italy, models.StatusLive, today())
	live.HomeScore = intPtr(10)
	live.AwayScore = intPtr(3)
	live.Minute = intPtr(30)
	store := newMemStore(live)

	rows := []models.ScrapedRow{
		{HomeText: "Ireland", AwayText: "Italy", ScoreHomeText: "10", ScoreAwayText: "3", StatusText: "Postponed"},
	}
	report := newReconciler(store).Reconcile(context.Background(), rows, resolver(), store.index())

	require.Equal(t, 1, report.Updated)
	got := store.matches[100]
	assert.Equal(t, models.StatusNotStarted, got.Status)
	assert.Nil(t, got.HomeScore)
	assert.Nil(t, got.AwayScore)
	assert.Nil(t, got.Minute)
}

func TestReconcile_ClosestDateWins(t *testing.T) {
	store := newMemStore(
		match(100, ireland, italy, models.StatusNotStarted, today().AddDate(0, 0, 5)),
		match(101, ireland, italy, models.StatusNotStarted, today().AddDate(0, 0, 1)),
	)

	rows := []models.ScrapedRow{
		{HomeText: "Ireland", AwayText: "Italy", ScoreHomeText: "3", ScoreAwayText: "0", StatusText: "12'"},
	}
	newReconciler(store).Reconcile(context.Background(), rows, resolver(), store.index())

	assert.Equal(t, 1, store.writes[101])
	assert.Zero(t, store.writes[100])
	assert.Equal(t, models.StatusNotStarted, store.matches[100].Status)
}

func TestReconcile_AtMostOneUpdatePerMatch(t *testing.T) {
	store := newMemStore(match(100, ireland, italy, models.StatusNotStarted, today()))

	rows := []models.ScrapedRow{
		{HomeText: "Ireland", AwayText: "Italy", ScoreHomeText: "10", ScoreAwayText: "3", StatusText: "30'"},
		{HomeText: "Irlanda", AwayText: "Italia", ScoreHomeText: "12", ScoreAwayText: "3", StatusText: "35'"},
	}
	report := newReconciler(store).Reconcile(context.Background(), rows, resolver(), store.index())

	assert.Equal(t, 1, store.writes[100])
	assert.Equal(t, 1, report.DuplicateTarget)
	assert.Equal(t, intPtr(10), store.matches[100].HomeScore, "the first row wins")
}

func TestReconcile_DuplicateRowsCollapse(t *testing.T) {
	store := newMemStore(match(100, ireland, italy, models.StatusNotStarted, today()))

	row := models.ScrapedRow{HomeText: "Ireland ", AwayText: "ITALY", ScoreHomeText: "10", ScoreAwayText: "3", StatusText: "30'"}
	report := newReconciler(store).Reconcile(context.Background(), []models.ScrapedRow{row, row}, resolver(), store.index())

	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 1, report.Duplicates)
	assert.Zero(t, report.DuplicateTarget)
	assert.Equal(t, 1, store.writes[100])
}

func TestReconcile_Idempotent(t *testing.T) {
	store := newMemStore(
		match(100, ireland, italy, models.StatusNotStarted, today()),
		match(101, france, wales, models.StatusNotStarted, today()),
	)
	rows := []models.ScrapedRow{
		{HomeText: "Irlanda", AwayText: "Italia", ScoreHomeText: "24", ScoreAwayText: "10", StatusText: "FT"},
		{HomeText: "Francia", AwayText: "Gales", ScoreHomeText: "7", ScoreAwayText: "9", StatusText: "HT"},
	}

	first := newReconciler(store).Reconcile(context.Background(), rows, resolver(), store.index())
	require.Equal(t, 2, first.Updated)
	afterFirst := store.snapshot()

	second := newReconciler(store).Reconcile(context.Background(), rows, resolver(), store.index())
	assert.Zero(t, second.Updated)
	assert.Zero(t, second.Failed)
	assert.Equal(t, afterFirst, store.snapshot())
}

func TestReconcile_FinishedMatchIsNeverReopened(t *testing.T) {
	done := match(100, ireland, italy, models.StatusFullTime, today())
	done.HomeScore = intPtr(24)
	done.AwayScore = intPtr(10)
	store := newMemStore(done)

	rows := []models.ScrapedRow{
		{HomeText: "Ireland", AwayText: "Italy", ScoreHomeText: "-", ScoreAwayText: "-", StatusText: "Postponed"},
		{HomeText: "Ireland", AwayText: "Italy", ScoreHomeText: "3", ScoreAwayText: "0", StatusText: "10'"},
	}
	report := newReconciler(store).Reconcile(context.Background(), rows, resolver(), store.index())

	assert.Equal(t, 2, report.NoCandidate)
	assert.Equal(t, models.StatusFullTime, store.matches[100].Status)
	assert.Equal(t, intPtr(24), store.matches[100].HomeScore)
}

func TestReconcile_SwappedLookupRestoresOrientation(t *testing.T) {
	store := newMemStore(match(100, italy, ireland, models.StatusNotStarted, today()))

	rows := []models.ScrapedRow{
		{HomeText: "Ireland", AwayText: "Italy", ScoreHomeText: "24", ScoreAwayText: "10", StatusText: "FT"},
	}
	report := newReconciler(store).Reconcile(context.Background(), rows, resolver(), store.index())

	assert.Equal(t, 1, report.Swapped)
	assert.Equal(t, intPtr(10), store.matches[100].HomeScore, "stored home is Italy")
	assert.Equal(t, intPtr(24), store.matches[100].AwayScore)
}

func TestReconcile_SwappedLookupDisabled(t *testing.T) {
	store := newMemStore(match(100, italy, ireland, models.StatusNotStarted, today()))
	r := New(store, Options{AllowSwappedLookup: false, Now: func() time.Time { return now }})

	rows := []models.ScrapedRow{
		{HomeText: "Ireland", AwayText: "Italy", ScoreHomeText: "24", ScoreAwayText: "10", StatusText: "FT"},
	}
	report := r.Reconcile(context.Background(), rows, resolver(), store.index())

	assert.Equal(t, 1, report.NoCandidate)
	assert.Zero(t, store.writes[100])
}

func TestReconcile_UnmappedSkipped(t *testing.T) {
	store := newMemStore(match(100, ireland, italy, models.StatusNotStarted, today()))
	names := resolver()

	rows := []models.ScrapedRow{
		{HomeText: "Zebre Parma", AwayText: "Italy", ScoreHomeText: "3", ScoreAwayText: "0", StatusText: "5'"},
	}
	report := newReconciler(store).Reconcile(context.Background(), rows, names, store.index())

	assert.Equal(t, 1, report.Unmapped)
	assert.Zero(t, store.writes[100])
	unmapped := names.Unmapped()
	require.Len(t, unmapped, 1)
	assert.Equal(t, "Zebre Parma", unmapped[0].Raw)
}

func TestReconcile_WriteFailureDoesNotAbort(t *testing.T) {
	store := newMemStore(
		match(100, ireland, italy, models.StatusNotStarted, today()),
		match(101, france, wales, models.StatusNotStarted, today()),
	)
	store.failIDs[100] = true

	rows := []models.ScrapedRow{
		{HomeText: "Ireland", AwayText: "Italy", ScoreHomeText: "3", ScoreAwayText: "0", StatusText: "5'"},
		{HomeText: "France", AwayText: "Wales", ScoreHomeText: "0", ScoreAwayText: "7", StatusText: "9'"},
	}
	report := newReconciler(store).Reconcile(context.Background(), rows, resolver(), store.index())

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, models.StatusLive, store.matches[101].Status)
}

func TestReconcile_FinishedSinceLoadIsNotAFailure(t *testing.T) {
	store := newMemStore(match(100, ireland, italy, models.StatusLive, today()))
	index := store.index()
	store.matches[100].Status = models.StatusFullTime

	rows := []models.ScrapedRow{
		{HomeText: "Ireland", AwayText: "Italy", ScoreHomeText: "24", ScoreAwayText: "10", StatusText: "FT"},
	}
	report := newReconciler(store).Reconcile(context.Background(), rows, resolver(), index)

	assert.Equal(t, 1, report.Finished)
	assert.Zero(t, report.Failed)
	assert.Zero(t, report.Updated)
	assert.Zero(t, store.writes[100])
}

func TestReconcile_NotStartedNeverKeepsScores(t *testing.T) {
	stale := match(100, ireland, italy, models.StatusLive, today())
	stale.HomeScore = intPtr(0)
	stale.AwayScore = intPtr(0)
	store := newMemStore(stale, match(101, france, wales, models.StatusNotStarted, today()))

	rows := []models.ScrapedRow{
		{HomeText: "Ireland", AwayText: "Italy", ScoreHomeText: "0", ScoreAwayText: "0", StatusText: "15:30"},
		{HomeText: "France", AwayText: "Wales", ScoreHomeText: "0", ScoreAwayText: "0", StatusText: "Cancelled"},
	}
	newReconciler(store).Reconcile(context.Background(), rows, resolver(), store.index())

	for _, m := range store.snapshot() {
		if m.Status == models.StatusNotStarted {
			assert.Nil(t, m.HomeScore, "match %d", m.ID)
			assert.Nil(t, m.AwayScore, "match %d", m.ID)
		}
	}
}

func TestComputePatch_LiveScoresDoNotGoBackwards(t *testing.T) {
	current := models.Match{Status: models.StatusLive, HomeScore: intPtr(10), AwayScore: intPtr(3)}

	patch := ComputePatch(current, parse.StatusResult{Status: models.StatusLive, Minute: intPtr(41)}, intPtr(7), intPtr(5), false)
	assert.Equal(t, intPtr(10), patch.HomeScore)
	assert.Equal(t, intPtr(5), patch.AwayScore)
	assert.Equal(t, intPtr(41), patch.Minute)
}

func TestComputePatch_NilScoresLeaveStoredValues(t *testing.T) {
	current := models.Match{Status: models.StatusLive, HomeScore: intPtr(10), AwayScore: intPtr(3)}

	patch := ComputePatch(current, parse.StatusResult{Status: models.StatusFullTime}, nil, nil, false)
	assert.Nil(t, patch.HomeScore)
	assert.Nil(t, patch.AwayScore)
	assert.False(t, patch.ClearScores)
	assert.Nil(t, patch.Minute)
}

func TestUnchanged(t *testing.T) {
	current := models.Match{Status: models.StatusLive, Minute: intPtr(20), HomeScore: intPtr(7), AwayScore: intPtr(0)}

	assert.True(t, Unchanged(current, models.MatchPatch{Status: models.StatusLive, Minute: intPtr(20), HomeScore: intPtr(7)}))
	assert.False(t, Unchanged(current, models.MatchPatch{Status: models.StatusLive, Minute: intPtr(21), HomeScore: intPtr(7)}))
	assert.False(t, Unchanged(current, models.MatchPatch{Status: models.StatusNotStarted, ClearScores: true}))
	assert.True(t, Unchanged(models.Match{Status: models.StatusNotStarted}, models.MatchPatch{Status: models.StatusNotStarted, ClearScores: true}))
}
