package dump

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rugbyscores/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func items() []models.FixtureItem {
	return []models.FixtureItem{
		{
			Round: intPtr(3), MatchDate: "2025-10-18", KickoffTime: "15:00",
			Home: "Stade Français", Away: "Toulon",
			HomeScore: intPtr(24), AwayScore: intPtr(10),
			Status: models.StatusFullTime, SourceEventKey: "top-14|2025-2026|a",
		},
		{
			MatchDate: "2025-10-25", Home: "Pau", Away: "Lyon",
			Status: models.StatusNotStarted, SourceEventKey: "top-14|2025-2026|b",
		},
	}
}

func TestPaths(t *testing.T) {
	now := time.Date(2025, 10, 19, 6, 30, 0, 0, time.UTC)
	jsonl, summary := Paths("logs", "top-14", "2025/2026", now)
	assert.Equal(t, filepath.Join("logs", "flashscore_top-14_2025-2026_20251019T063000Z.jsonl"), jsonl)
	assert.Equal(t, filepath.Join("logs", "flashscore_top-14_2025-2026_20251019T063000Z_summary.txt"), summary)
}

func TestJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "dump.jsonl")
	require.NoError(t, WriteJSONL(path, items()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
	assert.Contains(t, string(data), "Stade Français", "html and unicode are not escaped")

	got, err := ReadJSONL(bytes.NewReader(append(data, '\n')))
	require.NoError(t, err)
	assert.Equal(t, items(), got)
}

func TestReadJSONL_BadLine(t *testing.T) {
	_, err := ReadJSONL(strings.NewReader("{\"home\":\"A\"}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.txt")
	all := items()
	err := WriteSummary(path, Summary{
		Competition: "top-14",
		Season:      "2025/2026",
		Results:     all[:1],
		Fixtures:    all[1:],
		UpsertOK:    2,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "upsert_ok: 2\n")
	assert.Contains(t, text, "upsert_fail: 0\n")
	assert.Contains(t, text, "2025-10-18 15:00 Stade Français v Toulon 24-10 [FULL_TIME]")
	assert.Contains(t, text, "2025-10-25 --:-- Pau v Lyon - [NOT_STARTED]")
}

func TestWriteJSONArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONArray(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteJSONArray(&buf, items()[1:]))
	assert.True(t, strings.HasPrefix(buf.String(), "[\n  {"))
}
