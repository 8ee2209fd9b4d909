package repository

import (
	"testing"

	"rugbyscores/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMostRecentSeason(t *testing.T) {
	tests := []struct {
		name    string
		seasons []models.Season
		want    int
	}{
		{
			name: "year range beats lexical order",
			seasons: []models.Season{
				{ID: 1, Name: "2025/2026"},
				{ID: 2, Name: "2024/2025"},
				{ID: 3, Name: "Season 2023"},
			},
			want: 1,
		},
		{
			name: "short end year",
			seasons: []models.Season{
				{ID: 1, Name: "2025-26"},
				{ID: 2, Name: "2025"},
			},
			want: 1,
		},
		{
			name: "names without a year rank last",
			seasons: []models.Season{
				{ID: 7, Name: "Current"},
				{ID: 3, Name: "2019"},
			},
			want: 3,
		},
		{
			name: "equal years fall back to highest id",
			seasons: []models.Season{
				{ID: 4, Name: "2026"},
				{ID: 9, Name: "2026 Championship"},
			},
			want: 9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MostRecentSeason(tt.seasons)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.ID)
		})
	}

	_, ok := MostRecentSeason(nil)
	assert.False(t, ok)
}
