package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.CandidateDaysBack)
	assert.Equal(t, 7, cfg.CandidateDaysAhead)
	assert.Equal(t, 2, cfg.FuzzyMinScore)
	assert.True(t, cfg.AllowSwappedLookup)
	assert.Equal(t, 3, cfg.NavAttempts)
	assert.Equal(t, 60*time.Second, cfg.NavTimeout)
	assert.Equal(t, 15*time.Second, cfg.RowWaitTimeout)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_MissingPassword(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DatabasePassword:   "secret",
			CandidateDaysBack:  3,
			CandidateDaysAhead: 7,
			FuzzyMinScore:      2,
			NavAttempts:        3,
			NavTimeout:         time.Minute,
			RowWaitTimeout:     time.Second,
			Timezone:           "UTC",
		}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.FuzzyMinScore = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.CandidateDaysBack = -1
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.NavAttempts = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())
}

func TestRequireSources(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireSources())

	cfg.SourceURLs = "https://www.flashscore.com/rugby-union/europe/six-nations/fixtures/"
	assert.NoError(t, cfg.RequireSources())
}

func TestLoadCatalog_DefaultsWhenEmpty(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)

	assert.Equal(t, "six-nations", catalog.SlugsBySourcePath()["europe/six-nations"])
	assert.Equal(t, "Ireland", catalog.Aliases["Irlanda"])
}

func TestLoadCatalog_MergesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `
competitions:
  - slug: top-14
    source_path: france/top-14
    qualify: 2
    relegate: 2
  - slug: currie-cup
    source_path: south-africa/currie-cup
    qualify: 4
aliases:
  Stade Toulousain: Toulouse
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)

	top14, ok := catalog.Competition("top-14")
	require.True(t, ok)
	assert.Equal(t, 2, top14.Qualify, "file entry should replace the default")
	assert.Equal(t, 2, top14.Relegate)

	_, ok = catalog.Competition("currie-cup")
	assert.True(t, ok)
	assert.Equal(t, "currie-cup", catalog.SlugsBySourcePath()["south-africa/currie-cup"])
	assert.Equal(t, "Toulouse", catalog.Aliases["Stade Toulousain"])
	assert.Equal(t, "Ireland", catalog.Aliases["Irlanda"], "defaults are kept")
}

func TestLoadCatalog_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("competitions:\n  - source_path: x/y\n"), 0o644))

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}
