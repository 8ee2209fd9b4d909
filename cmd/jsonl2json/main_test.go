package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "logs/flashscore_urc_2025-2026.json", outputPath("logs/flashscore_urc_2025-2026.jsonl"))
	assert.Equal(t, "dump.json", outputPath("dump"))
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "dump.jsonl")
	require.NoError(t, os.WriteFile(in, []byte(
		`{"match_date":"2025-10-18","home":"Toulon","away":"Pau","status":"FULL_TIME","home_score":24,"away_score":10}`+"\n"+
			`{"match_date":"2025-10-25","home":"Pau","away":"Lyon","status":"NOT_STARTED"}`+"\n",
	), 0o644))

	out := filepath.Join(dir, "dump.json")
	n, err := convert(in, out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Toulon", decoded[0]["home"])
	assert.Nil(t, decoded[1]["home_score"])
}

func TestConvert_MissingInput(t *testing.T) {
	_, err := convert(filepath.Join(t.TempDir(), "nope.jsonl"), "-")
	assert.Error(t, err)
}
