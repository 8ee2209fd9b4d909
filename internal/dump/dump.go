// Package dump writes the backfill import's JSONL dumps and text summaries
// and converts dumps to JSON arrays.
package dump

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rugbyscores/ingestion/internal/models"
)

const (
	sourceName   = "flashscore"
	previewItems = 5
)

// Summary describes one competition's import
type Summary struct {
	Competition string
	Season      string
	Results     []models.FixtureItem
	Fixtures    []models.FixtureItem
	UpsertOK    int
	UpsertFail  int
}

// Paths returns the dump and summary file paths for one import
func Paths(dir, competition, season string, now time.Time) (string, string) {
	base := fmt.Sprintf("%s_%s_%s_%s",
		sourceName,
		competition,
		strings.ReplaceAll(season, "/", "-"),
		now.UTC().Format("20060102T150405Z"),
	)
	return filepath.Join(dir, base+".jsonl"), filepath.Join(dir, base+"_summary.txt")
}

// WriteJSONL writes one JSON object per line
func WriteJSONL(path string, items []models.FixtureItem) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create dump dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dump: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range items {
		if err := enc.Encode(&items[i]); err != nil {
			return fmt.Errorf("failed to write dump line %d: %w", i+1, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush dump: %w", err)
	}
	return nil
}

// WriteSummary writes a human readable summary next to the dump
func WriteSummary(path string, s Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "competition: %s\n", s.Competition)
	fmt.Fprintf(&b, "season: %s\n", s.Season)
	fmt.Fprintf(&b, "results: %d\n", len(s.Results))
	fmt.Fprintf(&b, "fixtures: %d\n", len(s.Fixtures))
	fmt.Fprintf(&b, "upsert_ok: %d\n", s.UpsertOK)
	fmt.Fprintf(&b, "upsert_fail: %d\n", s.UpsertFail)

	preview(&b, "results", s.Results)
	preview(&b, "fixtures", s.Fixtures)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create summary dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func preview(b *strings.Builder, label string, items []models.FixtureItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s preview:\n", label)
	for i, item := range items {
		if i == previewItems {
			break
		}
		fmt.Fprintf(b, "  %s\n", Line(item))
	}
}

// Line formats an item for the summary preview
func Line(item models.FixtureItem) string {
	score := "-"
	if item.HomeScore != nil && item.AwayScore != nil {
		score = fmt.Sprintf("%d-%d", *item.HomeScore, *item.AwayScore)
	}
	kickoff := item.KickoffTime
	if kickoff == "" {
		kickoff = "--:--"
	}
	return fmt.Sprintf("%s %s %s v %s %s [%s]", item.MatchDate, kickoff, item.Home, item.Away, score, item.Status)
}

// ReadJSONL reads a dump back. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]models.FixtureItem, error) {
	var out []models.FixtureItem
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var item models.FixtureItem
		if err := json.Unmarshal([]byte(text), &item); err != nil {
			return nil, fmt.Errorf("failed to decode line %d: %w", line, err)
		}
		out = append(out, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}
	return out, nil
}

// WriteJSONArray writes items as one indented JSON array
func WriteJSONArray(w io.Writer, items []models.FixtureItem) error {
	if items == nil {
		items = []models.FixtureItem{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}
	return nil
}
