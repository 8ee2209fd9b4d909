// Package scrape renders live-score pages in a headless browser and
// extracts fixture, result and standings rows from the HTML.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rugbyscores/ingestion/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// ErrNoRows is returned when a rendered page has no usable rows
var ErrNoRows = errors.New("no rows on page")

// Fetcher renders pages and runs the extraction for each page kind
type Fetcher struct {
	renderer Renderer
}

// NewFetcher creates a Fetcher on top of r
func NewFetcher(r Renderer) *Fetcher {
	return &Fetcher{renderer: r}
}

// Fixtures returns the fixture rows of a live-score page
func (f *Fetcher) Fixtures(ctx context.Context, url string) ([]models.ScrapedRow, error) {
	doc, err := f.document(ctx, Page{URL: url, WaitSelector: RowSelectors[0]})
	if err != nil {
		return nil, err
	}

	rows := ExtractFixtures(doc)
	log.Debug().Str("url", url).Int("rows", len(rows)).Msg("Fixture rows extracted")
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

// Items renders a results or fixtures listing in full and returns the
// detected season name with the parsed items
func (f *Fetcher) Items(ctx context.Context, url string, status models.MatchStatus, competition, fallbackSeason string) (string, []models.FixtureItem, error) {
	doc, err := f.document(ctx, Page{URL: url, WaitSelector: RowSelectors[0], Expand: true})
	if err != nil {
		return fallbackSeason, nil, err
	}

	season := DetectSeason(doc, fallbackSeason)
	items := ExtractItems(doc, status, competition, season)
	log.Debug().
		Str("url", url).
		Str("season", season).
		Int("items", len(items)).
		Msg("Listing items extracted")
	return season, items, nil
}

// Standings returns the rows of a standings page
func (f *Fetcher) Standings(ctx context.Context, url string) ([]models.ScrapedStanding, error) {
	doc, err := f.document(ctx, Page{URL: url, WaitSelector: ".ui-table__row"})
	if err != nil {
		return nil, err
	}

	rows := ExtractStandings(doc)
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

func (f *Fetcher) document(ctx context.Context, page Page) (*goquery.Document, error) {
	html, err := f.renderer.Render(ctx, page)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html from %s: %w", page.URL, err)
	}
	return doc, nil
}
