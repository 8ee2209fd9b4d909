package scrape

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rugbyscores/ingestion/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const livePage = `<html><body>
<div class="heading__info">Six Nations 2025/2026</div>
<div class="event__header">ENGLAND: PREMIERSHIP</div>
<div class="event__match" id="g_1">
  <div class="event__stage"><div class="event__stage--block">FT</div></div>
  <div class="event__participant event__participant--home" title="Ireland">IRE</div>
  <div class="event__participant event__participant--away" title="Italia">ITA</div>
  <div class="event__score event__score--home">24</div>
  <div class="event__score event__score--away">10</div>
</div>
<div class="event__match" id="g_2">
  <div class="event__stage"><div class="event__stage--block">52'</div></div>
  <div class="event__participant event__participant--home">France</div>
  <div class="event__participant event__participant--away">Wales</div>
  <div class="event__scores">14 - 7</div>
</div>
<div class="event__match" id="g_3">
  <div class="event__participant event__participant--home">SOUTH AMERICA:</div>
  <div class="event__participant event__participant--away">Argentina XV</div>
</div>
<div class="event__match" id="g_4">
  <div>Advertisement</div>
  <div class="event__participant event__participant--home">Sponsor One</div>
  <div class="event__participant event__participant--away">Sponsor Two</div>
</div>
<div class="event__match" id="g_5">
  <div class="event__time">21.03. 17:45</div>
  <div class="event__participant event__participant--home">Scotland</div>
  <div class="event__participant event__participant--away">England</div>
  <div class="event__score event__score--home">-</div>
  <div class="event__score event__score--away">-</div>
</div>
</body></html>`

const resultsPage = `<html><body>
<div class="heading__name">Six Nations</div>
<div class="heading__info">2025/2026</div>
<div class="event__match">
  <div class="event__time">14.03. 15:00</div>
  <div class="event__round">Round 5</div>
  <div class="event__participant event__participant--home">Ireland</div>
  <div class="event__participant event__participant--away">Italy</div>
  <div class="event__score event__score--home">24</div>
  <div class="event__score event__score--away">10</div>
</div>
<div class="event__match">
  <div class="event__time">Sep 20 3:05 PM</div>
  <div class="event__participant event__participant--home">France</div>
  <div class="event__participant event__participant--away">Wales</div>
  <div class="event__score event__score--home">131</div>
  <div class="event__score event__score--away">0</div>
</div>
<div class="event__match">
  <div class="event__participant event__participant--home">Scotland</div>
  <div class="event__participant event__participant--away">England</div>
  <div class="event__score event__score--home">20</div>
  <div class="event__score event__score--away">18</div>
</div>
</body></html>`

const standingsPage = `<html><body>
<div class="ui-table__row">
  <div class="table__cell table__cell--rank tableCellRank">1.</div>
  <div class="table__cell table__cell--participant"><a class="tableCellParticipant__name">Leinster</a></div>
  <span class="table__cell table__cell--value">10</span>
  <span class="table__cell table__cell--value">9</span>
  <span class="table__cell table__cell--value">0</span>
  <span class="table__cell table__cell--value">1</span>
  <span class="table__cell table__cell--value">320:150</span>
  <span class="table__cell table__cell--value table__cell--points">45</span>
</div>
<div class="ui-table__row">
  <div class="table__cell table__cell--rank tableCellRank">2.</div>
  <div class="table__cell table__cell--participant"><a class="tableCellParticipant__name" title="Glasgow Warriors">Glasgow</a></div>
  <span class="table__cell table__cell--value">10</span>
  <span class="table__cell table__cell--value">7</span>
  <span class="table__cell table__cell--value">1</span>
  <span class="table__cell table__cell--value">2</span>
  <span class="table__cell table__cell--value">280:190</span>
  <span class="table__cell table__cell--value table__cell--points">34</span>
</div>
</body></html>`

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

type fakeRenderer struct {
	pages map[string]string
	err   error
	seen  []Page
}

func (f *fakeRenderer) Render(_ context.Context, page Page) (string, error) {
	f.seen = append(f.seen, page)
	if f.err != nil {
		return "", f.err
	}
	return f.pages[page.URL], nil
}

func TestFirstNonEmpty(t *testing.T) {
	d := doc(t, `<div><span class="b">second</span><span class="c"> third </span></div>`)
	row := d.Find("div").First()

	assert.Equal(t, "second", FirstNonEmpty(Text(".a"), Text(".b"), Text(".c"))(row))
	assert.Equal(t, "third", FirstNonEmpty(Text(".a"), Text(".c"))(row))
	assert.Empty(t, FirstNonEmpty(Text(".a"))(row))
	assert.Empty(t, FirstNonEmpty()(row))
}

func TestBestText(t *testing.T) {
	d := doc(t, `<div>
		<a class="full" title="Stade Francais Paris">Stade F.</a>
		<a class="short" title="SF">Stade Francais</a>
		<a class="aria" aria-label="Glasgow Warriors">GLA</a>
	</div>`)
	row := d.Find("div").First()

	assert.Equal(t, "Stade Francais Paris", BestText(".full")(row))
	assert.Equal(t, "Stade Francais", BestText(".short")(row), "short attributes fall through to text")
	assert.Equal(t, "Glasgow Warriors", BestText(".aria")(row))
	assert.Empty(t, BestText(".missing")(row))
}

func TestExtractFixtures(t *testing.T) {
	rows := ExtractFixtures(doc(t, livePage))
	require.Len(t, rows, 3)

	assert.Equal(t, "Ireland", rows[0].HomeText)
	assert.Equal(t, "Italia", rows[0].AwayText)
	assert.Equal(t, "24", rows[0].ScoreHomeText)
	assert.Equal(t, "10", rows[0].ScoreAwayText)
	assert.Equal(t, "FT", rows[0].StatusText)

	assert.Equal(t, "France", rows[1].HomeText)
	assert.Equal(t, "14", rows[1].ScoreHomeText, "combined score cell is split")
	assert.Equal(t, "7", rows[1].ScoreAwayText)
	assert.Equal(t, "52'", rows[1].StatusText)

	assert.Equal(t, "Scotland", rows[2].HomeText)
	assert.Equal(t, "-", rows[2].ScoreHomeText)
	assert.Equal(t, "21.03. 17:45", rows[2].StatusText)
}

func TestExtractFixtures_FallbackRowSelector(t *testing.T) {
	rows := ExtractFixtures(doc(t, `<div id="g_9">
		<div class="event__homeParticipant">Munster</div>
		<div class="event__awayParticipant">Ulster</div>
		<div class="event__time">19:35</div>
	</div>`))
	require.Len(t, rows, 1)
	assert.Equal(t, "Munster", rows[0].HomeText)
	assert.Equal(t, "Ulster", rows[0].AwayText)
	assert.Equal(t, "19:35", rows[0].StatusText)
}

func TestIsBadTeam(t *testing.T) {
	for _, s := range []string{"", "IRE", "RUGBY UNION", "FRANCE: TOP 14", "WORLD:"} {
		assert.True(t, isBadTeam(s), s)
	}
	for _, s := range []string{"Ireland", "USA Eagles", "LEINSTER"} {
		assert.False(t, isBadTeam(s), s)
	}
}

func TestExtractItems_Results(t *testing.T) {
	items := ExtractItems(doc(t, resultsPage), models.StatusFullTime, "six-nations", "2025/2026")
	require.Len(t, items, 1, "out of range and undated rows are dropped")

	it := items[0]
	assert.Equal(t, "2026-03-14", it.MatchDate)
	assert.Equal(t, "15:00:00", it.KickoffTime)
	require.NotNil(t, it.Round)
	assert.Equal(t, 5, *it.Round)
	assert.Equal(t, 24, *it.HomeScore)
	assert.Equal(t, 10, *it.AwayScore)
	assert.Equal(t, models.StatusFullTime, it.Status)
	assert.Equal(t, "six-nations-2025-2026-2026-03-14-15-00-00-ireland-italy", it.SourceEventKey)
}

func TestExtractItems_FixturesHaveNoScores(t *testing.T) {
	items := ExtractItems(doc(t, resultsPage), models.StatusNotStarted, "six-nations", "2025/2026")
	require.Len(t, items, 2)

	assert.Nil(t, items[0].HomeScore)
	assert.Nil(t, items[0].AwayScore)
	assert.Equal(t, "2025-09-20", items[1].MatchDate, "autumn dates fall in the first season year")
	assert.Equal(t, "15:05:00", items[1].KickoffTime)
}

func TestExtractStandings(t *testing.T) {
	rows := ExtractStandings(doc(t, standingsPage))
	require.Len(t, rows, 2)

	assert.Equal(t, models.ScrapedStanding{
		Rank: 1, TeamText: "Leinster", Played: 10, Won: 9, Drawn: 0, Lost: 1,
		PointsFor: 320, PointsAgainst: 150, Points: 45,
	}, rows[0])
	assert.Equal(t, "Glasgow Warriors", rows[1].TeamText)
	assert.Equal(t, 34, rows[1].Points)
}

func TestExtractStandings_PlainTable(t *testing.T) {
	rows := ExtractStandings(doc(t, `<table><tbody>
		<tr><td>1</td><td>Pumas</td><td>6</td><td>5</td><td>0</td><td>1</td><td>180:90</td><td>24</td></tr>
	</tbody></table>`))
	require.Len(t, rows, 1)
	assert.Equal(t, "Pumas", rows[0].TeamText)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 180, rows[0].PointsFor)
	assert.Equal(t, 24, rows[0].Points)
}

func TestDetectSeason(t *testing.T) {
	assert.Equal(t, "2025/2026", DetectSeason(doc(t, resultsPage), "2024/2025"))
	assert.Equal(t, "2024/2025", DetectSeason(doc(t, `<html><body><p>no season here</p></body></html>`), "2024/2025"))
}

func TestFetcher_Fixtures(t *testing.T) {
	r := &fakeRenderer{pages: map[string]string{"https://live/six-nations": livePage}}
	f := NewFetcher(r)

	rows, err := f.Fixtures(context.Background(), "https://live/six-nations")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	require.Len(t, r.seen, 1)
	assert.Equal(t, ".event__match", r.seen[0].WaitSelector)
	assert.False(t, r.seen[0].Expand)
}

func TestFetcher_NoRows(t *testing.T) {
	f := NewFetcher(&fakeRenderer{pages: map[string]string{"u": "<html></html>"}})

	_, err := f.Fixtures(context.Background(), "u")
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = f.Standings(context.Background(), "u")
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestFetcher_RenderError(t *testing.T) {
	boom := errors.New("navigation timeout")
	f := NewFetcher(&fakeRenderer{err: boom})

	_, err := f.Fixtures(context.Background(), "u")
	assert.ErrorIs(t, err, boom)
}

func TestFetcher_Items(t *testing.T) {
	r := &fakeRenderer{pages: map[string]string{"results": resultsPage}}
	f := NewFetcher(r)

	season, items, err := f.Items(context.Background(), "results", models.StatusFullTime, "six-nations", "2024/2025")
	require.NoError(t, err)
	assert.Equal(t, "2025/2026", season)
	assert.Len(t, items, 1)
	assert.True(t, r.seen[0].Expand)
}
