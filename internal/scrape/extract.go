package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"rugbyscores/ingestion/internal/models"
	"rugbyscores/ingestion/internal/normalize"
	"rugbyscores/ingestion/internal/parse"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// maxRows bounds how many rows one page can contribute
const maxRows = 800

// maxScore rejects obviously misparsed result scores
const maxScore = 120

// RowSelectors locate fixture rows, most specific first
var RowSelectors = []string{".event__match", "[id^='g_']"}

var (
	homeName = FirstNonEmpty(
		BestText(".event__participant--home"),
		BestText(".event__homeParticipant"),
		Attr(".event__participant--home img", "alt"),
	)
	awayName = FirstNonEmpty(
		BestText(".event__participant--away"),
		BestText(".event__awayParticipant"),
		Attr(".event__participant--away img", "alt"),
	)
	homeScore = FirstNonEmpty(
		Text(".event__score--home"),
		Nth(".event__score", 0),
	)
	awayScore = FirstNonEmpty(
		Text(".event__score--away"),
		Nth(".event__score", 1),
	)
	combinedScore = FirstNonEmpty(
		Text(".event__scores"),
		Text(".event__result"),
	)
	statusText = FirstNonEmpty(
		Text(".event__stage--block"),
		Text(".event__stage"),
		Text(".event__time"),
	)

	standingTeam = FirstNonEmpty(
		BestText(".tableCellParticipant__name"),
		BestText(".table__cell--participant a"),
		BestText(".table__cell--participant"),
	)
	standingRank = FirstNonEmpty(
		Text(".tableCellRank"),
		Text(".table__cell--rank"),
	)
	standingPoints = FirstNonEmpty(
		Text(".table__cell--points"),
	)
)

var (
	combinedScoreRe = regexp.MustCompile(`^(\d{1,3})\s*[-–:]\s*(\d{1,3})$`)
	pointsForRe     = regexp.MustCompile(`^(\d+)\s*:\s*(\d+)$`)
	digitsRe        = regexp.MustCompile(`^\d{1,3}$`)
)

// region and section headers that show up where a team name is expected
var badExact = map[string]struct{}{
	"RUGBY UNION":    {},
	"SOUTH AMERICA:": {},
	"SOUTH AMERICA":  {},
	"ENGLAND:":       {},
	"FRANCE:":        {},
	"EUROPE:":        {},
	"WORLD:":         {},
	"ARGENTINA:":     {},
	"USA:":           {},
}

// ExtractFixtures reads every fixture row of a rendered live-score page
func ExtractFixtures(doc *goquery.Document) []models.ScrapedRow {
	var out []models.ScrapedRow

	rows(doc).EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i >= maxRows {
			return false
		}

		parsed, ok := fixtureRow(row)
		if ok {
			out = append(out, parsed)
		}
		return true
	})

	return out
}

func fixtureRow(row *goquery.Selection) (models.ScrapedRow, bool) {
	text := clean(row.Text())
	if isNoise(text) {
		return models.ScrapedRow{}, false
	}

	home, away := homeName(row), awayName(row)
	if isBadTeam(home) || isBadTeam(away) {
		return models.ScrapedRow{}, false
	}

	sh, sa := homeScore(row), awayScore(row)
	if sh == "" && sa == "" {
		if m := combinedScoreRe.FindStringSubmatch(combinedScore(row)); m != nil {
			sh, sa = m[1], m[2]
		}
	}

	return models.ScrapedRow{
		HomeText:      home,
		AwayText:      away,
		ScoreHomeText: sh,
		ScoreAwayText: sa,
		StatusText:    statusText(row),
		RowText:       text,
	}, true
}

// ExtractItems reads a results or fixtures listing into backfill items.
// Results keep only rows with two plausible scores; fixtures never carry
// scores. Rows without a recognizable date are dropped.
func ExtractItems(doc *goquery.Document, status models.MatchStatus, competition, season string) []models.FixtureItem {
	var out []models.FixtureItem
	dropped := 0

	for _, row := range ExtractFixtures(doc) {
		item, ok := fixtureItem(row, status, competition, season)
		if !ok {
			dropped++
			continue
		}
		out = append(out, item)
	}

	if dropped > 0 {
		log.Debug().
			Str("competition", competition).
			Str("status", string(status)).
			Int("dropped", dropped).
			Msg("Rows dropped during item extraction")
	}
	return out
}

func fixtureItem(row models.ScrapedRow, status models.MatchStatus, competition, season string) (models.FixtureItem, bool) {
	month, day, ok := parse.DayMonth(row.RowText)
	if !ok {
		return models.FixtureItem{}, false
	}
	date, err := parse.MatchDate(season, month, day)
	if err != nil {
		return models.FixtureItem{}, false
	}

	item := models.FixtureItem{
		Round:       parse.Round(row.RowText),
		MatchDate:   date,
		KickoffTime: parse.KickoffTime(row.RowText),
		Home:        row.HomeText,
		Away:        row.AwayText,
		Status:      status,
	}

	if status == models.StatusFullTime {
		home, away := resultScore(row.ScoreHomeText), resultScore(row.ScoreAwayText)
		if home == nil || away == nil {
			return models.FixtureItem{}, false
		}
		item.HomeScore, item.AwayScore = home, away
	}

	item.SourceEventKey = EventKey(competition, season, item.MatchDate, item.KickoffTime, item.Home, item.Away)
	return item, true
}

func resultScore(s string) *int {
	if !digitsRe.MatchString(s) {
		return nil
	}
	v := parse.Score(s)
	if v == nil || *v > maxScore {
		return nil
	}
	return v
}

// EventKey is the stable source key stored with imported matches
func EventKey(competition, season, date, kickoff, home, away string) string {
	return normalize.Slugify(strings.Join([]string{competition, season, date, kickoff, home, away}, "|"))
}

// ExtractStandings reads a standings table. Cell layout is
// rank, team, played, won, drawn, lost, "for:against", ..., points.
func ExtractStandings(doc *goquery.Document) []models.ScrapedStanding {
	var out []models.ScrapedStanding

	sel := doc.Find(".ui-table__row")
	if sel.Length() == 0 {
		sel = doc.Find("table tbody tr")
	}

	sel.Each(func(i int, row *goquery.Selection) {
		team := standingTeam(row)
		if team == "" {
			team = clean(row.Find("td").Eq(1).Text())
		}
		if isBadTeam(team) {
			return
		}

		values := valueCells(row)
		if len(values) < 4 {
			return
		}

		st := models.ScrapedStanding{
			Rank:     atoi(strings.TrimSuffix(standingRank(row), ".")),
			TeamText: team,
			Played:   atoi(values[0]),
			Won:      atoi(values[1]),
			Drawn:    atoi(values[2]),
			Lost:     atoi(values[3]),
		}
		if st.Rank == 0 {
			st.Rank = i + 1
		}

		for _, v := range values[4:] {
			if m := pointsForRe.FindStringSubmatch(v); m != nil {
				st.PointsFor, st.PointsAgainst = atoi(m[1]), atoi(m[2])
				break
			}
		}

		if p := standingPoints(row); p != "" {
			st.Points = atoi(p)
		} else {
			st.Points = atoi(values[len(values)-1])
		}

		out = append(out, st)
	})

	return out
}

func valueCells(row *goquery.Selection) []string {
	cells := row.Find(".table__cell--value")
	if cells.Length() == 0 {
		// plain tables: skip rank and team columns
		cells = row.Find("td").Slice(2, goquery.ToEnd)
	}

	var out []string
	cells.Each(func(_ int, c *goquery.Selection) {
		if v := clean(c.Text()); v != "" {
			out = append(out, v)
		}
	})
	return out
}

// DetectSeason finds a season label in the page heading
func DetectSeason(doc *goquery.Document, fallback string) string {
	for _, sel := range []string{".heading__info", ".heading__name", "header", "body"} {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if name, ok := parse.SeasonName(clean(el.Text())); ok {
			return name
		}
	}
	return fallback
}

func rows(doc *goquery.Document) *goquery.Selection {
	for _, sel := range RowSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return doc.Find(RowSelectors[0])
}

func isNoise(text string) bool {
	return text == "" ||
		strings.Contains(text, "Advertisement") ||
		strings.Contains(text, "We Care About Your Privacy")
}

func isBadTeam(s string) bool {
	if len(s) <= 3 {
		return true
	}
	if _, bad := badExact[s]; bad {
		return true
	}
	return isUpper(s) && len(s) <= 25 && strings.ContainsAny(s, ": ")
}

func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter && strings.ToUpper(s) == s
}

func atoi(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
