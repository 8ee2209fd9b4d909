package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var (
	kickoffRe    = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})(?:\s?(AM|PM))?\b`)
	monthDayRe   = regexp.MustCompile(`(?i)\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+(\d{1,2})\b`)
	dottedDateRe = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.`)
	roundRe      = regexp.MustCompile(`(?i)\bRound\s+(\d+)`)
	seasonRe     = regexp.MustCompile(`\b(20\d{2})\s*[/-]\s*(20\d{2}|\d{2})\b`)
	yearRe       = regexp.MustCompile(`\b(20\d{2})\b`)
)

// KickoffTime extracts the first HH:MM (optionally AM/PM) in text as
// HH:MM:00. Rows without a time get midnight.
func KickoffTime(text string) string {
	m := kickoffRe.FindStringSubmatch(text)
	if m == nil {
		return "00:00:00"
	}

	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	switch strings.ToUpper(m[3]) {
	case "PM":
		if hh != 12 {
			hh += 12
		}
	case "AM":
		if hh == 12 {
			hh = 0
		}
	}
	if hh > 23 || mm > 59 {
		return "00:00:00"
	}
	return fmt.Sprintf("%02d:%02d:00", hh, mm)
}

// DayMonth finds a "Mar 14" or "14.03." date in text
func DayMonth(text string) (time.Month, int, bool) {
	if m := monthDayRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[2])
		if day >= 1 && day <= 31 {
			return months[strings.ToLower(m[1][:3])], day, true
		}
	}

	if m := dottedDateRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if day >= 1 && day <= 31 && month >= 1 && month <= 12 {
			return time.Month(month), day, true
		}
	}

	return 0, 0, false
}

// Round extracts "Round N" from text
func Round(text string) *int {
	m := roundRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// SeasonName finds a "2025/2026" style season label in text
func SeasonName(text string) (string, bool) {
	m := seasonRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	start, _ := strconv.Atoi(m[1])
	end := expandYear(m[2], start)
	if end != start+1 {
		return "", false
	}
	return fmt.Sprintf("%d/%d", start, end), true
}

// SeasonFallback names the season running at now. Seasons turn over in July.
func SeasonFallback(now time.Time) string {
	y := now.Year()
	if now.Month() >= time.July {
		return fmt.Sprintf("%d/%d", y, y+1)
	}
	return fmt.Sprintf("%d/%d", y-1, y)
}

// MatchDate places a day/month inside a season. Months from July onwards
// belong to the first year of a split season.
func MatchDate(season string, month time.Month, day int) (string, error) {
	start, end, ok := SeasonYears(season)
	if !ok {
		return "", fmt.Errorf("season %q has no year", season)
	}

	year := end
	if month >= time.July {
		year = start
	}

	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day {
		return "", fmt.Errorf("invalid date %d-%02d-%02d", year, month, day)
	}
	return d.Format("2006-01-02"), nil
}

// SeasonYears parses "2025/2026", "2025-26" or "2025". A single year is both
// start and end.
func SeasonYears(name string) (int, int, bool) {
	if m := seasonRe.FindStringSubmatch(name); m != nil {
		start, _ := strconv.Atoi(m[1])
		return start, expandYear(m[2], start), true
	}
	if m := yearRe.FindStringSubmatch(name); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y, y, true
	}
	return 0, 0, false
}

// SeasonRecency orders season names: higher is more recent. Names without a
// year sort below everything else.
func SeasonRecency(name string) int {
	start, end, ok := SeasonYears(name)
	if !ok {
		return -1
	}
	return end*10000 + start
}

func expandYear(s string, start int) int {
	v, _ := strconv.Atoi(s)
	if len(s) == 2 {
		century := start / 100 * 100
		v += century
		if v < start {
			v += 100
		}
	}
	return v
}
