// Package parse turns raw scraped text into typed match fields.
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"rugbyscores/ingestion/internal/models"
	"rugbyscores/ingestion/internal/normalize"
)

// StatusResult is the parsed form of a status/time cell.
// Minute is only ever set for LIVE.
type StatusResult struct {
	Status models.MatchStatus
	Minute *int
}

var (
	cancelledRe = regexp.MustCompile(`\b(postponed|postp|cancell?ed|canc|abandoned|aband|suspended|interrupted|delayed|aplazado|postergado|suspendido|cancelado|interrumpido|abandonado)\b`)
	fullTimeRe  = regexp.MustCompile(`\b(ft|full[ -]?time|finished|final result|ended|aet|a\.e\.t|after extra time|after et|after pen|after penalties|final|awarded|walkover|finalizado|terminado|final del partido)\b`)
	liveRe      = regexp.MustCompile(`\b(live|ht|half[ -]?time|1st half|2nd half|first half|second half|extra time|break time|en vivo|en juego|descanso|entretiempo|medio tiempo|1er tiempo|2do tiempo)\b`)
	minuteRe    = regexp.MustCompile(`(\d{1,3})(?:\s*\+\s*(\d{1,2}))?\s*['’′]`)
	digitsRe    = regexp.MustCompile(`^\d+$`)
)

// Status maps a raw status/time cell to a status and optional minute.
// Cancellation vocabulary wins over everything, then full time, then live.
// Anything else, including a kickoff time, is NOT_STARTED.
func Status(raw string) StatusResult {
	text := normalize.Normalize(raw)

	switch {
	case text == "":
		return StatusResult{Status: models.StatusNotStarted}
	case cancelledRe.MatchString(text):
		return StatusResult{Status: models.StatusNotStarted}
	case fullTimeRe.MatchString(text):
		return StatusResult{Status: models.StatusFullTime}
	}

	// Normalize folds apostrophe variants to '
	if m := minuteRe.FindStringSubmatch(text); m != nil {
		return StatusResult{Status: models.StatusLive, Minute: minute(m[1], m[2])}
	}
	if liveRe.MatchString(text) {
		return StatusResult{Status: models.StatusLive}
	}

	return StatusResult{Status: models.StatusNotStarted}
}

func minute(base, added string) *int {
	m, err := strconv.Atoi(base)
	if err != nil {
		return nil
	}
	if added != "" {
		if a, err := strconv.Atoi(added); err == nil {
			m += a
		}
	}
	return &m
}

// Score parses a score cell. Anything that is not purely decimal digits,
// including the dash shown before kickoff, is unknown.
func Score(raw string) *int {
	s := strings.TrimSpace(raw)
	switch s {
	case "", "-", "–", "—", "?":
		return nil
	}
	if !digitsRe.MatchString(s) {
		return nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}
