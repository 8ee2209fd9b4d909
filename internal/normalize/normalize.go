// Package normalize canonicalizes free-text team names and resolves them to
// stored team ids through an alias table and a token-overlap fallback.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var apostrophes = strings.NewReplacer(
	"’", "'", // right single quotation mark
	"‘", "'",
	"‛", "'",
	"ʼ", "'",
	"′", "'",
	"´", "'",
	"`", "'",
)

// Normalize returns the comparison key for a team name: apostrophe variants
// unified, lower-cased, diacritics stripped, whitespace collapsed and trimmed.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = apostrophes.Replace(s)
	s = strings.ToLower(s)
	s = stripDiacritics(s)
	// compatibility decompositions can yield upper-case letters (ℌ) and
	// backticks (U+1FEF), so both passes run again on the folded form
	s = strings.ToLower(s)
	s = apostrophes.Replace(s)
	return collapseWhitespace(s)
}

func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFKD.String(s) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Tokens splits a normalized key on anything that is not a letter or digit
// and keeps the distinct tokens of at least minLen runes.
func Tokens(key string, minLen int) []string {
	fields := strings.FieldsFunc(key, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < minLen {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Score rates how well two normalized keys match: +2 when one contains the
// other, +1 for every shared token of three or more runes.
func Score(a, b string) int {
	if a == "" || b == "" {
		return 0
	}

	score := 0
	if strings.Contains(a, b) || strings.Contains(b, a) {
		score += 2
	}

	bTokens := make(map[string]struct{})
	for _, t := range Tokens(b, 3) {
		bTokens[t] = struct{}{}
	}
	for _, t := range Tokens(a, 3) {
		if _, ok := bTokens[t]; ok {
			score++
		}
	}
	return score
}

// Slugify turns a name into a lower-case ASCII slug: diacritics are folded
// and every run of other characters becomes one hyphen.
func Slugify(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range Normalize(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
