// Package sources turns the configured source URL list into competition
// sources.
package sources

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrUnknownSource is returned when a URL maps to no known competition
var ErrUnknownSource = errors.New("unknown source url")

const sportSegment = "rugby-union"

// Source is one competition page to reconcile
type Source struct {
	Slug string
	URL  string
}

// Parse splits a newline or comma separated list. An entry may be prefixed
// with "slug=" to skip URL inference. Entries that map to no competition are
// logged and skipped.
func Parse(raw string, slugsByPath map[string]string) []Source {
	var out []Source
	seen := make(map[string]struct{})

	for _, entry := range split(raw) {
		slug, rawURL := splitExplicit(entry)
		if slug == "" {
			inferred, err := SlugForURL(rawURL, slugsByPath)
			if err != nil {
				log.Warn().Err(err).Str("url", rawURL).Msg("Skipping source")
				continue
			}
			slug = inferred
		}

		key := slug + " " + rawURL
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Source{Slug: slug, URL: rawURL})
	}

	return out
}

func split(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// splitExplicit separates "slug=https://..." into its parts. A "=" inside
// the URL query does not count.
func splitExplicit(entry string) (string, string) {
	i := strings.Index(entry, "=")
	if i <= 0 {
		return "", entry
	}
	prefix := entry[:i]
	if strings.Contains(prefix, "://") || strings.ContainsAny(prefix, "/?") {
		return "", entry
	}
	return strings.TrimSpace(prefix), strings.TrimSpace(entry[i+1:])
}

// SlugForURL infers the competition slug from the path segments that follow
// "rugby-union/" in a source URL
func SlugForURL(rawURL string, slugsByPath map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnknownSource, err)
	}

	segments := strings.FieldsFunc(strings.ToLower(u.Path), func(r rune) bool { return r == '/' })
	for i, seg := range segments {
		if seg != sportSegment {
			continue
		}
		if i+2 >= len(segments) {
			break
		}
		key := segments[i+1] + "/" + segments[i+2]
		if slug, ok := slugsByPath[key]; ok {
			return slug, nil
		}
		return "", fmt.Errorf("%w: no competition for %s", ErrUnknownSource, key)
	}

	return "", fmt.Errorf("%w: no %s/<region>/<competition> path", ErrUnknownSource, sportSegment)
}
