package normalize

import (
	"sort"
	"strings"

	"rugbyscores/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// DefaultMinScore is the lowest fuzzy score accepted as a match
const DefaultMinScore = 2

// Method records how a name was resolved
type Method string

const (
	MethodAlias Method = "alias"
	MethodExact Method = "exact"
	MethodFuzzy Method = "fuzzy"
)

type canonical struct {
	key  string
	id   int
	name string
}

// Resolver maps scraped team names to team ids. It is built fresh for each
// run and is not safe for concurrent use.
type Resolver struct {
	aliases   map[string]int
	exact     map[string]int
	canonical []canonical
	minScore  int
	unmapped  map[string]int
}

// UnmappedName is a raw name that could not be resolved, with the closest
// canonical name for the operator to add as an alias
type UnmappedName struct {
	Raw        string
	Count      int
	Suggestion string
	Score      int
}

// NewResolver indexes teams by normalized name and slug. aliases maps a source
// spelling to a canonical team name; entries naming an unknown team are logged
// and ignored.
func NewResolver(teams []models.Team, aliases map[string]string, minScore int) *Resolver {
	r := &Resolver{
		aliases:  make(map[string]int),
		exact:    make(map[string]int, len(teams)),
		minScore: minScore,
		unmapped: make(map[string]int),
	}

	for _, t := range teams {
		key := Normalize(t.Name)
		if key == "" {
			continue
		}
		if _, dup := r.exact[key]; !dup {
			r.exact[key] = t.ID
		}
		if t.Slug.Valid {
			slugKey := Normalize(strings.ReplaceAll(t.Slug.String, "-", " "))
			if _, dup := r.exact[slugKey]; !dup && slugKey != "" {
				r.exact[slugKey] = t.ID
			}
		}
		for _, a := range t.Aliases {
			r.addAlias(a, t.ID)
		}
		r.canonical = append(r.canonical, canonical{key: key, id: t.ID, name: t.Name})
	}

	sort.Slice(r.canonical, func(i, j int) bool {
		if r.canonical[i].key != r.canonical[j].key {
			return r.canonical[i].key < r.canonical[j].key
		}
		return r.canonical[i].id < r.canonical[j].id
	})

	keys := make([]string, 0, len(aliases))
	for alias := range aliases {
		keys = append(keys, alias)
	}
	sort.Strings(keys)

	for _, alias := range keys {
		teamName := aliases[alias]
		id, ok := r.exact[Normalize(teamName)]
		if !ok {
			log.Warn().
				Str("alias", alias).
				Str("team", teamName).
				Msg("Alias points at unknown team, ignoring")
			continue
		}
		r.addAlias(alias, id)
	}

	return r
}

func (r *Resolver) addAlias(alias string, id int) {
	if alias == "" {
		return
	}
	r.aliases[alias] = id
	r.aliases[Normalize(alias)] = id
}

// Lookup resolves raw without recording misses
func (r *Resolver) Lookup(raw string) (int, Method, bool) {
	key := Normalize(raw)
	if key == "" {
		return 0, "", false
	}

	if id, ok := r.aliases[raw]; ok {
		return id, MethodAlias, true
	}
	if id, ok := r.aliases[key]; ok {
		return id, MethodAlias, true
	}
	if id, ok := r.exact[key]; ok {
		return id, MethodExact, true
	}

	best, score := r.best(key)
	if best == nil || score < r.minScore {
		return 0, "", false
	}
	return best.id, MethodFuzzy, true
}

// Resolve returns the team id for raw. Misses are counted for Unmapped.
func (r *Resolver) Resolve(raw string) (int, bool) {
	id, method, ok := r.Lookup(raw)
	if !ok {
		r.unmapped[strings.TrimSpace(raw)]++
		return 0, false
	}

	if method == MethodFuzzy {
		log.Debug().
			Str("raw", raw).
			Int("team_id", id).
			Msg("Team resolved by fuzzy match")
	}
	return id, true
}

// Suggest returns the best canonical name for raw regardless of the threshold
func (r *Resolver) Suggest(raw string) (string, int) {
	best, score := r.best(Normalize(raw))
	if best == nil {
		return "", 0
	}
	return best.name, score
}

func (r *Resolver) best(key string) (*canonical, int) {
	var best *canonical
	bestScore := 0
	for i := range r.canonical {
		s := Score(key, r.canonical[i].key)
		if s > bestScore {
			best = &r.canonical[i]
			bestScore = s
		}
	}
	return best, bestScore
}

// Unmapped returns every name that failed to resolve, most frequent first
func (r *Resolver) Unmapped() []UnmappedName {
	out := make([]UnmappedName, 0, len(r.unmapped))
	for raw, count := range r.unmapped {
		suggestion, score := r.Suggest(raw)
		out = append(out, UnmappedName{Raw: raw, Count: count, Suggestion: suggestion, Score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Raw < out[j].Raw
	})
	return out
}
