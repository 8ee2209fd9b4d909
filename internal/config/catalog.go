package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CompetitionEntry describes one competition known to the pipeline.
// SourcePath is the "<region>/<competition>" part of a source URL after
// "rugby-union/". Qualify and Relegate are standings badge thresholds.
type CompetitionEntry struct {
	Slug       string `yaml:"slug"`
	SourcePath string `yaml:"source_path"`
	Qualify    int    `yaml:"qualify"`
	Relegate   int    `yaml:"relegate"`
}

// Catalog is the operator-maintained lookup data: URL to slug mapping,
// team name aliases and badge thresholds
type Catalog struct {
	Competitions []CompetitionEntry `yaml:"competitions"`
	Aliases      map[string]string  `yaml:"aliases"`
}

// DefaultCatalog returns the compiled-in catalog
func DefaultCatalog() *Catalog {
	return &Catalog{
		Competitions: []CompetitionEntry{
			{Slug: "six-nations", SourcePath: "europe/six-nations"},
			{Slug: "six-nations-u20", SourcePath: "europe/six-nations-u20"},
			{Slug: "champions-cup", SourcePath: "europe/champions-cup", Qualify: 4},
			{Slug: "challenge-cup", SourcePath: "europe/challenge-cup", Qualify: 4},
			{Slug: "urc", SourcePath: "europe/united-rugby-championship", Qualify: 8},
			{Slug: "premiership", SourcePath: "england/premiership-rugby", Qualify: 4},
			{Slug: "top-14", SourcePath: "france/top-14", Qualify: 6, Relegate: 1},
			{Slug: "pro-d2", SourcePath: "france/pro-d2", Qualify: 6, Relegate: 2},
			{Slug: "super-rugby", SourcePath: "australia/super-rugby", Qualify: 6},
			{Slug: "rugby-championship", SourcePath: "world/rugby-championship"},
			{Slug: "world-cup", SourcePath: "world/world-cup", Qualify: 2},
			{Slug: "super-rugby-americas", SourcePath: "south-america/super-rugby-americas", Qualify: 4},
			{Slug: "top-12-urba", SourcePath: "argentina/top-12", Qualify: 4, Relegate: 2},
			{Slug: "mlr", SourcePath: "usa/major-league-rugby", Qualify: 6},
		},
		Aliases: map[string]string{
			"Irlanda":        "Ireland",
			"Italia":         "Italy",
			"Francia":        "France",
			"Inglaterra":     "England",
			"Escocia":        "Scotland",
			"Gales":          "Wales",
			"Nueva Zelanda":  "New Zealand",
			"Sudáfrica":      "South Africa",
			"Estados Unidos": "USA",
			"Japón":          "Japan",
			"Irlanda U20":    "Ireland U20",
			"Italia U20":     "Italy U20",
			"Francia U20":    "France U20",
			"Inglaterra U20": "England U20",
			"Escocia U20":    "Scotland U20",
			"Gales U20":      "Wales U20",
		},
	}
}

// LoadCatalog reads a YAML catalog and merges it over the defaults. Entries
// with the same slug replace the default; aliases are added or overridden.
// An empty path returns the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	catalog := DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return catalog, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var file Catalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	catalog.merge(&file)
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return catalog, nil
}

func (c *Catalog) merge(other *Catalog) {
	index := make(map[string]int, len(c.Competitions))
	for i, entry := range c.Competitions {
		index[entry.Slug] = i
	}
	for _, entry := range other.Competitions {
		if i, ok := index[entry.Slug]; ok {
			c.Competitions[i] = entry
			continue
		}
		index[entry.Slug] = len(c.Competitions)
		c.Competitions = append(c.Competitions, entry)
	}

	if c.Aliases == nil {
		c.Aliases = make(map[string]string, len(other.Aliases))
	}
	for alias, team := range other.Aliases {
		c.Aliases[alias] = team
	}
}

// Validate checks for empty slugs and negative thresholds
func (c *Catalog) Validate() error {
	for _, entry := range c.Competitions {
		if strings.TrimSpace(entry.Slug) == "" {
			return fmt.Errorf("competition with source_path %q has no slug", entry.SourcePath)
		}
		if entry.Qualify < 0 || entry.Relegate < 0 {
			return fmt.Errorf("competition %s has a negative badge threshold", entry.Slug)
		}
	}
	return nil
}

// Competition returns the entry for slug
func (c *Catalog) Competition(slug string) (CompetitionEntry, bool) {
	for _, entry := range c.Competitions {
		if entry.Slug == slug {
			return entry, true
		}
	}
	return CompetitionEntry{}, false
}

// SlugsBySourcePath returns the URL path to slug table
func (c *Catalog) SlugsBySourcePath() map[string]string {
	out := make(map[string]string, len(c.Competitions))
	for _, entry := range c.Competitions {
		if entry.SourcePath == "" {
			continue
		}
		out[strings.Trim(strings.ToLower(entry.SourcePath), "/")] = entry.Slug
	}
	return out
}
