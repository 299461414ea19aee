package sources

import (
	"fmt"
	"os"
	"strings"

	"github.com/bisa-app/factcheck/internal/model"
	"gopkg.in/yaml.v3"
)

// Rule maps a set of topical tags to reference sources
type Rule struct {
	Tags    []string       `yaml:"tags"`
	Sources []model.Source `yaml:"sources"`
}

// Catalog is the on-disk form of extra resolver rules and authority domains
type Catalog struct {
	Rules     []Rule           `yaml:"rules"`
	Authority *AuthorityConfig `yaml:"authority,omitempty"`
}

// DefaultRules returns the built-in tag table
func DefaultRules() []Rule {
	return []Rule{
		{
			Tags: []string{"volcano", "breaking-news"},
			Sources: []model.Source{
				{Title: "US Geological Survey", URL: "https://www.usgs.gov", Reliability: 0.95},
				{Title: "BBC News", URL: "https://www.bbc.com/news", Reliability: 0.90},
			},
		},
		{
			Tags: []string{"sports", "football"},
			Sources: []model.Source{
				{Title: "ESPN", URL: "https://www.espn.com", Reliability: 0.85},
			},
		},
		{
			Tags: []string{"space", "technology"},
			Sources: []model.Source{
				{Title: "NASA", URL: "https://www.nasa.gov", Reliability: 0.95},
				{Title: "SpaceX", URL: "https://www.spacex.com", Reliability: 0.80},
			},
		},
	}
}

// LoadCatalog reads a YAML catalog file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	for i, rule := range catalog.Rules {
		if len(rule.Tags) == 0 {
			return nil, fmt.Errorf("parse catalog %s: rule %d has no tags", path, i)
		}
		for _, s := range rule.Sources {
			if s.URL == "" || s.Reliability < 0 || s.Reliability > 1 {
				return nil, fmt.Errorf("parse catalog %s: rule %d has invalid source %q", path, i, s.Title)
			}
		}
	}
	return &catalog, nil
}

// Resolver derives reference sources from post tags
type Resolver struct {
	rules []Rule
}

// NewResolver creates a resolver over the given rules, matched in order
func NewResolver(rules []Rule) *Resolver {
	normalized := make([]Rule, len(rules))
	for i, rule := range rules {
		tags := make([]string, len(rule.Tags))
		for j, tag := range rule.Tags {
			tags[j] = normalizeTag(tag)
		}
		normalized[i] = Rule{Tags: tags, Sources: append([]model.Source(nil), rule.Sources...)}
	}
	return &Resolver{rules: normalized}
}

// Resolve returns the sources of every rule sharing a tag with tags,
// deduplicated by URL in rule order. Unmatched tags yield an empty list.
func (r *Resolver) Resolve(tags []string) []model.Source {
	wanted := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if t := normalizeTag(tag); t != "" {
			wanted[t] = true
		}
	}

	out := []model.Source{}
	seen := make(map[string]bool)
	for _, rule := range r.rules {
		if !intersects(rule.Tags, wanted) {
			continue
		}
		for _, s := range rule.Sources {
			if seen[s.URL] {
				continue
			}
			seen[s.URL] = true
			out = append(out, s)
		}
	}
	return out
}

// Sources lists every distinct catalog source, for auditing
func (r *Resolver) Sources() []model.Source {
	var out []model.Source
	seen := make(map[string]bool)
	for _, rule := range r.rules {
		for _, s := range rule.Sources {
			if !seen[s.URL] {
				seen[s.URL] = true
				out = append(out, s)
			}
		}
	}
	return out
}

func intersects(tags []string, wanted map[string]bool) bool {
	for _, t := range tags {
		if wanted[t] {
			return true
		}
	}
	return false
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Build returns a resolver over the default rules followed by the rules of
// the catalog at path, and a classifier using the catalog's authority lists.
// An empty path uses the built-ins only.
func Build(path string) (*Resolver, *AuthorityClassifier, error) {
	rules := DefaultRules()
	var authority *AuthorityConfig

	if path != "" {
		catalog, err := LoadCatalog(path)
		if err != nil {
			return nil, nil, err
		}
		rules = append(rules, catalog.Rules...)
		authority = catalog.Authority
	}

	return NewResolver(rules), NewAuthorityClassifier(authority), nil
}
