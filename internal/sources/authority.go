package sources

import (
	"net/url"
	"strings"

	"github.com/bisa-app/factcheck/internal/model"
)

// Tier classifies how authoritative a reference is
type Tier int

const (
	TierUnknown   Tier = 0
	TierPrimary   Tier = 1 // Agencies, official records, academic publishers
	TierSecondary Tier = 2 // Established news and reference outlets
	TierTertiary  Tier = 3 // Everything else
)

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// Reliability is the score attached to a source of this tier
func (t Tier) Reliability() float64 {
	switch t {
	case TierPrimary:
		return 0.9
	case TierSecondary:
		return 0.75
	default:
		return 0.5
	}
}

// AuthorityConfig lists the domains known to each tier
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty"` // host -> "primary" | "secondary" | "tertiary"
}

// DefaultAuthorityConfig returns the built-in domain lists
func DefaultAuthorityConfig() AuthorityConfig {
	return AuthorityConfig{
		PrimaryDomains: []string{
			"usgs.gov",
			"nasa.gov",
			"noaa.gov",
			"who.int",
			"doi.org",
			"nature.com",
			"science.org",
		},
		SecondaryDomains: []string{
			"bbc.com",
			"bbc.co.uk",
			"reuters.com",
			"apnews.com",
			"espn.com",
			"nytimes.com",
			"wikipedia.org",
			"spacex.com",
		},
	}
}

// AuthorityClassifier assigns tiers to reference URLs
type AuthorityClassifier struct {
	domainMap map[string]Tier
	primary   []string
	secondary []string
}

// NewAuthorityClassifier creates a classifier; a nil config uses the defaults
func NewAuthorityClassifier(config *AuthorityConfig) *AuthorityClassifier {
	if config == nil {
		def := DefaultAuthorityConfig()
		config = &def
	}

	classifier := &AuthorityClassifier{
		domainMap: make(map[string]Tier, len(config.DomainMap)),
		primary:   normalizeDomains(config.PrimaryDomains),
		secondary: normalizeDomains(config.SecondaryDomains),
	}
	for host, tier := range config.DomainMap {
		classifier.domainMap[strings.ToLower(host)] = parseTier(tier)
	}
	return classifier
}

// Classify returns the tier of rawURL. Unparsable URLs are tertiary.
func (a *AuthorityClassifier) Classify(rawURL string) Tier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return TierTertiary
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	if tier, ok := a.domainMap[host]; ok {
		return tier
	}
	if matchesDomain(host, a.primary) {
		return TierPrimary
	}
	if matchesDomain(host, a.secondary) {
		return TierSecondary
	}

	// Government and academic hosts
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return TierPrimary
	}

	return TierTertiary
}

// SourceFor builds a source entry for a cited URL, titled by its host
func (a *AuthorityClassifier) SourceFor(rawURL string) model.Source {
	title := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Hostname() != "" {
		title = strings.TrimPrefix(parsed.Hostname(), "www.")
	}
	return model.Source{
		Title:       title,
		URL:         rawURL,
		Reliability: a.Classify(rawURL).Reliability(),
	}
}

func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

func parseTier(tier string) Tier {
	switch strings.ToLower(tier) {
	case "primary", "1":
		return TierPrimary
	case "secondary", "2":
		return TierSecondary
	default:
		return TierTertiary
	}
}
