package llm

import (
	"regexp"
	"strings"
)

var (
	verdictPattern    = regexp.MustCompile(`(?i)verdict:\s*(true|false)`)
	confidencePattern = regexp.MustCompile(`(?i)confidence[:\s]+(high|medium|low)`)
	reasoningPattern  = regexp.MustCompile(`(?is)reasoning:\s*(.*?)(?:\n\s*\n|\n\s*(?:known sources|sources|references)\s*:|\z)`)
	sourcesPattern    = regexp.MustCompile(`(?is)(?:^|\n)\s*(?:known sources|sources|references)\s*:\s*(.*)\z`)
	bulletPattern     = regexp.MustCompile(`\n\s*[*\-•]`)
	urlPattern        = regexp.MustCompile(`https?://[^\s)\]>"]+`)
)

// maxReplySources bounds the sources kept from a reply
const maxReplySources = 3

// NoSourcesProvided is the placeholder used when a reply lists no sources
const NoSourcesProvided = "No specific sources provided"

// ParseReply extracts verdict, confidence, reasoning and sources from a
// backend reply. Missing fields degrade to UNCLEAR and "Not specified".
func ParseReply(raw string) Suggestion {
	raw = strings.TrimSpace(raw)
	s := Suggestion{
		Verdict:    VerdictUnclear,
		Confidence: "Not specified",
		CitedURLs:  extractURLs(raw),
	}

	if m := verdictPattern.FindStringSubmatch(raw); m != nil {
		s.Verdict = Verdict(strings.ToUpper(m[1]))
	}
	if m := confidencePattern.FindStringSubmatch(raw); m != nil {
		level := strings.ToLower(m[1])
		s.Confidence = strings.ToUpper(level[:1]) + level[1:]
	}

	if m := reasoningPattern.FindStringSubmatch(raw); m != nil {
		s.Reasoning = strings.TrimSpace(m[1])
	} else {
		s.Reasoning = raw
	}

	if m := sourcesPattern.FindStringSubmatch(raw); m != nil {
		s.Sources = splitSources(m[1])
	}
	if len(s.Sources) == 0 {
		s.Sources = []string{NoSourcesProvided}
	}
	return s
}

func splitSources(text string) []string {
	var out []string
	for _, part := range bulletPattern.Split("\n"+text, -1) {
		part = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(part), "*-•"))
		if part == "" {
			continue
		}
		out = append(out, part)
		if len(out) == maxReplySources {
			break
		}
	}
	return out
}

// extractURLs returns the distinct http(s) URLs in text, in order
func extractURLs(text string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, u := range urlPattern.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;:!?'")
		if !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}
	return unique
}
