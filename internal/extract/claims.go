package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bisa-app/factcheck/internal/model"
	"golang.org/x/net/html"
)

var (
	sentenceTerminators = regexp.MustCompile(`[.!?]+`)
	markupPattern       = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)

	// Years 1500-2099; other 4-digit runs stay plain numbers
	datePattern        = regexp.MustCompile(`\b(?:1[5-9]|20)\d{2}\b|\b\d{1,2}/\d{1,2}\b`)
	digitPattern       = regexp.MustCompile(`\d+`)
	quantifierPattern  = regexp.MustCompile(`(?i)million|billion|thousand|percent|%`)
	attributionPattern = regexp.MustCompile(`(?i)\b(said|announced|reported|confirmed|stated)\b`)
)

// ClaimExtractor splits post text into candidate factual claims
type ClaimExtractor struct {
	maxClaims int
	minLength int
}

// NewClaimExtractor creates a new claim extractor.
// Non-positive limits fall back to the default profile.
func NewClaimExtractor(maxClaims, minLength int) *ClaimExtractor {
	defaults := model.DefaultProfile()
	if maxClaims <= 0 {
		maxClaims = defaults.MaxClaims
	}
	if minLength <= 0 {
		minLength = defaults.MinSentenceLength
	}
	return &ClaimExtractor{
		maxClaims: maxClaims,
		minLength: minLength,
	}
}

// Extract returns the flagged sentences of content, earliest first.
// An empty result is a valid outcome, not an error.
func (e *ClaimExtractor) Extract(content string) []model.Claim {
	text := content
	if markupPattern.MatchString(content) {
		text = visibleText(content)
	}

	claims := []model.Claim{}
	for i, sentence := range e.splitSentences(text) {
		claim := flagSentence(sentence, i)
		if !claim.HasSignal() {
			continue
		}
		claims = append(claims, claim)
		if len(claims) == e.maxClaims {
			break
		}
	}

	return claims
}

// splitSentences splits on runs of terminators and drops short fragments
func (e *ClaimExtractor) splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	for _, fragment := range sentenceTerminators.Split(text, -1) {
		fragment = strings.TrimSpace(fragment)
		if utf8.RuneCountInString(fragment) < e.minLength {
			continue
		}
		sentences = append(sentences, fragment)
	}
	return sentences
}

// flagSentence derives the heuristic feature flags of one sentence
func flagSentence(sentence string, index int) model.Claim {
	hasDate := datePattern.MatchString(sentence)

	// A year on its own counts as a date, not as a number
	withoutDates := datePattern.ReplaceAllString(sentence, " ")

	return model.Claim{
		Text:           sentence,
		Sentence:       index,
		HasNumeric:     digitPattern.MatchString(withoutDates),
		HasDate:        hasDate,
		HasQuantifier:  quantifierPattern.MatchString(sentence),
		HasAttribution: attributionPattern.MatchString(sentence),
	}
}

// visibleText extracts text nodes from rich-text content, skipping scripts/styles.
// Content that fails to parse is returned unchanged.
func visibleText(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}

	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return buf.String()
}
