package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider is an external AI verification backend. Its suggestions enrich
// the heuristic verdicts and never replace them.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Verify asks the backend for a verdict on the post content
	Verify(ctx context.Context, req VerifyRequest) (*Suggestion, error)
}

// VerifyRequest is the input to an AI verification call
type VerifyRequest struct {
	// Content is the full post text
	Content string

	// Claims are the extracted claim sentences, in order
	Claims []string
}

// Verdict is the backend's overall call on the content
type Verdict string

const (
	VerdictTrue    Verdict = "TRUE"
	VerdictFalse   Verdict = "FALSE"
	VerdictUnclear Verdict = "UNCLEAR"
)

// Suggestion is the parsed reply of a verification call
type Suggestion struct {
	Verdict    Verdict  `json:"verdict"`
	Confidence string   `json:"confidence"` // High, Medium, Low or "Not specified"
	Reasoning  string   `json:"reasoning"`
	Sources    []string `json:"sources"`
	CitedURLs  []string `json:"citedUrls"`
	Model      string   `json:"model"`
	TokensUsed int      `json:"tokensUsed"`
	Cached     bool     `json:"-"`
}

// Summary renders the suggestion as the aiAnalysis text of a result
func (s *Suggestion) Summary() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "AI verdict: %s (confidence: %s).", s.Verdict, s.Confidence)
	if s.Reasoning != "" {
		b.WriteString(" ")
		b.WriteString(s.Reasoning)
	}
	return b.String()
}

// maxPromptClaims bounds how many claims are listed in the prompt
const maxPromptClaims = 10

// BuildPrompt constructs the verification prompt in the reply format ParseReply reads
func BuildPrompt(req VerifyRequest) string {
	var b strings.Builder
	b.WriteString(`You are a professional fact-checking assistant. Analyze the following post and provide a clear, structured response.

Post:
"""
`)
	b.WriteString(strings.TrimSpace(req.Content))
	b.WriteString("\n\"\"\"\n")

	if len(req.Claims) > 0 {
		b.WriteString("\nFactual claims identified in the post:\n")
		for i, claim := range req.Claims {
			if i >= maxPromptClaims {
				fmt.Fprintf(&b, "... and %d more\n", len(req.Claims)-maxPromptClaims)
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, claim)
		}
	}

	b.WriteString(`
Please provide your analysis in this exact format:

Verdict: [TRUE/FALSE]
Confidence: [High/Medium/Low]
Reasoning: [Brief, clear explanation in 2-3 sentences]

Sources:
- [1-3 credible sources with URLs if available]

Keep your response concise and professional.
`)
	return b.String()
}
