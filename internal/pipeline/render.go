package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bisa-app/factcheck/internal/model"
)

// RenderJSON writes v as indented JSON
func RenderJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// RenderSummary writes a human-readable summary of an analysis
func RenderSummary(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Validity:   %s\n", a.ValidityStatus)
	fmt.Fprintf(w, "Accuracy:   %.2f (%s)\n", a.AccuracyScore, a.ConfidenceLevel)
	fmt.Fprintf(w, "Reasoning:  %s\n", a.Reasoning)

	if len(a.Claims) > 0 {
		fmt.Fprintf(w, "\nClaims:\n")
		for _, v := range a.Claims {
			mark := "✗"
			if v.IsVerified {
				mark = "✓"
			}
			fmt.Fprintf(w, "  %s [%.2f] %s\n", mark, v.Confidence, v.Claim.Text)
			fmt.Fprintf(w, "           %s\n", v.Explanation)
		}
	}

	if len(a.Sources) > 0 {
		fmt.Fprintf(w, "\nSources:\n")
		for _, s := range a.Sources {
			fmt.Fprintf(w, "  - %s <%s> (%.2f)\n", s.Title, s.URL, s.Reliability)
		}
	}

	fmt.Fprintf(w, "\nCorrections:\n")
	for _, c := range a.Corrections {
		fmt.Fprintf(w, "  - %s\n", c)
	}

	if a.AIAnalysis != "" {
		fmt.Fprintf(w, "\nAnalysis:   %s\n", a.AIAnalysis)
	}
}

// RenderResult writes a one-block summary of a stored run
func RenderResult(w io.Writer, r *model.FactCheckResult) {
	fmt.Fprintf(w, "%s  %s  %s", r.CheckedAt.Format("2006-01-02 15:04:05Z07:00"), r.ID, r.RunStatus)
	switch r.RunStatus {
	case model.RunCompleted:
		fmt.Fprintf(w, "  %s %.2f (%s)\n", r.ValidityStatus, r.AccuracyScore, r.ConfidenceLevel)
		if r.SourcesCited != "" {
			fmt.Fprintf(w, "    sources: %s\n", r.SourcesCited)
		}
		if len(r.Corrections) > 0 && r.Corrections[0] != model.NoCorrections {
			fmt.Fprintf(w, "    corrections: %s\n", strings.Join(r.Corrections, "; "))
		}
	case model.RunFailed:
		fmt.Fprintf(w, "  %s\n", r.ErrorDetail)
	default:
		fmt.Fprintln(w)
	}
}
