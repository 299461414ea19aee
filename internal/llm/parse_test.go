package llm

import (
	"reflect"
	"testing"
)

func TestParseReply_Structured(t *testing.T) {
	s := ParseReply(etnaReply)

	if s.Verdict != VerdictTrue {
		t.Errorf("Verdict = %s, want TRUE", s.Verdict)
	}
	if s.Confidence != "High" {
		t.Errorf("Confidence = %s, want High", s.Confidence)
	}
	wantReasoning := "Mount Etna erupted in 2024 and the evacuation figures match official reports."
	if s.Reasoning != wantReasoning {
		t.Errorf("Reasoning = %q", s.Reasoning)
	}
	wantSources := []string{
		"USGS https://www.usgs.gov/volcanoes/etna",
		"BBC News https://www.bbc.com/news/world-123.",
	}
	if !reflect.DeepEqual(s.Sources, wantSources) {
		t.Errorf("Sources = %q", s.Sources)
	}
	wantURLs := []string{"https://www.usgs.gov/volcanoes/etna", "https://www.bbc.com/news/world-123"}
	if !reflect.DeepEqual(s.CitedURLs, wantURLs) {
		t.Errorf("CitedURLs = %q", s.CitedURLs)
	}
}

func TestParseReply_Unstructured(t *testing.T) {
	raw := "I cannot determine whether this is accurate."
	s := ParseReply(raw)

	if s.Verdict != VerdictUnclear {
		t.Errorf("Verdict = %s, want UNCLEAR", s.Verdict)
	}
	if s.Confidence != "Not specified" {
		t.Errorf("Confidence = %s", s.Confidence)
	}
	if s.Reasoning != raw {
		t.Errorf("Reasoning should fall back to the raw reply, got %q", s.Reasoning)
	}
	if !reflect.DeepEqual(s.Sources, []string{NoSourcesProvided}) {
		t.Errorf("Sources = %q", s.Sources)
	}
	if len(s.CitedURLs) != 0 {
		t.Errorf("Expected no URLs, got %v", s.CitedURLs)
	}
}

func TestParseReply_SourcesWordInReasoning(t *testing.T) {
	raw := "Verdict: false\nConfidence: Low\nReasoning: Multiple sources disagree with the figure."
	s := ParseReply(raw)

	if s.Verdict != VerdictFalse {
		t.Errorf("Verdict = %s, want FALSE", s.Verdict)
	}
	if s.Reasoning != "Multiple sources disagree with the figure." {
		t.Errorf("Reasoning = %q", s.Reasoning)
	}
	if !reflect.DeepEqual(s.Sources, []string{NoSourcesProvided}) {
		t.Errorf("Sources = %q", s.Sources)
	}
}

func TestParseReply_CapsSources(t *testing.T) {
	raw := "Verdict: TRUE\nKnown sources:\n* One\n* Two\n* Three\n* Four"
	s := ParseReply(raw)

	if !reflect.DeepEqual(s.Sources, []string{"One", "Two", "Three"}) {
		t.Errorf("Sources = %q", s.Sources)
	}
}

func TestExtractURLs_Deduplicates(t *testing.T) {
	got := extractURLs("See https://a.test/x, then (https://a.test/x) and https://b.test.")
	want := []string{"https://a.test/x", "https://b.test"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("extractURLs = %q, want %q", got, want)
	}
}

func TestSuggestion_Summary(t *testing.T) {
	var nilSuggestion *Suggestion
	if nilSuggestion.Summary() != "" {
		t.Error("nil suggestion should summarize to empty")
	}

	s := &Suggestion{Verdict: VerdictTrue, Confidence: "High", Reasoning: "Confirmed."}
	if got := s.Summary(); got != "AI verdict: TRUE (confidence: High). Confirmed." {
		t.Errorf("Summary = %q", got)
	}
}
