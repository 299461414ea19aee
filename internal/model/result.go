package model

import (
	"strings"
	"time"
)

// ConfidenceLevel is a three-band summary of the accuracy score
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// ValidityStatus is the five-way classification shown to end users
type ValidityStatus string

const (
	ValidityTrue          ValidityStatus = "TRUE"
	ValidityFalse         ValidityStatus = "FALSE"
	ValidityMisleading    ValidityStatus = "MISLEADING"
	ValidityPartiallyTrue ValidityStatus = "PARTIALLY_TRUE"
	ValidityUnverifiable  ValidityStatus = "UNVERIFIABLE"

	// ValidityNotChecked is reported by status reads when no run has completed
	ValidityNotChecked ValidityStatus = "NOT_CHECKED"
)

// RunStatus is the lifecycle state of a single fact-check run
type RunStatus string

const (
	RunNone      RunStatus = "NONE" // Never persisted; no run exists for the post
	RunPending   RunStatus = "PENDING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
)

// IsFinal reports whether the run can no longer change
func (s RunStatus) IsFinal() bool {
	return s == RunCompleted || s == RunFailed
}

// NoCorrections is the sentinel stored when every claim was verified
const NoCorrections = "No corrections identified"

// Source is a supporting reference for a fact-check
type Source struct {
	Title       string  `json:"title" yaml:"title"`
	URL         string  `json:"url" yaml:"url"`
	Reliability float64 `json:"reliability" yaml:"reliability"`
}

// FactCheckResult is one run outcome. Once RunStatus is final it is never mutated.
type FactCheckResult struct {
	ID              string          `json:"id"`
	PostID          string          `json:"postId"`
	AccuracyScore   float64         `json:"accuracyScore"`
	ValidityStatus  ValidityStatus  `json:"validityStatus,omitempty"`
	ConfidenceLevel ConfidenceLevel `json:"confidenceLevel,omitempty"`
	AIAnalysis      string          `json:"aiAnalysis"`
	Claims          []ClaimVerdict  `json:"claims"`
	Sources         []Source        `json:"sources"`
	SourcesCited    string          `json:"sourcesCited"`
	Corrections     []string        `json:"corrections"`
	Reasoning       string          `json:"reasoning"`
	CheckedBy       string          `json:"checkedBy"`
	CheckedAt       time.Time       `json:"checkedAt"`
	FinishedAt      *time.Time      `json:"finishedAt,omitempty"`
	RunStatus       RunStatus       `json:"runStatus"`
	ErrorDetail     string          `json:"errorDetail,omitempty"`
}

// Clone returns a deep copy so callers can never alias stored state
func (r *FactCheckResult) Clone() *FactCheckResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Claims = append([]ClaimVerdict(nil), r.Claims...)
	c.Sources = append([]Source(nil), r.Sources...)
	c.Corrections = append([]string(nil), r.Corrections...)
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}

// FlattenSources joins source titles the way the mobile client displays them
func FlattenSources(sources []Source) string {
	titles := make([]string, 0, len(sources))
	for _, s := range sources {
		titles = append(titles, s.Title)
	}
	return strings.Join(titles, ", ")
}

// Status summarizes the fact-check state of a post
type Status struct {
	PostID          string          `json:"postId"`
	RunStatus       RunStatus       `json:"runStatus"` // State of the most recent run
	HasFactCheck    bool            `json:"hasFactCheck"`
	LastChecked     *time.Time      `json:"lastChecked"`
	ValidityStatus  ValidityStatus  `json:"validityStatus"`
	AccuracyScore   *float64        `json:"accuracyScore"`
	ConfidenceLevel ConfidenceLevel `json:"confidenceLevel,omitempty"`
}
