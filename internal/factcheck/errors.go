package factcheck

import (
	"errors"

	"github.com/bisa-app/factcheck/internal/pipeline"
)

var (
	// ErrInvalidInput is returned for an empty post id or blank content.
	// Nothing is persisted.
	ErrInvalidInput = errors.New("invalid fact-check input")

	// ErrAlreadyInProgress is returned when the post already has a run in
	// flight. Callers should poll the status instead of retrying at once.
	ErrAlreadyInProgress = errors.New("fact-check already in progress")

	// ErrBackendTimeout and ErrBackend come from the AI backend; the run
	// is persisted as FAILED.
	ErrBackendTimeout = pipeline.ErrBackendTimeout
	ErrBackend        = pipeline.ErrBackend
)
