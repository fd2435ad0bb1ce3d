package common

import "errors"

// Error kinds shared by the validator, engine, workspace and orchestrator.
// Callers classify with errors.Is.
var (
	ErrInvalidURL = errors.New("invalid video url")
	ErrExtraction = errors.New("media extraction failed")
	ErrNoArtifact = errors.New("download produced no file")
	ErrUnexpected = errors.New("unexpected error")
)
