package domain

import "errors"

// Failure classes shared by both pipelines. Stages wrap these with context
// and the HTTP layers map them to status codes with errors.Is.
var (
	ErrModelUnavailable     = errors.New("model unavailable")
	ErrFeatureMismatch      = errors.New("feature mismatch")
	ErrInvalidHistoryLength = errors.New("invalid history length")
	ErrNoCandidates         = errors.New("no cost candidates")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrUnexpectedProcessing = errors.New("unexpected processing error")
)
