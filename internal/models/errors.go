package models

import "errors"

// Error taxonomy for the ingestion and query core. Callers distinguish
// "fix your input" (format, config, mismatch) from "try again"
// (timeout) from "system problem" (storage, persistence, corruption)
// with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrSessionNotFound   = errors.New("session not found")
	ErrIndexNotFound     = errors.New("index not found")
	ErrIndexCorrupt      = errors.New("index corrupt")
	ErrModelMismatch     = errors.New("embedding model mismatch")
	ErrIndexPersistence  = errors.New("index persistence failed")
	ErrStorage           = errors.New("storage error")
	ErrProviderTimeout   = errors.New("provider timeout")
	ErrGeneration        = errors.New("generation failed")
)
