package embedcache

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRepositoryRequired is returned when a Manager is built without a repository.
	ErrRepositoryRequired = errors.New("review repository required")

	// ErrEmbedderRequired is returned when a Manager is built without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")
)
