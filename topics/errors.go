package topics

import "errors"

var (
	// ErrReviewRepositoryRequired is returned when a review repository is not provided.
	ErrReviewRepositoryRequired = errors.New("review repository required")

	// ErrEmbeddingCacheRequired is returned when an embedding cache manager is not provided.
	ErrEmbeddingCacheRequired = errors.New("embedding cache manager required")

	// ErrInvalidK is returned when k-means is asked for an impossible cluster count.
	ErrInvalidK = errors.New("invalid cluster count")
)
