package ingestion

import "errors"

var (
	// ErrReviewRepositoryRequired is returned when a review repository is not provided.
	ErrReviewRepositoryRequired = errors.New("review repository required")

	// ErrNoReviews is returned when Ingest is called without reviews.
	ErrNoReviews = errors.New("no reviews to ingest")
)
