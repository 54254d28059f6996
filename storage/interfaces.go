package storage

import (
	"context"
	"strings"

	"github.com/poiesic/bares/core"
)

// EmbeddingState selects reviews by whether an embedding is cached.
type EmbeddingState int

const (
	// AnyEmbedding matches every review.
	AnyEmbedding EmbeddingState = iota
	// EmbeddingPresent matches reviews with a cached embedding.
	EmbeddingPresent
	// EmbeddingMissing matches reviews without one.
	EmbeddingMissing
)

// ReviewFilter narrows FindReviews. The zero value matches everything.
type ReviewFilter struct {
	// Embedding filters on the presence of a cached embedding.
	Embedding EmbeddingState

	// HasText keeps only reviews with a non-empty body.
	HasText bool

	// NameContains is a case-insensitive substring match on Name.
	NameContains string

	// MinRating keeps reviews with rating >= MinRating.
	// Reviews without a rating never pass a rating filter.
	MinRating *float64

	// PlaceID keeps reviews of a single venue.
	PlaceID string
}

// Matches reports whether r passes every condition of f.
func (f ReviewFilter) Matches(r *core.Review) bool {
	switch f.Embedding {
	case EmbeddingPresent:
		if !r.HasEmbedding() {
			return false
		}
	case EmbeddingMissing:
		if r.HasEmbedding() {
			return false
		}
	}
	if f.HasText && !r.HasText() {
		return false
	}
	if f.NameContains != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	if f.MinRating != nil && (r.Rating == nil || *r.Rating < *f.MinRating) {
		return false
	}
	if f.PlaceID != "" && r.PlaceID != f.PlaceID {
		return false
	}
	return true
}

// ReviewRepository provides operations for managing reviews.
// Implementations must be thread-safe and support concurrent access.
type ReviewRepository interface {
	// AddReviews adds one or more reviews to storage in a single commit.
	// Always assigns a new ID from the sequence.
	// Sets CreatedAt if not already set, and UpdatedAt.
	// Returns the reviews with generated IDs and timestamps populated.
	AddReviews(ctx context.Context, reviews ...*core.Review) ([]*core.Review, error)

	// UpdateReviews replaces existing reviews in a single commit, so a batch
	// is either fully persisted or not at all.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any review doesn't exist.
	UpdateReviews(ctx context.Context, reviews ...*core.Review) ([]*core.Review, error)

	// GetReview retrieves a single review by ID.
	// Returns ErrNotFound if the review doesn't exist.
	GetReview(ctx context.Context, id core.ID) (*core.Review, error)

	// GetReviews retrieves multiple reviews by their IDs.
	// Returns only the reviews that exist (no error for missing reviews).
	GetReviews(ctx context.Context, ids ...core.ID) ([]*core.Review, error)

	// FindReviews returns every review matching filter, ordered by ID.
	FindReviews(ctx context.Context, filter ReviewFilter) ([]*core.Review, error)

	// CountReviews returns how many reviews match filter.
	CountReviews(ctx context.Context, filter ReviewFilter) (int, error)

	// DistinctTopics returns the non-empty topic labels in use, sorted.
	DistinctTopics(ctx context.Context) ([]string, error)

	// Close releases resources held by the repository.
	Close() error
}

// CheckpointRepository records the last outcome of each batch operation.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint, replacing any previous one for the same operation.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for an operation.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, operation string) (*core.Checkpoint, error)

	// ListCheckpoints returns every checkpoint ordered by operation name.
	ListCheckpoints(ctx context.Context) ([]*core.Checkpoint, error)

	// DeleteCheckpoint forgets the checkpoint for an operation. Deleting a
	// missing checkpoint is not an error.
	DeleteCheckpoint(ctx context.Context, operation string) error
}
