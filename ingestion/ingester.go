package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/bares/core"
	"github.com/poiesic/bares/geo"
	"github.com/poiesic/bares/storage"
)

// Ingester validates and stores new reviews.
type Ingester struct {
	repo        storage.ReviewRepository
	indexer     geo.Indexer
	skipInvalid bool
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures an Ingester.
type Option func(*Ingester) error

// WithIndexer sets the hex indexer.
// Default is geo.H3.
func WithIndexer(indexer geo.Indexer) Option {
	return func(i *Ingester) error {
		if indexer == nil {
			indexer = geo.H3{}
		}
		i.indexer = indexer
		return nil
	}
}

// WithSkipInvalid makes Ingest drop invalid reviews with a warning instead
// of failing the whole call.
func WithSkipInvalid(skip bool) Option {
	return func(i *Ingester) error {
		i.skipInvalid = skip
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Ingester) error {
		if logger == nil {
			logger = slog.Default()
		}
		i.logger = logger
		return nil
	}
}

// NewIngester creates a new Ingester.
func NewIngester(repo storage.ReviewRepository, opts ...Option) (*Ingester, error) {
	if repo == nil {
		return nil, ErrReviewRepositoryRequired
	}

	i := &Ingester{
		repo:    repo,
		indexer: geo.H3{},
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	i.logger = i.logger.With("component", "ingestion")
	return i, nil
}

// Ingest validates reviews and adds them in a single commit.
// Returns the stored reviews with IDs assigned.
func (i *Ingester) Ingest(ctx context.Context, reviews ...*core.Review) ([]*core.Review, error) {
	if len(reviews) == 0 {
		return nil, ErrNoReviews
	}

	createdAt := i.now()
	accepted := make([]*core.Review, 0, len(reviews))
	for n, r := range reviews {
		if err := core.ValidateReview(r); err != nil {
			if !i.skipInvalid {
				return nil, fmt.Errorf("review %d: %w", n, err)
			}
			i.logger.Warn("skipping invalid review", "index", n, "err", err)
			continue
		}
		accepted = append(accepted, r)
	}
	if len(accepted) == 0 {
		return nil, nil
	}

	for _, r := range accepted {
		if r.CreatedAt.IsZero() {
			r.CreatedAt = createdAt
		}
		r.Embedding = ""
		r.Topic = ""
		r.HexIndex = ""
		if !r.HasCoordinates() {
			continue
		}
		hex, err := geo.ReviewHexIndex(i.indexer, r)
		if err != nil {
			i.logger.Warn("failed to compute hex index", "placeID", r.PlaceID, "err", err)
			continue
		}
		r.HexIndex = hex
	}

	stored, err := i.repo.AddReviews(ctx, accepted...)
	if err != nil {
		i.logger.Error("failed to store reviews", "count", len(accepted), "err", err)
		return nil, fmt.Errorf("failed to add reviews: %w", err)
	}
	i.logger.Debug("ingested reviews", "count", len(stored))
	return stored, nil
}
