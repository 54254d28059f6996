package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/bares/ai"
	"github.com/poiesic/bares/core"
	"github.com/poiesic/bares/normalize"
	"github.com/poiesic/bares/storage"
	"github.com/poiesic/bares/vector"
)

const (
	// DefaultLimit is used when a non-positive limit is requested.
	DefaultLimit = 10

	// DefaultThreshold is the similarity at or below which matches are dropped.
	DefaultThreshold = 0.3

	DefaultSimilarityWeight = 0.7
	DefaultRatingWeight     = 0.3

	// DefaultBatchSize is how many reviews are scored between context checks.
	DefaultBatchSize = 8

	// AllNeighborhoods disables the neighborhood filter.
	AllNeighborhoods = "Todos"
)

// Filters narrows the eligible reviews.
type Filters struct {
	// Neighborhood is a case-insensitive substring of the review name.
	// Empty or AllNeighborhoods means no filter.
	Neighborhood string

	// MinRating keeps reviews rated at least this much. Reviews without a
	// rating are excluded when set.
	MinRating *float64
}

func (f Filters) reviewFilter() storage.ReviewFilter {
	rf := storage.ReviewFilter{
		Embedding: storage.EmbeddingPresent,
		MinRating: f.MinRating,
	}
	if n := strings.TrimSpace(f.Neighborhood); n != "" && n != AllNeighborhoods {
		rf.NameContains = n
	}
	return rf
}

// Searcher ranks reviews by semantic similarity and rating.
type Searcher struct {
	repo             storage.ReviewRepository
	embedder         ai.Embedder
	threshold        float64
	similarityWeight float64
	ratingWeight     float64
	maxRating        float64
	batchSize        int
	logger           *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithThreshold sets the minimum similarity a match must exceed.
func WithThreshold(threshold float64) Option {
	return func(s *Searcher) error {
		if threshold < -1 || threshold > 1 {
			return fmt.Errorf("%w: threshold %v outside [-1, 1]", ErrInvalidOption, threshold)
		}
		s.threshold = threshold
		return nil
	}
}

// WithWeights sets the similarity and rating weights of the combined score.
func WithWeights(similarity, rating float64) Option {
	return func(s *Searcher) error {
		if similarity < 0 || rating < 0 {
			return fmt.Errorf("%w: weights must not be negative", ErrInvalidOption)
		}
		s.similarityWeight = similarity
		s.ratingWeight = rating
		return nil
	}
}

// WithMaxRating sets the top of the rating scale.
// Default is core.MaxRating.
func WithMaxRating(maxRating float64) Option {
	return func(s *Searcher) error {
		if maxRating <= 0 {
			return fmt.Errorf("%w: max rating must be positive", ErrInvalidOption)
		}
		s.maxRating = maxRating
		return nil
	}
}

// WithBatchSize sets how many reviews are scored between context checks.
func WithBatchSize(size int) Option {
	return func(s *Searcher) error {
		if size <= 0 {
			return fmt.Errorf("%w: batch size must be positive", ErrInvalidOption)
		}
		s.batchSize = size
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repo storage.ReviewRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if repo == nil {
		return nil, ErrReviewRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		repo:             repo,
		embedder:         embedder,
		threshold:        DefaultThreshold,
		similarityWeight: DefaultSimilarityWeight,
		ratingWeight:     DefaultRatingWeight,
		maxRating:        core.MaxRating,
		batchSize:        DefaultBatchSize,
		logger:           slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// CombinedScore blends similarity with the rating, a missing rating counting as 0.
func (s *Searcher) CombinedScore(similarity float64, rating *float64) float64 {
	r := 0.0
	if rating != nil {
		r = *rating
	}
	return s.similarityWeight*similarity + s.ratingWeight*(r/s.maxRating)
}

// Search returns up to limit reviews matching query under filters.
func (s *Searcher) Search(ctx context.Context, query string, filters Filters, limit int) ([]core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, filters, limit, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, filters Filters, limit int, monitor SearchMonitor) ([]core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	monitor.Start(query, filters)

	eligible, err := s.repo.FindReviews(ctx, filters.reviewFilter())
	if err != nil {
		s.logger.Error("error loading eligible reviews", "err", err)
		return nil, err
	}
	monitor.AfterFilter(len(eligible))

	var results []core.SearchResult
	if strings.TrimSpace(query) == "" {
		results = s.bestRated(eligible, limit)
	} else if len(eligible) > 0 {
		embedding, err := s.embedder.EmbedText(ctx, normalize.Text(query, ""))
		if err != nil {
			s.logger.Error("error generating embedding for query", "query", query, "err", err)
			return nil, err
		}
		results, err = s.rank(ctx, vector.ToFloat64(embedding), eligible, limit, monitor)
		if err != nil {
			return nil, err
		}
	}

	monitor.Finish(results)
	return results, nil
}

// SimilarTo finds reviews of other places similar to placeID.
// The first embedded review of the place is used as the query.
// Returns storage.ErrNotFound when the place has no embedded review.
func (s *Searcher) SimilarTo(ctx context.Context, placeID string, limit int) ([]core.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	own, err := s.repo.FindReviews(ctx, storage.ReviewFilter{PlaceID: placeID, Embedding: storage.EmbeddingPresent})
	if err != nil {
		return nil, err
	}

	var query []float64
	for _, r := range own {
		query, err = vector.Decode(r.Embedding)
		if err == nil {
			break
		}
		s.logger.Warn("skipping undecodable embedding", "id", r.Id, "err", err)
	}
	if query == nil {
		return nil, fmt.Errorf("%w: no embedded review for place %q", storage.ErrNotFound, placeID)
	}

	all, err := s.repo.FindReviews(ctx, storage.ReviewFilter{Embedding: storage.EmbeddingPresent})
	if err != nil {
		return nil, err
	}
	others := slices.DeleteFunc(all, func(r *core.Review) bool {
		return r.PlaceID == placeID
	})
	return s.rank(ctx, query, others, limit, &noopMonitor{})
}

// bestRated orders reviews by rating, unrated last, without scoring them.
func (s *Searcher) bestRated(reviews []*core.Review, limit int) []core.SearchResult {
	sorted := slices.Clone(reviews)
	slices.SortStableFunc(sorted, func(a, b *core.Review) int {
		switch {
		case a.Rating == nil && b.Rating == nil:
			return 0
		case a.Rating == nil:
			return 1
		case b.Rating == nil:
			return -1
		case *a.Rating > *b.Rating:
			return -1
		case *a.Rating < *b.Rating:
			return 1
		}
		return 0
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	results := make([]core.SearchResult, len(sorted))
	for i, r := range sorted {
		results[i] = core.NewSearchResult(r, 1.0, s.CombinedScore(1.0, r.Rating))
	}
	return results
}

// rank scores reviews against query and keeps the best limit. The reviews are
// already loaded; batches only set how often ctx is checked while scoring.
func (s *Searcher) rank(ctx context.Context, query []float64, reviews []*core.Review, limit int, monitor SearchMonitor) ([]core.SearchResult, error) {
	var results []core.SearchResult
	for start := 0; start < len(reviews); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+s.batchSize, len(reviews))
		for _, r := range reviews[start:end] {
			v, err := vector.Decode(r.Embedding)
			if err == nil {
				var similarity float64
				similarity, err = vector.Cosine(query, v)
				if err == nil {
					if similarity > s.threshold {
						results = append(results, core.NewSearchResult(r, similarity, s.CombinedScore(similarity, r.Rating)))
					}
					continue
				}
			}
			s.logger.Warn("skipping review with unusable embedding", "id", r.Id, "err", err)
			monitor.Skipped(r, err)
		}
	}

	slices.SortStableFunc(results, func(a, b core.SearchResult) int {
		switch {
		case a.CombinedScore > b.CombinedScore:
			return -1
		case a.CombinedScore < b.CombinedScore:
			return 1
		}
		return 0
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
