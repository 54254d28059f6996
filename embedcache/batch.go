package embedcache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/bares/ai"
	"github.com/poiesic/bares/core"
	"github.com/poiesic/bares/normalize"
	"github.com/poiesic/bares/storage"
	"github.com/poiesic/bares/vector"
)

// BatchProcessor embeds a batch of reviews and persists the result.
type BatchProcessor struct {
	repo           storage.ReviewRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for the batch embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.ReviewRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         logger,
	}
}

// EmbeddingText is the text a review is embedded from: its body with the
// venue name as context, normalized.
func EmbeddingText(r *core.Review) string {
	return normalize.Text(r.Text, r.Name)
}

// Process embeds reviews and writes the ones that succeeded in a single
// update. Per-item failures are returned as results, only a store failure
// is returned as an error.
func (bp *BatchProcessor) Process(ctx context.Context, reviews []*core.Review) ([]ItemResult, error) {
	if len(reviews) == 0 {
		return nil, nil
	}

	texts := make([]string, len(reviews))
	for i, r := range reviews {
		texts[i] = EmbeddingText(r)
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		if err == nil && len(embeddings) != len(texts) {
			err = fmt.Errorf("%w: expected %d, got %d", ai.ErrEmbeddingCountMismatch, len(texts), len(embeddings))
		}
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		bp.logger.Warn("batch embedding failed, falling back to single items", "size", len(reviews), "err", err)
		embeddings = bp.embedEach(ctx, texts)
	}

	results := make([]ItemResult, len(reviews))
	updates := make([]*core.Review, 0, len(reviews))
	for i, r := range reviews {
		results[i] = ItemResult{ID: r.Id, PlaceID: r.PlaceID}
		if embeddings[i] == nil {
			results[i].Status = StatusSkipped
			results[i].Reason = "embedding failed"
			continue
		}
		encoded, err := vector.Encode(vector.Normalize(embeddings[i]))
		if err != nil {
			bp.logger.Warn("skipping review with unencodable embedding", "id", r.Id, "err", err)
			results[i].Status = StatusSkipped
			results[i].Reason = err.Error()
			continue
		}
		r.Embedding = encoded
		results[i].Status = StatusUpdated
		updates = append(updates, r)
	}

	if len(updates) == 0 {
		return results, nil
	}
	if _, err := bp.repo.UpdateReviews(ctx, updates...); err != nil {
		// Nothing from this batch was committed
		for _, r := range updates {
			r.Embedding = ""
		}
		return results, fmt.Errorf("failed to update reviews: %w", err)
	}
	return results, nil
}

// embedEach embeds texts one at a time. Failed slots are left nil.
func (bp *BatchProcessor) embedEach(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if ctx.Err() != nil {
			return out
		}
		v, err := bp.embedder.EmbedText(ctx, text)
		if err != nil {
			bp.logger.Warn("failed to embed review text", "index", i, "err", err)
			continue
		}
		out[i] = v
	}
	return out
}
