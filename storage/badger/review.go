package badger

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/bares/core"
	"github.com/poiesic/bares/storage"
)

// ReviewRepository implements storage.ReviewRepository for BadgerDB.
type ReviewRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ReviewRepository = (*ReviewRepository)(nil)

// NewReviewRepository creates a new ReviewRepository.
func NewReviewRepository(backend *Backend) (*ReviewRepository, error) {
	idSeq, err := backend.GetSequence(reviewIDSeq)
	if err != nil {
		return nil, err
	}

	return &ReviewRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ReviewRepository) Close() error {
	return r.idSeq.Release()
}

// AddReviews adds one or more reviews to storage.
func (r *ReviewRepository) AddReviews(ctx context.Context, reviews ...*core.Review) ([]*core.Review, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, review := range reviews {
			if err := ctx.Err(); err != nil {
				return err
			}
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			review.Id = core.ID(nextID)

			if review.CreatedAt.IsZero() {
				review.CreatedAt = now
			}
			review.UpdatedAt = now

			key := makeReviewKey(review.Id)
			if err := tx.Set(key, storage.MarshalReview(review)); err != nil {
				return err
			}

			if err := r.updatePlaceIndex(tx, review); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return reviews, err
}

// UpdateReviews updates existing reviews in one transaction.
func (r *ReviewRepository) UpdateReviews(ctx context.Context, reviews ...*core.Review) ([]*core.Review, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, review := range reviews {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := makeReviewKey(review.Id)

			old, err := r.readReview(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			review.UpdatedAt = now
			if err := tx.Set(key, storage.MarshalReview(review)); err != nil {
				return err
			}

			// Move the place index entry if the venue changed
			if old.PlaceID != review.PlaceID {
				if err := r.deletePlaceIndex(tx, old); err != nil {
					return err
				}
				if err := r.updatePlaceIndex(tx, review); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return reviews, err
}

// GetReview retrieves a single review by ID.
func (r *ReviewRepository) GetReview(ctx context.Context, id core.ID) (*core.Review, error) {
	var result *core.Review
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readReview(tx, makeReviewKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetReviews retrieves multiple reviews by their IDs.
func (r *ReviewRepository) GetReviews(ctx context.Context, ids ...core.ID) ([]*core.Review, error) {
	var result []*core.Review
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			review, err := r.readReview(tx, makeReviewKey(id))
			if err != nil {
				return err
			}
			if review != nil {
				result = append(result, review)
			}
		}
		return nil
	}, false)
	return result, err
}

// FindReviews returns every review matching filter in ID order.
func (r *ReviewRepository) FindReviews(ctx context.Context, filter storage.ReviewFilter) ([]*core.Review, error) {
	var results []*core.Review
	err := r.scan(ctx, filter, func(review *core.Review) {
		results = append(results, review)
	})
	return results, err
}

// CountReviews returns the number of reviews matching filter.
func (r *ReviewRepository) CountReviews(ctx context.Context, filter storage.ReviewFilter) (int, error) {
	count := 0
	err := r.scan(ctx, filter, func(*core.Review) {
		count++
	})
	return count, err
}

// DistinctTopics returns the sorted set of non-empty topic labels.
func (r *ReviewRepository) DistinctTopics(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	err := r.scan(ctx, storage.ReviewFilter{}, func(review *core.Review) {
		if review.Topic != "" {
			seen[review.Topic] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}
	topics := make([]string, 0, len(seen))
	for topic := range seen {
		topics = append(topics, topic)
	}
	slices.Sort(topics)
	return topics, nil
}

// scan visits every review matching filter. A PlaceID filter walks the place
// index, anything else walks the primary keys.
func (r *ReviewRepository) scan(ctx context.Context, filter storage.ReviewFilter, visit func(*core.Review)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if filter.PlaceID != "" {
			return r.scanPlace(ctx, tx, filter, visit)
		}

		prefix := []byte(reviewPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var review *core.Review
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				review, err = storage.UnmarshalReview(val)
				return err
			}); err != nil {
				return err
			}
			if filter.Matches(review) {
				visit(review)
			}
		}
		return nil
	}, false)
}

func (r *ReviewRepository) scanPlace(ctx context.Context, tx *badger.Txn, filter storage.ReviewFilter, visit func(*core.Review)) error {
	prefix := makePartialPlaceKey(filter.PlaceID)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Seek(prefix); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := iter.Item().Key()
		if !bytes.HasPrefix(key, prefix) {
			break
		}

		var reviewID core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			reviewID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		review, err := r.readReview(tx, makeReviewKey(reviewID))
		if err != nil {
			return err
		}
		if review != nil && filter.Matches(review) {
			visit(review)
		}
	}
	return nil
}

// Helper methods

// readReview reads a review from the transaction.
func (r *ReviewRepository) readReview(tx *badger.Txn, key []byte) (*core.Review, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var review *core.Review
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		review, unmarshalErr = storage.UnmarshalReview(val)
		return unmarshalErr
	})
	return review, err
}

// updatePlaceIndex adds the place index entry for a review.
func (r *ReviewRepository) updatePlaceIndex(tx *badger.Txn, review *core.Review) error {
	if review.PlaceID == "" {
		return nil
	}
	return tx.Set(makePlaceKey(review.PlaceID, review.Id), storage.MarshalID(review.Id))
}

// deletePlaceIndex removes the place index entry for a review.
func (r *ReviewRepository) deletePlaceIndex(tx *badger.Txn, review *core.Review) error {
	if review.PlaceID == "" {
		return nil
	}
	return tx.Delete(makePlaceKey(review.PlaceID, review.Id))
}
