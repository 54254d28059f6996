package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/bares/core"
	"github.com/poiesic/bares/storage"
	"github.com/poiesic/bares/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIngester(t *testing.T, opts ...Option) (*Ingester, storage.ReviewRepository) {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	ingester, err := NewIngester(repo, opts...)
	require.NoError(t, err)
	return ingester, repo
}

type fakeIndexer struct {
	err   error
	calls int
}

func (f *fakeIndexer) HexIndex(lat, lon float64, resolution int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "87c2e3000ffffff", nil
}

func TestNewIngester(t *testing.T) {
	_, err := NewIngester(nil)
	assert.ErrorIs(t, err, ErrReviewRepositoryRequired)

	ingester, _ := setupIngester(t, WithLogger(nil), WithIndexer(nil))
	assert.NotNil(t, ingester.indexer)
	assert.NotNil(t, ingester.logger)
}

func TestIngest_StoresReviews(t *testing.T) {
	ingester, repo := setupIngester(t)
	ctx := context.Background()

	stored, err := ingester.Ingest(ctx,
		&core.Review{PlaceID: "place_1_palermo", Name: "La Cabrera - Palermo", Text: "Parrilla excelente",
			Rating: core.Float64(4.8), Lat: core.Float64(-34.588), Lon: core.Float64(-58.430)},
		&core.Review{PlaceID: "place_2_online", Name: "Sin mapa", Text: "Rico"},
	)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	for _, r := range stored {
		assert.NotZero(t, r.Id)
		assert.False(t, r.CreatedAt.IsZero())
	}
	assert.NotEmpty(t, stored[0].HexIndex, "reviews with coordinates are indexed on insert")
	assert.Empty(t, stored[1].HexIndex)

	got, err := repo.GetReview(ctx, stored[0].Id)
	require.NoError(t, err)
	assert.Equal(t, stored[0].HexIndex, got.HexIndex)
	assert.Equal(t, "Parrilla excelente", got.Text)
}

func TestIngest_ClearsDerivedFields(t *testing.T) {
	ingester, _ := setupIngester(t)

	stored, err := ingester.Ingest(context.Background(), &core.Review{
		PlaceID:   "place_1",
		Text:      "Muy bueno",
		Embedding: "[0.1,0.2]",
		Topic:     "Topic 3: viejo",
		HexIndex:  "stale",
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Empty(t, stored[0].Embedding)
	assert.Empty(t, stored[0].Topic)
	assert.Empty(t, stored[0].HexIndex)
}

func TestIngest_KeepsCreatedAt(t *testing.T) {
	ingester, _ := setupIngester(t)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	stored, err := ingester.Ingest(context.Background(), &core.Review{PlaceID: "place_1", CreatedAt: created})
	require.NoError(t, err)
	assert.True(t, created.Equal(stored[0].CreatedAt))
}

func TestIngest_InvalidReviewRejectsCall(t *testing.T) {
	ingester, repo := setupIngester(t)
	ctx := context.Background()

	_, err := ingester.Ingest(ctx,
		&core.Review{PlaceID: "place_1", Text: "ok"},
		&core.Review{PlaceID: "place_2", Rating: core.Float64(7)},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidReview)
	assert.ErrorIs(t, err, core.ErrRatingOutOfRange)

	count, err := repo.CountReviews(ctx, storage.ReviewFilter{})
	require.NoError(t, err)
	assert.Zero(t, count, "nothing is written when a review is invalid")
}

func TestIngest_SkipInvalid(t *testing.T) {
	ingester, _ := setupIngester(t, WithSkipInvalid(true))

	stored, err := ingester.Ingest(context.Background(),
		&core.Review{PlaceID: ""},
		&core.Review{PlaceID: "place_2", Lat: core.Float64(-34.6)},
		&core.Review{PlaceID: "place_3", Text: "Buenisimo"},
	)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "place_3", stored[0].PlaceID)

	stored, err = ingester.Ingest(context.Background(), &core.Review{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestIngest_NoReviews(t *testing.T) {
	ingester, _ := setupIngester(t)

	_, err := ingester.Ingest(context.Background())
	assert.ErrorIs(t, err, ErrNoReviews)
}

func TestIngest_HexFailureIsNotFatal(t *testing.T) {
	indexer := &fakeIndexer{err: errors.New("indexer offline")}
	ingester, _ := setupIngester(t, WithIndexer(indexer))

	stored, err := ingester.Ingest(context.Background(),
		&core.Review{PlaceID: "place_1", Lat: core.Float64(-34.6), Lon: core.Float64(-58.4)},
		&core.Review{PlaceID: "place_2"},
	)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 1, indexer.calls, "reviews without coordinates are not indexed")
	assert.Empty(t, stored[0].HexIndex)
}

func TestIngest_UsesIndexer(t *testing.T) {
	indexer := &fakeIndexer{}
	ingester, _ := setupIngester(t, WithIndexer(indexer))

	stored, err := ingester.Ingest(context.Background(),
		&core.Review{PlaceID: "place_1", Lat: core.Float64(-34.6), Lon: core.Float64(-58.4)})
	require.NoError(t, err)
	assert.Equal(t, "87c2e3000ffffff", stored[0].HexIndex)
}
