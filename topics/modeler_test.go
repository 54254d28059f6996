package topics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/bares/ai"
	"github.com/poiesic/bares/ai/hashing"
	"github.com/poiesic/bares/core"
	"github.com/poiesic/bares/embedcache"
	"github.com/poiesic/bares/storage"
	"github.com/poiesic/bares/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parrillaAndCafeReviews() []*core.Review {
	return []*core.Review{
		{PlaceID: "place_1_palermo", Name: "La Cabrera - Palermo", Text: "Parrilla excelente, asado y carne jugosa", Rating: core.Float64(4.8), Lat: core.Float64(-34.588), Lon: core.Float64(-58.430)},
		{PlaceID: "place_2_palermo", Name: "Don Julio - Palermo", Text: "La mejor parrilla, el asado y la carne increibles", Rating: core.Float64(4.9), Lat: core.Float64(-34.586), Lon: core.Float64(-58.425)},
		{PlaceID: "place_3_belgrano", Name: "El Pobre Luis - Belgrano", Text: "Parrilla de barrio con asado, carne y vacio", Rating: core.Float64(4.4), Lat: core.Float64(-34.560), Lon: core.Float64(-58.455)},
		{PlaceID: "place_4_san nicolas", Name: "Café Tortoni - San Nicolás", Text: "Café histórico con medialunas y café con leche", Rating: core.Float64(4.3), Lat: core.Float64(-34.608), Lon: core.Float64(-58.378)},
		{PlaceID: "place_5_recoleta", Name: "La Biela - Recoleta", Text: "Café tranquilo con medialunas y café rico", Rating: core.Float64(4.1), Lat: core.Float64(-34.587), Lon: core.Float64(-58.392)},
		{PlaceID: "place_6_balvanera", Name: "Café de los Angelitos - Balvanera", Text: "Café clásico, medialunas y café cortado", Rating: core.Float64(4.5), Lat: core.Float64(-34.609), Lon: core.Float64(-58.398)},
	}
}

func setupModeler(t *testing.T, reviews []*core.Review, opts ...Option) (*Modeler, storage.ReviewRepository) {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	if len(reviews) > 0 {
		_, err = repo.AddReviews(context.Background(), reviews...)
		require.NoError(t, err)
	}

	embedder, err := hashing.NewEmbedder(384)
	require.NoError(t, err)
	cache, err := embedcache.NewManager(repo, ai.NewStaticModel(embedder))
	require.NoError(t, err)

	modeler, err := NewModeler(repo, cache, opts...)
	require.NoError(t, err)
	return modeler, repo
}

func TestNewModeler_RequiresDependencies(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()
	embedder, err := hashing.NewEmbedder(8)
	require.NoError(t, err)
	cache, err := embedcache.NewManager(repo, embedder)
	require.NoError(t, err)

	_, err = NewModeler(nil, cache)
	assert.ErrorIs(t, err, ErrReviewRepositoryRequired)

	_, err = NewModeler(repo, nil)
	assert.ErrorIs(t, err, ErrEmbeddingCacheRequired)

	bad := DefaultConfig()
	bad.Restarts = 0
	_, err = NewModeler(repo, cache, WithConfig(bad))
	assert.Error(t, err)
}

func TestRun_ParrillaAndCafe(t *testing.T) {
	modeler, repo := setupModeler(t, parrillaAndCafeReviews())
	ctx := context.Background()

	ok, report, err := modeler.Run(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 6, report.Backfilled, "embeddings are computed first")
	assert.Equal(t, 6, report.Reviews)
	require.Len(t, report.Clusters, 2)
	assert.Equal(t, 3, report.Clusters[0].Size)
	assert.Equal(t, 3, report.Clusters[1].Size)

	reviews, err := repo.FindReviews(ctx, storage.ReviewFilter{})
	require.NoError(t, err)
	require.Len(t, reviews, 6)

	parrilla, cafe := reviews[0].Topic, reviews[3].Topic
	assert.NotEqual(t, parrilla, cafe)
	for _, r := range reviews[:3] {
		assert.Equal(t, parrilla, r.Topic)
	}
	for _, r := range reviews[3:] {
		assert.Equal(t, cafe, r.Topic)
	}

	assert.True(t, strings.HasPrefix(parrilla, "Topic 0: "), parrilla)
	assert.Contains(t, parrilla, "parrilla")
	assert.Contains(t, parrilla, "asado")
	assert.True(t, strings.HasPrefix(cafe, "Topic 1: "), cafe)
	assert.Contains(t, cafe, "cafe")
	assert.Contains(t, cafe, "medialunas")
	assert.Len(t, strings.Split(strings.SplitN(parrilla, ": ", 2)[1], ", "), 4)

	for _, r := range reviews {
		assert.NotEmpty(t, r.HexIndex, "reviews with coordinates get a hex index")
	}
	assert.Zero(t, report.HexFailures)
}

func TestRun_Deterministic(t *testing.T) {
	modeler, repo := setupModeler(t, parrillaAndCafeReviews())
	ctx := context.Background()

	_, _, err := modeler.Run(ctx, 2)
	require.NoError(t, err)
	first, err := repo.FindReviews(ctx, storage.ReviewFilter{})
	require.NoError(t, err)

	_, report, err := modeler.Run(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, report.Backfilled, "nothing left to backfill")
	second, err := repo.FindReviews(ctx, storage.ReviewFilter{})
	require.NoError(t, err)

	for i := range first {
		assert.Equal(t, first[i].Topic, second[i].Topic)
	}
}

func TestRun_NoReviews(t *testing.T) {
	modeler, _ := setupModeler(t, nil)

	ok, report, err := modeler.Run(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, report.Reviews)
}

func TestRun_SingleReview(t *testing.T) {
	modeler, repo := setupModeler(t, []*core.Review{
		{PlaceID: "solo", Name: "Solo", Text: "Empanadas salteñas riquisimas"},
	})
	ctx := context.Background()

	ok, report, err := modeler.Run(ctx, 5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, report.Clusters, 1)

	reviews, err := repo.FindReviews(ctx, storage.ReviewFilter{})
	require.NoError(t, err)
	assert.Equal(t, "Topic 0: empanadas, riquisimas, saltenas, solo", reviews[0].Topic)
}

func TestRun_SmallDatasetShrinksK(t *testing.T) {
	modeler, _ := setupModeler(t, parrillaAndCafeReviews()[:5])

	ok, report, err := modeler.Run(context.Background(), 15)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, report.Clusters, 2)
}

func TestRun_ReplacesPreviousLabels(t *testing.T) {
	reviews := parrillaAndCafeReviews()
	for _, r := range reviews {
		r.Topic = "viejo"
	}
	modeler, repo := setupModeler(t, reviews)
	ctx := context.Background()

	_, _, err := modeler.Run(ctx, 2)
	require.NoError(t, err)

	topics, err := ListTopics(ctx, repo)
	require.NoError(t, err)
	assert.Len(t, topics, 2)
	assert.NotContains(t, topics, "viejo")
}

type failingIndexer struct{}

func (failingIndexer) HexIndex(lat, lon float64, resolution int) (string, error) {
	return "", errors.New("indexer offline")
}

func TestRun_HexFailuresDoNotAbort(t *testing.T) {
	reviews := parrillaAndCafeReviews()
	reviews[0].HexIndex = "stale"
	reviews[5].Lat, reviews[5].Lon = nil, nil
	reviews[5].HexIndex = "kept"
	modeler, repo := setupModeler(t, reviews, WithIndexer(failingIndexer{}))
	ctx := context.Background()

	ok, report, err := modeler.Run(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, report.HexFailures)

	stored, err := repo.FindReviews(ctx, storage.ReviewFilter{})
	require.NoError(t, err)
	for _, r := range stored[:5] {
		assert.Empty(t, r.HexIndex)
		assert.NotEmpty(t, r.Topic)
	}
	assert.Equal(t, "kept", stored[5].HexIndex, "reviews without coordinates are left alone")
}

func TestRun_SkipsUnusableVectors(t *testing.T) {
	modeler, repo := setupModeler(t, parrillaAndCafeReviews())
	ctx := context.Background()

	// Embed the good reviews first so their dimension is the reference
	_, err := modeler.cache.Precompute(ctx)
	require.NoError(t, err)
	bad, err := repo.AddReviews(ctx,
		&core.Review{PlaceID: "bad_json", Name: "Roto", Text: "parrilla", Embedding: "nope", Topic: "sin cambio"},
		&core.Review{PlaceID: "bad_dim", Name: "Corto", Text: "parrilla", Embedding: "[0.1,0.2]", Topic: "sin cambio"},
	)
	require.NoError(t, err)

	ok, report, err := modeler.Run(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 6, report.Reviews)
	assert.Equal(t, 2, report.Skipped)

	for _, r := range bad {
		got, err := repo.GetReview(ctx, r.Id)
		require.NoError(t, err)
		assert.Equal(t, "sin cambio", got.Topic)
	}
}
