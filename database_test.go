package bares

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/bares/ai"
	"github.com/poiesic/bares/core"
	"github.com/poiesic/bares/search"
	"github.com/poiesic/bares/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReviews() []*core.Review {
	return []*core.Review{
		{PlaceID: "place_1_palermo", Name: "La Cabrera - Palermo", Text: "Parrilla excelente, asado y carne jugosa", Rating: core.Float64(4.8), Lat: core.Float64(-34.588), Lon: core.Float64(-58.430)},
		{PlaceID: "place_2_palermo", Name: "Don Julio - Palermo", Text: "La mejor parrilla, el asado y la carne increibles", Rating: core.Float64(4.9), Lat: core.Float64(-34.588), Lon: core.Float64(-58.430)},
		{PlaceID: "place_3_belgrano", Name: "El Pobre Luis - Belgrano", Text: "Parrilla de barrio con asado, carne y vacio", Rating: core.Float64(4.4), Lat: core.Float64(-34.560), Lon: core.Float64(-58.455)},
		{PlaceID: "place_4_recoleta", Name: "La Biela - Recoleta", Text: "Café tranquilo con medialunas y café rico", Rating: core.Float64(4.1)},
		{PlaceID: "place_5_recoleta", Name: "Café Tortoni - Recoleta", Text: "Café histórico con medialunas y café con leche", Rating: core.Float64(4.3)},
		{PlaceID: "place_6_balvanera", Name: "Café de los Angelitos - Balvanera", Text: "Café clásico, medialunas y café cortado", Rating: core.Float64(4.5)},
	}
}

func newMemoryDatabase(t *testing.T, opts ...DatabaseOption) *Database {
	t.Helper()
	db, err := NewDatabase("", append([]DatabaseOption{WithInMemory()}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewModel(t *testing.T) {
	t.Run("defaults to hashing", func(t *testing.T) {
		model, err := NewModel(nil)
		require.NoError(t, err)
		assert.False(t, model.Loaded(), "loading is deferred")

		v, err := model.EmbedText(context.Background(), "parrilla asado")
		require.NoError(t, err)
		assert.Len(t, v, ai.DefaultDimension)
		assert.True(t, model.Loaded())
	})

	t.Run("openai is lazy", func(t *testing.T) {
		model, err := NewModel(ai.NewConfig(ai.WithProvider(ai.ProviderOpenAI)))
		require.NoError(t, err)
		assert.False(t, model.Loaded())
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewModel(ai.NewConfig(ai.WithProvider("word2vec")))
		assert.Error(t, err)
	})
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		// Verify components are initialized
		assert.NotNil(t, db.ReviewRepository())
		assert.NotNil(t, db.CheckpointRepository())
		assert.NotNil(t, db.Model())
		assert.NotNil(t, db.backend)
		assert.NotNil(t, db.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create a database at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("error with invalid search option", func(t *testing.T) {
		db, err := NewDatabase("", WithInMemory(), WithSearchOptions(search.WithThreshold(5)))
		assert.ErrorIs(t, err, search.ErrInvalidOption)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, db)

	// Close the database
	err = db.Close()
	assert.NoError(t, err)
}

func TestDatabase_EndToEnd(t *testing.T) {
	db := newMemoryDatabase(t)
	ctx := context.Background()

	stored, err := db.Ingest(ctx, sampleReviews()...)
	require.NoError(t, err)
	require.Len(t, stored, 6)

	report, err := db.PrecomputeEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, report.Updated)

	again, err := db.PrecomputeEmbeddings(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Updated)

	checkpoint, err := db.LastPrecompute(ctx)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)

	results, err := db.Search(ctx, "parrilla asado", search.Filters{}, 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Text, "arrilla")

	similar, err := db.SimilarTo(ctx, "place_4_recoleta", 2)
	require.NoError(t, err)
	require.NotEmpty(t, similar)
	assert.Contains(t, similar[0].Name, "Café")

	ok, topicReport, err := db.RunTopicModeling(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, topicReport.Clusters, 2)

	labels, err := db.Topics(ctx)
	require.NoError(t, err)
	assert.Len(t, labels, 2)

	missing, err := db.MissingEmbeddings(ctx)
	require.NoError(t, err)
	assert.Zero(t, missing)

	checkpoints, err := db.Checkpoints(ctx)
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	assert.Equal(t, "precompute", checkpoints[0].Operation)
	assert.Equal(t, TopicsCheckpointOperation, checkpoints[1].Operation)
	assert.Equal(t, int64(6), checkpoints[1].Processed)
}

func TestDatabase_Compact(t *testing.T) {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "db"), WithSyncWrites(true))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	_, err = db.Ingest(ctx, sampleReviews()...)
	require.NoError(t, err)
	_, err = db.PrecomputeEmbeddings(ctx)
	require.NoError(t, err)

	_, err = db.Compact()
	require.NoError(t, err)

	count, err := db.ReviewRepository().CountReviews(ctx, storage.ReviewFilter{})
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestDatabase_Cells(t *testing.T) {
	db := newMemoryDatabase(t)
	ctx := context.Background()

	_, err := db.Ingest(ctx, sampleReviews()...)
	require.NoError(t, err)

	cells, err := db.Cells(ctx, "", nil)
	require.NoError(t, err)
	require.Len(t, cells, 2, "only reviews with coordinates are grouped")
	assert.Len(t, cells[0].Reviews, 2, "largest cell first")

	rated, err := db.Cells(ctx, "", core.Float64(4.85))
	require.NoError(t, err)
	require.Len(t, rated, 1)
	assert.Equal(t, "place_2_palermo", rated[0].Reviews[0].PlaceID)

	none, err := db.Cells(ctx, "Topic 9", nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	count, err := db.ReviewRepository().CountReviews(ctx, storage.ReviewFilter{})
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}
