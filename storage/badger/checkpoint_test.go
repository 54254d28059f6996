package badger

import (
	"context"
	"testing"

	"github.com/poiesic/bares/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRepository(t *testing.T) {
	backend, err := OpenBackend("", InMemory())
	require.NoError(t, err)
	defer backend.Close()

	repo := NewCheckpointRepository(backend)
	ctx := context.Background()

	t.Run("missing checkpoint", func(t *testing.T) {
		cp, err := repo.LoadCheckpoint(ctx, "precompute")
		require.NoError(t, err)
		assert.Nil(t, cp)
	})

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{Operation: "precompute", Processed: 12}))

		cp, err := repo.LoadCheckpoint(ctx, "precompute")
		require.NoError(t, err)
		require.NotNil(t, cp)
		assert.Equal(t, "precompute", cp.Operation)
		assert.Equal(t, int64(12), cp.Processed)
		assert.False(t, cp.UpdatedAt.IsZero())
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{Operation: "precompute", Processed: 20}))

		cp, err := repo.LoadCheckpoint(ctx, "precompute")
		require.NoError(t, err)
		assert.Equal(t, int64(20), cp.Processed)
	})

	t.Run("operations are independent", func(t *testing.T) {
		cp, err := repo.LoadCheckpoint(ctx, "topics")
		require.NoError(t, err)
		assert.Nil(t, cp)
	})
}

func TestCheckpointRepository_ListAndDelete(t *testing.T) {
	backend, err := OpenBackend("", InMemory())
	require.NoError(t, err)
	defer backend.Close()

	repo := NewCheckpointRepository(backend)
	ctx := context.Background()

	list, err := repo.ListCheckpoints(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{Operation: "topics", Processed: 50}))
	require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{Operation: "precompute", Processed: 48}))

	list, err = repo.ListCheckpoints(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "precompute", list[0].Operation)
	assert.Equal(t, int64(48), list[0].Processed)
	assert.Equal(t, "topics", list[1].Operation)

	require.NoError(t, repo.DeleteCheckpoint(ctx, "precompute"))
	require.NoError(t, repo.DeleteCheckpoint(ctx, "never-ran"))

	cp, err := repo.LoadCheckpoint(ctx, "precompute")
	require.NoError(t, err)
	assert.Nil(t, cp)

	list, err = repo.ListCheckpoints(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "topics", list[0].Operation)
}

func TestCheckpointRepository_ListIgnoresReviews(t *testing.T) {
	backend, err := OpenBackend("", InMemory())
	require.NoError(t, err)
	defer backend.Close()

	reviews, err := NewReviewRepository(backend)
	require.NoError(t, err)
	defer reviews.Close()
	_, err = reviews.AddReviews(context.Background(), &core.Review{PlaceID: "place_1_palermo", Name: "La Cabrera - Palermo", Text: "parrilla"})
	require.NoError(t, err)

	list, err := NewCheckpointRepository(backend).ListCheckpoints(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
