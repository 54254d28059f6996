package ai

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedEmbedder returns a constant vector and records batch inputs.
type fixedEmbedder struct {
	mu      sync.Mutex
	dim     int
	batches [][]string
	short   bool
}

func (f *fixedEmbedder) Dimension() int { return f.dim }

func (f *fixedEmbedder) EmbedText(_ context.Context, _ string) ([]float32, error) {
	v := make([]float32, f.dim)
	v[0] = 1
	return v, nil
}

func (f *fixedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batches = append(f.batches, texts)
	f.mu.Unlock()
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i], _ = f.EmbedText(ctx, texts[i])
	}
	return out, nil
}

func TestNewModel_RequiresLoader(t *testing.T) {
	_, err := NewModel(nil)
	assert.ErrorIs(t, err, ErrLoaderRequired)
}

func TestModel_LoadsOnce(t *testing.T) {
	loads := 0
	var mu sync.Mutex
	m, err := NewModel(func(context.Context) (Embedder, error) {
		mu.Lock()
		loads++
		mu.Unlock()
		return &fixedEmbedder{dim: 4}, nil
	})
	require.NoError(t, err)
	assert.False(t, m.Loaded())
	assert.Equal(t, 0, m.Dimension())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.EmbedText(context.Background(), "hola")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, loads)
	assert.True(t, m.Loaded())
	assert.Equal(t, 4, m.Dimension())
}

func TestModel_FailedLoadIsRetried(t *testing.T) {
	attempts := 0
	m, err := NewModel(func(context.Context) (Embedder, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("weights missing")
		}
		return &fixedEmbedder{dim: 2}, nil
	})
	require.NoError(t, err)

	_, err = m.Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights missing")

	e, err := m.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, e.Dimension())
	assert.Equal(t, 2, attempts)
}

func TestModel_BlankTextsGetZeroVectors(t *testing.T) {
	backend := &fixedEmbedder{dim: 3}
	m := NewStaticModel(backend)
	ctx := context.Background()

	v, err := m.EmbedText(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0}, v)

	out, err := m.EmbedTexts(ctx, []string{"carne", "", "cafe"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []float32{1, 0, 0}, out[0])
	assert.Equal(t, []float32{0, 0, 0}, out[1])
	assert.Equal(t, []float32{1, 0, 0}, out[2])

	require.Len(t, backend.batches, 1)
	assert.Equal(t, []string{"carne", "cafe"}, backend.batches[0])
}

func TestModel_AllBlankBatchSkipsBackend(t *testing.T) {
	backend := &fixedEmbedder{dim: 2}
	m := NewStaticModel(backend)

	out, err := m.EmbedTexts(context.Background(), []string{"", " "})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Empty(t, backend.batches)
}

func TestModel_CountMismatch(t *testing.T) {
	m := NewStaticModel(&fixedEmbedder{dim: 2, short: true})
	_, err := m.EmbedTexts(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrEmbeddingCountMismatch)
}
