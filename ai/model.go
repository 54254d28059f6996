package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

var (
	// ErrLoaderRequired is returned when a Model is built without a loader.
	ErrLoaderRequired = errors.New("embedding model loader required")

	// ErrEmbeddingCountMismatch is returned when a backend returns a different
	// number of vectors than texts it was given.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")

	// ErrDimensionMismatch is returned when a backend returns vectors of a
	// different length than the configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Model is a lazily initialized, shareable embedding handle.
//
// The first call that needs the backend runs the Loader; later calls reuse the
// loaded Embedder. A failed load is not cached, so the next call tries again.
// Blank texts never reach the backend: they get a zero vector of the
// backend's dimension.
//
// Model itself implements Embedder, so callers can pass it wherever an
// Embedder is expected and the load cost is paid on first use.
type Model struct {
	load     Loader
	mu       sync.Mutex
	embedder Embedder
	logger   *slog.Logger
}

var _ Embedder = (*Model)(nil)

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithModelLogger sets a custom logger.
// Default is slog.Default().
func WithModelLogger(logger *slog.Logger) ModelOption {
	return func(m *Model) {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
	}
}

// NewModel creates a handle that will build its backend with load.
func NewModel(load Loader, opts ...ModelOption) (*Model, error) {
	if load == nil {
		return nil, ErrLoaderRequired
	}
	m := &Model{
		load:   load,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "embedding-model")
	return m, nil
}

// NewStaticModel wraps an already constructed Embedder.
func NewStaticModel(e Embedder) *Model {
	m, _ := NewModel(func(context.Context) (Embedder, error) { return e, nil })
	return m
}

// Get returns the loaded backend, loading it on first use.
func (m *Model) Get(ctx context.Context) (Embedder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.embedder != nil {
		return m.embedder, nil
	}

	m.logger.Debug("loading embedding model")
	e, err := m.load(ctx)
	if err != nil {
		m.logger.Error("failed to load embedding model", "err", err)
		return nil, fmt.Errorf("load embedding model: %w", err)
	}
	if e == nil {
		return nil, ErrLoaderRequired
	}
	m.embedder = e
	m.logger.Debug("embedding model ready", "dimension", e.Dimension())
	return e, nil
}

// Loaded reports whether the backend has been initialized.
func (m *Model) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedder != nil
}

// Dimension returns the backend dimension, or 0 before the first load.
func (m *Model) Dimension() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.embedder == nil {
		return 0
	}
	return m.embedder.Dimension()
}

// EmbedText embeds a single text.
func (m *Model) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e, err := m.Get(ctx)
	if err != nil {
		return nil, err
	}
	if isBlank(text) {
		return make([]float32, e.Dimension()), nil
	}
	return e.EmbedText(ctx, text)
}

// EmbedTexts embeds a batch. Blank entries are filled with zero vectors and
// only the rest are sent to the backend.
func (m *Model) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := m.Get(ctx)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	pending := make([]string, 0, len(texts))
	slots := make([]int, 0, len(texts))
	for i, text := range texts {
		if isBlank(text) {
			out[i] = make([]float32, e.Dimension())
			continue
		}
		pending = append(pending, text)
		slots = append(slots, i)
	}
	if len(pending) == 0 {
		return out, nil
	}

	vectors, err := e.EmbedTexts(ctx, pending)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(pending) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(pending), len(vectors))
	}
	for j, slot := range slots {
		out[slot] = vectors[j]
	}
	return out, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
