// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package embedcache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/bares/ai"
	"github.com/poiesic/bares/core"
	"github.com/poiesic/bares/storage"
)

// CheckpointOperation names the checkpoint written after each run.
const CheckpointOperation = "precompute"

// Config holds configuration for precompute runs.
type Config struct {
	// BatchSize is the number of reviews embedded per backend call and per commit
	BatchSize int

	// ReportInterval is how often to report progress (number of reviews)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for a batch embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      8,
		ReportInterval: 100,
		MaxRetries:     1,
		RetryDelay:     500 * time.Millisecond,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("embedcache: batch size must be positive, got %d", c.BatchSize)
	}
	if c.MaxRetries <= 0 {
		return ErrInvalidMaxAttempts
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("embedcache: retry delay must not be negative, got %v", c.RetryDelay)
	}
	return nil
}

// Status is the outcome for one review in a run.
type Status string

const (
	StatusUpdated Status = "updated"
	StatusSkipped Status = "skipped"
)

// ItemResult records what happened to a single review.
type ItemResult struct {
	ID      core.ID
	PlaceID string
	Status  Status
	Reason  string
}

// Report summarizes a precompute run.
type Report struct {
	// Updated is the number of reviews that received an embedding.
	Updated int
	// Skipped is the number of reviews that could not be embedded.
	Skipped int
	Items   []ItemResult
}

// Manager fills in missing embeddings.
type Manager struct {
	repo        storage.ReviewRepository
	embedder    ai.Embedder
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(m *Manager) {
		if config != nil {
			m.config = config
		}
	}
}

// WithProgress sets where progress output is written.
// Default is no progress output.
func WithProgress(w io.Writer) Option {
	return func(m *Manager) {
		m.progress = w
	}
}

// WithCheckpoints records a checkpoint after every successful run.
func WithCheckpoints(repo storage.CheckpointRepository) Option {
	return func(m *Manager) {
		m.checkpoints = repo
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new Manager.
func NewManager(repo storage.ReviewRepository, embedder ai.Embedder, opts ...Option) (*Manager, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	m := &Manager{
		repo:     repo,
		embedder: embedder,
		config:   DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.config.Validate(); err != nil {
		return nil, err
	}
	m.logger = m.logger.With("component", "embedcache")
	return m, nil
}

var missingFilter = storage.ReviewFilter{
	HasText:   true,
	Embedding: storage.EmbeddingMissing,
}

// Missing returns how many reviews with text still lack an embedding.
func (m *Manager) Missing(ctx context.Context) (int, error) {
	return m.repo.CountReviews(ctx, missingFilter)
}

// Precompute embeds every review with text and no cached embedding.
// Batches are committed as they finish, so a store failure leaves the
// earlier batches in place.
func (m *Manager) Precompute(ctx context.Context) (*Report, error) {
	pending, err := m.repo.FindReviews(ctx, missingFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}

	report := &Report{}
	if len(pending) == 0 {
		m.logger.Info("no reviews need embeddings")
		return report, nil
	}

	m.logger.Info("precomputing embeddings", "reviews", len(pending), "batchSize", m.config.BatchSize)
	tracker := NewProgressTracker(m.progress, len(pending), m.config.ReportInterval)
	tracker.Start()

	processor := NewBatchProcessor(m.repo, m.embedder, m.config.MaxRetries, m.config.RetryDelay, m.logger)
	for start := 0; start < len(pending); start += m.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		end := min(start+m.config.BatchSize, len(pending))

		results, err := processor.Process(ctx, pending[start:end])
		if err != nil {
			return report, err
		}
		report.Items = append(report.Items, results...)
		tracker.Record(results)
		report.Updated, report.Skipped = tracker.Counts()
	}
	tracker.Finish()

	m.logger.Info("precompute complete",
		"updated", report.Updated,
		"skipped", report.Skipped,
		"elapsed", tracker.Elapsed().Round(time.Millisecond))

	if m.checkpoints != nil {
		cp := &core.Checkpoint{Operation: CheckpointOperation, Processed: int64(report.Updated)}
		if err := m.checkpoints.SaveCheckpoint(ctx, cp); err != nil {
			m.logger.Warn("failed to save checkpoint", "err", err)
		}
	}
	return report, nil
}
