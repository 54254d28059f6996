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


package topics

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/poiesic/bares/core"
	"github.com/poiesic/bares/embedcache"
	"github.com/poiesic/bares/geo"
	"github.com/poiesic/bares/normalize"
	"github.com/poiesic/bares/storage"
	"github.com/poiesic/bares/vector"
	"gonum.org/v1/gonum/mat"
)

// Config holds configuration for topic modeling runs.
type Config struct {
	// TargetTopics is used when Run is called with a non-positive target
	TargetTopics int

	// MinClusterSize bounds the cluster count to n/MinClusterSize
	MinClusterSize int

	// Restarts is the number of k-means runs; the lowest inertia wins
	Restarts int

	// Seed seeds restart i with Seed+i
	Seed int64

	MaxIterations int
	Tolerance     float64

	// TopWords is the number of words in a label
	TopWords int

	// BatchSize is the number of reviews written per commit
	BatchSize int

	// Workers is the size of the k-means restart pool
	Workers int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TargetTopics:   10,
		MinClusterSize: 3,
		Restarts:       10,
		Seed:           42,
		MaxIterations:  100,
		Tolerance:      1e-6,
		TopWords:       DefaultTopWords,
		BatchSize:      8,
		Workers:        max(runtime.NumCPU()/2, 1),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch {
	case c.MinClusterSize < 1:
		return fmt.Errorf("topics: min cluster size must be positive, got %d", c.MinClusterSize)
	case c.Restarts < 1:
		return fmt.Errorf("topics: restarts must be positive, got %d", c.Restarts)
	case c.MaxIterations < 1:
		return fmt.Errorf("topics: max iterations must be positive, got %d", c.MaxIterations)
	case c.TopWords < 1:
		return fmt.Errorf("topics: top words must be positive, got %d", c.TopWords)
	case c.BatchSize < 1:
		return fmt.Errorf("topics: batch size must be positive, got %d", c.BatchSize)
	}
	return nil
}

// ClusterSummary describes one topic of a run.
type ClusterSummary struct {
	ID    int
	Label string
	Size  int
}

// Report summarizes a topic modeling run.
type Report struct {
	// Backfilled is the number of embeddings computed before clustering.
	Backfilled int
	// Reviews is the number of reviews that were clustered.
	Reviews int
	// Skipped is the number of embedded reviews left out for bad vectors.
	Skipped  int
	Clusters []ClusterSummary
	// HexFailures counts reviews whose hex index could not be computed.
	HexFailures int
}

// Modeler clusters embedded reviews and labels them.
type Modeler struct {
	repo    storage.ReviewRepository
	cache   *embedcache.Manager
	indexer geo.Indexer
	config  *Config
	logger  *slog.Logger
}

// Option configures a Modeler.
type Option func(*Modeler)

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(m *Modeler) {
		if config != nil {
			m.config = config
		}
	}
}

// WithIndexer sets the hex indexer.
// Default is geo.H3.
func WithIndexer(indexer geo.Indexer) Option {
	return func(m *Modeler) {
		if indexer != nil {
			m.indexer = indexer
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Modeler) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewModeler creates a new Modeler. cache backfills missing embeddings
// before every run.
func NewModeler(repo storage.ReviewRepository, cache *embedcache.Manager, opts ...Option) (*Modeler, error) {
	if repo == nil {
		return nil, ErrReviewRepositoryRequired
	}
	if cache == nil {
		return nil, ErrEmbeddingCacheRequired
	}

	m := &Modeler{
		repo:    repo,
		cache:   cache,
		indexer: geo.H3{},
		config:  DefaultConfig(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.config.Validate(); err != nil {
		return nil, err
	}
	m.logger = m.logger.With("component", "topics")
	return m, nil
}

// Run clusters every embedded review into about targetTopics topics and
// rewrites their labels and hex indexes. It returns false when there is
// nothing to cluster.
func (m *Modeler) Run(ctx context.Context, targetTopics int) (bool, *Report, error) {
	if targetTopics <= 0 {
		targetTopics = m.config.TargetTopics
	}
	report := &Report{}

	missing, err := m.cache.Missing(ctx)
	if err != nil {
		return false, nil, err
	}
	if missing > 0 {
		m.logger.Info("backfilling embeddings before clustering", "missing", missing)
		cacheReport, err := m.cache.Precompute(ctx)
		if err != nil {
			return false, nil, fmt.Errorf("failed to backfill embeddings: %w", err)
		}
		report.Backfilled = cacheReport.Updated
	}

	reviews, data, skipped, err := m.loadMatrix(ctx)
	if err != nil {
		return false, nil, err
	}
	report.Skipped = skipped
	if len(reviews) == 0 {
		m.logger.Info("no embedded reviews to cluster")
		return false, report, nil
	}
	report.Reviews = len(reviews)

	k := EffectiveK(len(reviews), targetTopics, m.config.MinClusterSize)
	m.logger.Info("clustering reviews", "reviews", len(reviews), "target", targetTopics, "k", k)

	labels, err := clusterRows(ctx, data, k, kmeansOptions{
		restarts:      m.config.Restarts,
		seed:          m.config.Seed,
		maxIterations: m.config.MaxIterations,
		tolerance:     m.config.Tolerance,
		workers:       m.config.Workers,
	})
	if err != nil {
		return false, nil, err
	}

	clusters := 0
	for _, label := range labels {
		clusters = max(clusters, label+1)
	}
	vocabularies := make([][]string, clusters)
	sizes := make([]int, clusters)
	for i, r := range reviews {
		vocabularies[labels[i]] = append(vocabularies[labels[i]], normalize.Tokens(r.Text, r.Name)...)
		sizes[labels[i]]++
	}
	words := TopTerms(vocabularies, m.config.TopWords)
	names := make([]string, clusters)
	for c := range names {
		names[c] = FormatLabel(c, words[c])
		report.Clusters = append(report.Clusters, ClusterSummary{ID: c, Label: names[c], Size: sizes[c]})
	}

	for i, r := range reviews {
		r.Topic = names[labels[i]]
		if !r.HasCoordinates() {
			continue
		}
		hex, err := geo.ReviewHexIndex(m.indexer, r)
		if err != nil {
			m.logger.Warn("failed to compute hex index", "id", r.Id, "placeID", r.PlaceID, "err", err)
			report.HexFailures++
			hex = ""
		}
		r.HexIndex = hex
	}

	for start := 0; start < len(reviews); start += m.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return false, report, err
		}
		end := min(start+m.config.BatchSize, len(reviews))
		if _, err := m.repo.UpdateReviews(ctx, reviews[start:end]...); err != nil {
			return false, report, fmt.Errorf("failed to update reviews: %w", err)
		}
	}

	m.logger.Info("topic modeling complete", "reviews", len(reviews), "topics", clusters, "hexFailures", report.HexFailures)
	return true, report, nil
}

// loadMatrix decodes every embedded review into an L2-normalized row.
// Vectors that fail to decode or whose length differs from the first one
// are left out.
func (m *Modeler) loadMatrix(ctx context.Context) ([]*core.Review, *mat.Dense, int, error) {
	embedded, err := m.repo.FindReviews(ctx, storage.ReviewFilter{Embedding: storage.EmbeddingPresent})
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to load embedded reviews: %w", err)
	}

	reviews := make([]*core.Review, 0, len(embedded))
	var rows [][]float64
	skipped := 0
	for _, r := range embedded {
		v, err := vector.Decode(r.Embedding)
		if err == nil && len(rows) > 0 && len(v) != len(rows[0]) {
			err = fmt.Errorf("%w: %d != %d", vector.ErrDimensionMismatch, len(v), len(rows[0]))
		}
		if err != nil {
			m.logger.Warn("skipping review with unusable embedding", "id", r.Id, "err", err)
			skipped++
			continue
		}
		vector.NormalizeInPlace(v)
		rows = append(rows, v)
		reviews = append(reviews, r)
	}
	if len(rows) == 0 {
		return nil, nil, skipped, nil
	}

	data := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		data.SetRow(i, row)
	}
	return reviews, data, skipped, nil
}

// ListTopics returns the distinct topic labels currently assigned, sorted.
func ListTopics(ctx context.Context, repo storage.ReviewRepository) ([]string, error) {
	return repo.DistinctTopics(ctx)
}
