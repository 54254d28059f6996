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


package bares

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/poiesic/bares/ai"
	"github.com/poiesic/bares/ai/hashing"
	"github.com/poiesic/bares/ai/openai"
	"github.com/poiesic/bares/core"
	"github.com/poiesic/bares/embedcache"
	"github.com/poiesic/bares/geo"
	"github.com/poiesic/bares/ingestion"
	"github.com/poiesic/bares/search"
	"github.com/poiesic/bares/storage"
	"github.com/poiesic/bares/storage/badger"
	"github.com/poiesic/bares/topics"
)

// NewModel returns a lazy embedding handle for the provider named in config.
// Nothing is loaded until the first embedding is requested.
func NewModel(config *ai.Config, opts ...ai.ModelOption) (*ai.Model, error) {
	if config == nil {
		config = ai.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var load ai.Loader
	switch config.Provider {
	case ai.ProviderOpenAI:
		load = func(context.Context) (ai.Embedder, error) {
			return openai.NewEmbedder(config)
		}
	default:
		load = func(context.Context) (ai.Embedder, error) {
			return hashing.NewEmbedder(config.Dimension)
		}
	}
	return ai.NewModel(load, opts...)
}

type Database struct {
	backend        *badger.Backend
	reviewRepo     *badger.ReviewRepository
	checkpointRepo storage.CheckpointRepository
	model          *ai.Model
	cache          *embedcache.Manager
	searcher       *search.Searcher
	modeler        *topics.Modeler
	ingester       *ingestion.Ingester
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig      *ai.Config
	cacheConfig   *embedcache.Config
	topicsConfig  *topics.Config
	searchOptions []search.Option
	indexer       geo.Indexer
	progress      io.Writer
	inMemory      bool
	syncWrites    bool
	logger        *slog.Logger
}

// WithAIConfig sets the embedding model configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithEmbedCacheConfig sets the precompute configuration.
func WithEmbedCacheConfig(config *embedcache.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.cacheConfig = config
	}
}

// WithTopicsConfig sets the clustering configuration.
func WithTopicsConfig(config *topics.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.topicsConfig = config
	}
}

// WithSearchOptions adds options for the searcher.
func WithSearchOptions(opts ...search.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.searchOptions = append(o.searchOptions, opts...)
	}
}

// WithIndexer sets the hex indexer used on ingestion and clustering.
func WithIndexer(indexer geo.Indexer) DatabaseOption {
	return func(o *databaseOptions) {
		o.indexer = indexer
	}
}

// WithProgress sets where precompute progress is written.
func WithProgress(w io.Writer) DatabaseOption {
	return func(o *databaseOptions) {
		o.progress = w
	}
}

// WithInMemory keeps the store in memory. The path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithSyncWrites makes every committed write fsync before returning.
func WithSyncWrites(sync bool) DatabaseOption {
	return func(o *databaseOptions) {
		o.syncWrites = sync
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig:     ai.DefaultConfig(),
		cacheConfig:  embedcache.DefaultConfig(),
		topicsConfig: topics.DefaultConfig(),
		indexer:      geo.H3{},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	model, err := NewModel(options.aiConfig, ai.WithModelLogger(options.logger))
	if err != nil {
		return nil, err
	}

	// Open backend
	backendOpts := []badger.BackendOption{
		badger.WithBackendLogger(options.logger),
		badger.WithSyncWrites(options.syncWrites),
	}
	if options.inMemory {
		backendOpts = append(backendOpts, badger.InMemory())
	}
	backend, err := badger.OpenBackend(filePath, backendOpts...)
	if err != nil {
		return nil, err
	}

	reviewRepo, err := badger.NewReviewRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	checkpointRepo := badger.NewCheckpointRepository(backend)

	db := &Database{
		backend:        backend,
		reviewRepo:     reviewRepo,
		checkpointRepo: checkpointRepo,
		model:          model,
		logger:         options.logger,
	}
	if err := db.wire(options); err != nil {
		reviewRepo.Close()
		backend.Close()
		return nil, err
	}
	return db, nil
}

func (db *Database) wire(options *databaseOptions) error {
	var err error
	db.cache, err = embedcache.NewManager(db.reviewRepo, db.model,
		embedcache.WithConfig(options.cacheConfig),
		embedcache.WithCheckpoints(db.checkpointRepo),
		embedcache.WithProgress(options.progress),
		embedcache.WithLogger(options.logger),
	)
	if err != nil {
		return err
	}

	searchOpts := append([]search.Option{search.WithLogger(options.logger)}, options.searchOptions...)
	db.searcher, err = search.NewSearcher(db.reviewRepo, db.model, searchOpts...)
	if err != nil {
		return err
	}

	db.modeler, err = topics.NewModeler(db.reviewRepo, db.cache,
		topics.WithConfig(options.topicsConfig),
		topics.WithIndexer(options.indexer),
		topics.WithLogger(options.logger),
	)
	if err != nil {
		return err
	}

	db.ingester, err = ingestion.NewIngester(db.reviewRepo,
		ingestion.WithIndexer(options.indexer),
		ingestion.WithLogger(options.logger),
	)
	return err
}

func (db *Database) Close() error {
	if err := db.reviewRepo.Close(); err != nil {
		db.logger.Error("error closing review repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ReviewRepository() storage.ReviewRepository {
	return db.reviewRepo
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpointRepo
}

// Model returns the shared embedding handle.
func (db *Database) Model() *ai.Model {
	return db.model
}

// Ingest validates and stores new reviews.
func (db *Database) Ingest(ctx context.Context, reviews ...*core.Review) ([]*core.Review, error) {
	return db.ingester.Ingest(ctx, reviews...)
}

// PrecomputeEmbeddings fills the embedding of every review with text that lacks one.
func (db *Database) PrecomputeEmbeddings(ctx context.Context) (*embedcache.Report, error) {
	return db.cache.Precompute(ctx)
}

// Search ranks embedded reviews against query.
func (db *Database) Search(ctx context.Context, query string, filters search.Filters, limit int) ([]core.SearchResult, error) {
	return db.searcher.Search(ctx, query, filters, limit)
}

// SimilarTo ranks reviews of other places against placeID.
func (db *Database) SimilarTo(ctx context.Context, placeID string, limit int) ([]core.SearchResult, error) {
	return db.searcher.SimilarTo(ctx, placeID, limit)
}

// TopicsCheckpointOperation names the checkpoint saved after a topic run.
const TopicsCheckpointOperation = "topics"

// RunTopicModeling clusters the embedded reviews into about targetTopics topics.
// A completed run records how many reviews it labelled as a checkpoint.
func (db *Database) RunTopicModeling(ctx context.Context, targetTopics int) (bool, *topics.Report, error) {
	ran, report, err := db.modeler.Run(ctx, targetTopics)
	if err != nil || !ran {
		return ran, report, err
	}
	cp := &core.Checkpoint{Operation: TopicsCheckpointOperation, Processed: int64(report.Reviews)}
	if err := db.checkpointRepo.SaveCheckpoint(ctx, cp); err != nil {
		db.logger.Warn("failed to save checkpoint", "operation", cp.Operation, "err", err)
	}
	return ran, report, nil
}

// Topics returns the topic labels in use.
func (db *Database) Topics(ctx context.Context) ([]string, error) {
	return topics.ListTopics(ctx, db.reviewRepo)
}

// Cells groups indexed reviews by hex cell. An empty topic matches every
// review and a nil minRating disables the rating filter.
func (db *Database) Cells(ctx context.Context, topic string, minRating *float64) ([]geo.Cell, error) {
	reviews, err := db.reviewRepo.FindReviews(ctx, storage.ReviewFilter{MinRating: minRating})
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	if topic != "" {
		reviews = slices.DeleteFunc(reviews, func(r *core.Review) bool {
			return r.Topic != topic
		})
	}
	return geo.GroupByCell(reviews), nil
}

// LastPrecompute returns the checkpoint of the last precompute run, or nil.
func (db *Database) LastPrecompute(ctx context.Context) (*core.Checkpoint, error) {
	return db.checkpointRepo.LoadCheckpoint(ctx, embedcache.CheckpointOperation)
}

// Checkpoints returns the last recorded run of every batch operation.
func (db *Database) Checkpoints(ctx context.Context) ([]*core.Checkpoint, error) {
	return db.checkpointRepo.ListCheckpoints(ctx)
}

// MissingEmbeddings counts reviews with text still waiting for an embedding.
func (db *Database) MissingEmbeddings(ctx context.Context) (int, error) {
	return db.cache.Missing(ctx)
}

// Compact reclaims store space left behind by rewritten reviews.
func (db *Database) Compact() (int, error) {
	return db.backend.Compact()
}
