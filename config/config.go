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


package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/bares/ai"
	"github.com/poiesic/bares/embedcache"
	"github.com/poiesic/bares/search"
	"github.com/poiesic/bares/topics"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "bares.yaml"

// Config holds all configuration for the bares tools.
type Config struct {
	DB         DBConfig         `yaml:"db"`
	AI         AIConfig         `yaml:"ai"`
	EmbedCache EmbedCacheConfig `yaml:"embed_cache"`
	Search     SearchConfig     `yaml:"search"`
	Topics     TopicsConfig     `yaml:"topics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DBConfig holds storage configuration.
type DBConfig struct {
	Path string `yaml:"path"`
	// SyncWrites fsyncs every committed batch. Off by default.
	SyncWrites bool `yaml:"sync_writes"`
}

// AIConfig holds embedding model configuration.
type AIConfig struct {
	Provider  string `yaml:"provider"` // "hashing" or "openai"
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

// EmbedCacheConfig holds precompute configuration.
type EmbedCacheConfig struct {
	BatchSize      int           `yaml:"batch_size"`
	ReportInterval int           `yaml:"report_interval"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
}

// SearchConfig holds ranking configuration.
type SearchConfig struct {
	Limit            int     `yaml:"limit"`
	Threshold        float64 `yaml:"threshold"`
	SimilarityWeight float64 `yaml:"similarity_weight"`
	RatingWeight     float64 `yaml:"rating_weight"`
	BatchSize        int     `yaml:"batch_size"`
}

// TopicsConfig holds clustering configuration.
type TopicsConfig struct {
	Target         int   `yaml:"target"`
	MinClusterSize int   `yaml:"min_cluster_size"`
	Restarts       int   `yaml:"restarts"`
	Seed           int64 `yaml:"seed"`
	TopWords       int   `yaml:"top_words"`
	BatchSize      int   `yaml:"batch_size"`
	Workers        int   `yaml:"workers"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration, taken from the defaults
// of each package.
func DefaultConfig() *Config {
	aiCfg := ai.DefaultConfig()
	cacheCfg := embedcache.DefaultConfig()
	topicsCfg := topics.DefaultConfig()

	return &Config{
		DB: DBConfig{
			Path: "bares.db",
		},
		AI: AIConfig{
			Provider:  aiCfg.Provider,
			Host:      aiCfg.EmbeddingHost,
			Model:     aiCfg.EmbeddingModel,
			Dimension: aiCfg.Dimension,
		},
		EmbedCache: EmbedCacheConfig{
			BatchSize:      cacheCfg.BatchSize,
			ReportInterval: cacheCfg.ReportInterval,
			MaxRetries:     cacheCfg.MaxRetries,
			RetryDelay:     cacheCfg.RetryDelay,
		},
		Search: SearchConfig{
			Limit:            search.DefaultLimit,
			Threshold:        search.DefaultThreshold,
			SimilarityWeight: search.DefaultSimilarityWeight,
			RatingWeight:     search.DefaultRatingWeight,
			BatchSize:        search.DefaultBatchSize,
		},
		Topics: TopicsConfig{
			Target:         topicsCfg.TargetTopics,
			MinClusterSize: topicsCfg.MinClusterSize,
			Restarts:       topicsCfg.Restarts,
			Seed:           topicsCfg.Seed,
			TopWords:       topicsCfg.TopWords,
			BatchSize:      topicsCfg.BatchSize,
			Workers:        topicsCfg.Workers,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. Keys missing from the file keep
// their defaults, and a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every section against the rules of the package it configures.
func (c *Config) Validate() error {
	if c.DB.Path == "" {
		return errors.New("config: db.path is required")
	}
	if err := c.AIConfig().Validate(); err != nil {
		return err
	}
	if err := c.EmbedCacheConfig().Validate(); err != nil {
		return err
	}
	if err := c.TopicsConfig().Validate(); err != nil {
		return err
	}
	if c.Search.Threshold < -1 || c.Search.Threshold > 1 {
		return fmt.Errorf("config: search.threshold %v outside [-1, 1]", c.Search.Threshold)
	}
	if c.Search.SimilarityWeight < 0 || c.Search.RatingWeight < 0 {
		return errors.New("config: search weights must not be negative")
	}
	if c.Search.BatchSize <= 0 {
		return fmt.Errorf("config: search.batch_size must be positive, got %d", c.Search.BatchSize)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// AIConfig converts the ai section.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithProvider(c.AI.Provider),
		ai.WithEmbeddingHost(c.AI.Host),
		ai.WithEmbeddingModel(c.AI.Model),
		ai.WithDimension(c.AI.Dimension),
	)
}

// EmbedCacheConfig converts the embed_cache section.
func (c *Config) EmbedCacheConfig() *embedcache.Config {
	return &embedcache.Config{
		BatchSize:      c.EmbedCache.BatchSize,
		ReportInterval: c.EmbedCache.ReportInterval,
		MaxRetries:     c.EmbedCache.MaxRetries,
		RetryDelay:     c.EmbedCache.RetryDelay,
	}
}

// SearchOptions converts the search section.
func (c *Config) SearchOptions() []search.Option {
	return []search.Option{
		search.WithThreshold(c.Search.Threshold),
		search.WithWeights(c.Search.SimilarityWeight, c.Search.RatingWeight),
		search.WithBatchSize(c.Search.BatchSize),
	}
}

// TopicsConfig converts the topics section. Iteration limits keep the
// package defaults.
func (c *Config) TopicsConfig() *topics.Config {
	cfg := topics.DefaultConfig()
	cfg.TargetTopics = c.Topics.Target
	cfg.MinClusterSize = c.Topics.MinClusterSize
	cfg.Restarts = c.Topics.Restarts
	cfg.Seed = c.Topics.Seed
	cfg.TopWords = c.Topics.TopWords
	cfg.BatchSize = c.Topics.BatchSize
	if c.Topics.Workers > 0 {
		cfg.Workers = c.Topics.Workers
	}
	return cfg
}

// LogLevel parses logging.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: invalid logging.level %q", c.Logging.Level)
	}
	return level, nil
}
