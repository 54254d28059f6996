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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/poiesic/bares"
	"github.com/poiesic/bares/config"
	"github.com/poiesic/bares/search"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "bares",
		Usage: "Semantic search and topic clustering over venue reviews",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Value:   config.DefaultPath,
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides db.path)",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Embedding provider: hashing or openai (overrides ai.provider)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL (overrides ai.host)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name (overrides ai.model)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Add reviews from a JSON file",
				ArgsUsage: "<file>",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "skip-invalid",
						Usage: "Drop invalid reviews instead of failing the import",
					},
				},
			},
			{
				Name:      "export",
				Usage:     "Write every review as JSON",
				ArgsUsage: "[file]",
				Action:    exportCommand,
			},
			{
				Name:   "precompute",
				Usage:  "Compute embeddings for reviews that lack one",
				Action: precomputeCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of reviews to process in each batch (overrides embed_cache.batch_size)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find reviews matching a free-text query",
				ArgsUsage: "[query...]",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "neighborhood",
						Aliases: []string{"n"},
						Usage:   neighborhoodUsage(),
					},
					&cli.Float64Flag{
						Name:  "min-rating",
						Usage: "Only reviews rated at least this much",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results (overrides search.limit)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print results as JSON",
					},
				},
			},
			{
				Name:      "similar",
				Usage:     "Find reviews of other places similar to a place",
				ArgsUsage: "<place-id>",
				Action:    similarCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results (overrides search.limit)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print results as JSON",
					},
				},
			},
			{
				Name:   "topics",
				Usage:  "Cluster embedded reviews into topics",
				Action: topicsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "target",
						Aliases: []string{"k"},
						Usage:   "Target number of topics (overrides topics.target)",
					},
				},
			},
			{
				Name:   "list-topics",
				Usage:  "Print the topic labels in use",
				Action: listTopicsCommand,
			},
			{
				Name:   "status",
				Usage:  "Show pending embeddings and the last run of each batch operation",
				Action: statusCommand,
			},
			{
				Name:   "compact",
				Usage:  "Reclaim space left behind by rewritten reviews",
				Action: compactCommand,
			},
			{
				Name:   "cells",
				Usage:  "Group reviews by hex cell",
				Action: cellsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "topic",
						Usage: "Only reviews with this topic label",
					},
					&cli.Float64Flag{
						Name:  "min-rating",
						Usage: "Only reviews rated at least this much",
					},
				},
			},
		},
	}
}

func neighborhoodUsage() string {
	return fmt.Sprintf("Only reviews whose name contains this text, such as %s (%s disables the filter)",
		strings.Join(search.Neighborhoods(), ", "), search.AllNeighborhoods)
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("db") {
		cfg.DB.Path = c.String("db")
	}
	if c.IsSet("provider") {
		cfg.AI.Provider = c.String("provider")
	}
	if c.IsSet("embedding-host") {
		cfg.AI.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.AI.Model = c.String("embedding-model")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !c.IsSet("log-level") {
		level, _ := cfg.LogLevel()
		slog.SetDefault(newLogger(level))
	}
	return cfg, nil
}

// openDatabase opens the database described by cfg.
func openDatabase(c *cli.Context, cfg *config.Config) (*bares.Database, error) {
	db, err := bares.NewDatabase(cfg.DB.Path,
		bares.WithAIConfig(cfg.AIConfig()),
		bares.WithEmbedCacheConfig(cfg.EmbedCacheConfig()),
		bares.WithTopicsConfig(cfg.TopicsConfig()),
		bares.WithSearchOptions(cfg.SearchOptions()...),
		bares.WithProgress(c.App.ErrWriter),
		bares.WithSyncWrites(cfg.DB.SyncWrites),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// withDatabase loads the config, opens the database, runs fn and closes it.
func withDatabase(c *cli.Context, fn func(*config.Config, *bares.Database) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cfg, db)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	slog.SetDefault(newLogger(level))

	return nil
}

// newLogger configures slog with the specified level
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
