package main

import (
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"

	"github.com/poiesic/bares"
	"github.com/poiesic/bares/core"
)

var (
	dbPath          = flag.String("db", "./bares_db", "path to the database directory")
	seed            = flag.Int64("seed", 1, "random seed for the sample data")
	perNeighborhood = flag.Int("per-neighborhood", 5, "reviews generated per neighborhood")
	precompute      = flag.Bool("precompute", false, "compute embeddings after seeding")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// reviewIngester stores a batch of reviews.
type reviewIngester interface {
	Ingest(ctx context.Context, reviews ...*core.Review) ([]*core.Review, error)
}

// ingestBatched reads from a source iterator and ingests reviews in batches.
// Returns the number of reviews stored.
func ingestBatched(ctx context.Context, ingester reviewIngester, source iter.Seq[*core.Review], batchSize int) (int, error) {
	batch := make([]*core.Review, 0, batchSize)
	total := 0

	for review := range source {
		batch = append(batch, review)
		if len(batch) == batchSize {
			stored, err := ingester.Ingest(ctx, batch...)
			if err != nil {
				return total, err
			}
			total += len(stored)
			batch = batch[:0]
		}
	}

	// Process any remaining reviews
	if len(batch) > 0 {
		stored, err := ingester.Ingest(ctx, batch...)
		if err != nil {
			return total, err
		}
		total += len(stored)
	}

	return total, nil
}

func main() {
	flag.Parse()

	db, err := bares.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ctx := context.Background()

	// Ingest in batches of 5
	total, err := ingestBatched(ctx, db, sampleReviews(*seed, *perNeighborhood), 5)
	if err != nil {
		panic(err)
	}
	slog.Info("inserted sample reviews", "count", total, "db", *dbPath)

	if *precompute {
		report, err := db.PrecomputeEmbeddings(ctx)
		if err != nil {
			panic(err)
		}
		slog.Info("computed embeddings", "updated", report.Updated, "skipped", report.Skipped)
	}
}
