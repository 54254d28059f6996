package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/poiesic/bares"
	"github.com/poiesic/bares/ai"
	"github.com/poiesic/bares/config"
	"github.com/poiesic/bares/core"
	"github.com/poiesic/bares/ingestion"
	"github.com/poiesic/bares/search"
	"github.com/poiesic/bares/storage"
	"github.com/urfave/cli/v2"
)

// reviewJSON is the file format of import and export.
type reviewJSON struct {
	PlaceID  string   `json:"place_id"`
	Name     string   `json:"name"`
	Text     string   `json:"text"`
	Rating   *float64 `json:"rating"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Category string   `json:"category,omitempty"`
	Source   string   `json:"source,omitempty"`
	Language string   `json:"language,omitempty"`
	Topic    string   `json:"topic,omitempty"`
	HexIndex string   `json:"h3_index,omitempty"`
}

func (r reviewJSON) review() *core.Review {
	return &core.Review{
		PlaceID:  r.PlaceID,
		Name:     r.Name,
		Text:     r.Text,
		Rating:   r.Rating,
		Lat:      r.Lat,
		Lon:      r.Lon,
		Category: r.Category,
		Source:   r.Source,
		Language: r.Language,
	}
}

func toReviewJSON(r *core.Review) reviewJSON {
	return reviewJSON{
		PlaceID:  r.PlaceID,
		Name:     r.Name,
		Text:     r.Text,
		Rating:   r.Rating,
		Lat:      r.Lat,
		Lon:      r.Lon,
		Category: r.Category,
		Source:   r.Source,
		Language: r.Language,
		Topic:    r.Topic,
		HexIndex: r.HexIndex,
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func importCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("review file is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var records []reviewJSON
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		fmt.Fprintln(c.App.Writer, "No reviews to import")
		return nil
	}

	return withDatabase(c, func(_ *config.Config, db *bares.Database) error {
		ingester, err := ingestion.NewIngester(db.ReviewRepository(),
			ingestion.WithSkipInvalid(c.Bool("skip-invalid")))
		if err != nil {
			return err
		}

		reviews := make([]*core.Review, len(records))
		for i, r := range records {
			reviews[i] = r.review()
		}
		stored, err := ingester.Ingest(c.Context, reviews...)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Imported %d of %d reviews\n", len(stored), len(records))
		return nil
	})
}

func exportCommand(c *cli.Context) error {
	return withDatabase(c, func(_ *config.Config, db *bares.Database) error {
		reviews, err := db.ReviewRepository().FindReviews(c.Context, storage.ReviewFilter{})
		if err != nil {
			return err
		}
		out := make([]reviewJSON, len(reviews))
		for i, r := range reviews {
			out[i] = toReviewJSON(r)
		}

		w := c.App.Writer
		if path := c.Args().First(); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return writeJSON(w, out)
	})
}

func precomputeCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("batch-size") {
		cfg.EmbedCache.BatchSize = c.Int("batch-size")
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.DB.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding provider: %s\n", cfg.AI.Provider)
	if cfg.AI.Provider == ai.ProviderOpenAI {
		fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.AI.Host)
		fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.AI.Model)
	}
	fmt.Fprintln(c.App.ErrWriter)

	report, err := db.PrecomputeEmbeddings(c.Context)
	if err != nil {
		return fmt.Errorf("precompute failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Embedded %d reviews (%d skipped)\n", report.Updated, report.Skipped)
	for _, item := range report.Items {
		if item.Reason != "" {
			fmt.Fprintf(c.App.Writer, "  skipped %d (%s): %s\n", item.ID, item.PlaceID, item.Reason)
		}
	}
	return nil
}

func searchLimit(c *cli.Context, cfg *config.Config) int {
	if c.IsSet("limit") {
		return c.Int("limit")
	}
	return cfg.Search.Limit
}

func searchCommand(c *cli.Context) error {
	return withDatabase(c, func(cfg *config.Config, db *bares.Database) error {
		filters := search.Filters{Neighborhood: c.String("neighborhood")}
		if c.IsSet("min-rating") {
			minRating := c.Float64("min-rating")
			filters.MinRating = &minRating
		}

		query := strings.Join(c.Args().Slice(), " ")
		results, err := db.Search(c.Context, query, filters, searchLimit(c, cfg))
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return printResults(c, results)
	})
}

func similarCommand(c *cli.Context) error {
	placeID := c.Args().First()
	if placeID == "" {
		return errors.New("place id is required")
	}
	return withDatabase(c, func(cfg *config.Config, db *bares.Database) error {
		results, err := db.SimilarTo(c.Context, placeID, searchLimit(c, cfg))
		if err != nil {
			return err
		}
		return printResults(c, results)
	})
}

func printResults(c *cli.Context, results []core.SearchResult) error {
	if c.Bool("json") {
		return writeJSON(c.App.Writer, results)
	}

	fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(results))
	for i, r := range results {
		rating := "-"
		if r.Rating != nil {
			rating = fmt.Sprintf("%.1f", *r.Rating)
		}
		fmt.Fprintf(c.App.Writer, "%d: %s [%s] rating=%s similarity=%.3f score=%.3f\n",
			i+1, r.Name, r.PlaceID, rating, r.SimilarityScore, r.CombinedScore)
		if r.Topic != "" {
			fmt.Fprintf(c.App.Writer, "   %s\n", r.Topic)
		}
		fmt.Fprintf(c.App.Writer, "   %s\n", r.Text)
	}
	return nil
}

func topicsCommand(c *cli.Context) error {
	return withDatabase(c, func(cfg *config.Config, db *bares.Database) error {
		target := cfg.Topics.Target
		if c.IsSet("target") {
			target = c.Int("target")
		}

		ok, report, err := db.RunTopicModeling(c.Context, target)
		if err != nil {
			return fmt.Errorf("topic modeling failed: %w", err)
		}
		if !ok {
			fmt.Fprintln(c.App.Writer, "No embedded reviews to cluster")
			return nil
		}

		fmt.Fprintf(c.App.Writer, "Clustered %d reviews into %d topics\n", report.Reviews, len(report.Clusters))
		for _, cluster := range report.Clusters {
			fmt.Fprintf(c.App.Writer, "%4d  %s\n", cluster.Size, cluster.Label)
		}
		if report.Skipped > 0 {
			fmt.Fprintf(c.App.Writer, "Skipped %d reviews with unusable embeddings\n", report.Skipped)
		}
		if report.HexFailures > 0 {
			fmt.Fprintf(c.App.Writer, "Failed to index %d reviews\n", report.HexFailures)
		}
		return nil
	})
}

func listTopicsCommand(c *cli.Context) error {
	return withDatabase(c, func(_ *config.Config, db *bares.Database) error {
		labels, err := db.Topics(c.Context)
		if err != nil {
			return err
		}
		for _, label := range labels {
			fmt.Fprintln(c.App.Writer, label)
		}
		return nil
	})
}

func cellsCommand(c *cli.Context) error {
	return withDatabase(c, func(_ *config.Config, db *bares.Database) error {
		var minRating *float64
		if c.IsSet("min-rating") {
			v := c.Float64("min-rating")
			minRating = &v
		}

		cells, err := db.Cells(c.Context, c.String("topic"), minRating)
		if err != nil {
			return err
		}
		for _, cell := range cells {
			total := 0.0
			rated := 0
			for _, r := range cell.Reviews {
				if r.Rating != nil {
					total += *r.Rating
					rated++
				}
			}
			avg := "-"
			if rated > 0 {
				avg = fmt.Sprintf("%.2f", total/float64(rated))
			}
			fmt.Fprintf(c.App.Writer, "%s  reviews=%d  avg_rating=%s\n", cell.HexIndex, len(cell.Reviews), avg)
		}
		return nil
	})
}

func statusCommand(c *cli.Context) error {
	return withDatabase(c, func(_ *config.Config, db *bares.Database) error {
		total, err := db.ReviewRepository().CountReviews(c.Context, storage.ReviewFilter{})
		if err != nil {
			return err
		}
		missing, err := db.MissingEmbeddings(c.Context)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Reviews: %d (%d waiting for an embedding)\n", total, missing)

		checkpoints, err := db.Checkpoints(c.Context)
		if err != nil {
			return err
		}
		if len(checkpoints) == 0 {
			fmt.Fprintln(c.App.Writer, "No batch operations have run")
		}
		for _, cp := range checkpoints {
			fmt.Fprintf(c.App.Writer, "%s: %d reviews at %s\n", cp.Operation, cp.Processed, cp.UpdatedAt.Format(time.RFC3339))
		}
		return nil
	})
}

func compactCommand(c *cli.Context) error {
	return withDatabase(c, func(_ *config.Config, db *bares.Database) error {
		rewritten, err := db.Compact()
		if err != nil {
			return fmt.Errorf("compaction failed: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Rewrote %d value log files\n", rewritten)
		return nil
	})
}
