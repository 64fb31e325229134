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
	"time"

	"github.com/poiesic/stargaze"
	"github.com/poiesic/stargaze/ai"
	"github.com/poiesic/stargaze/ai/openai"
	"github.com/poiesic/stargaze/config"
	"github.com/poiesic/stargaze/github"
	"github.com/poiesic/stargaze/ingestion"
	"github.com/poiesic/stargaze/reembed"
	"github.com/urfave/cli/v2"
)

// newEmbedder builds the embedder used by every command.
var newEmbedder func(*ai.Config) (ai.Embedder, error) = openai.NewEmbedder

const logCleanupKey = "log-cleanup"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "stargaze",
		Usage: "Semantic search over your GitHub stars",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also write JSON logs to this file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the database directory (overrides STARGAZE_DB)",
			},
		},
		Before: setupLogger,
		After:  closeLogger,
		Commands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "Fetch starred repositories and store new ones",
				Action: syncCommand(ingestion.OperationIngest),
				Flags:  syncFlags(),
			},
			{
				Name:   "refresh",
				Usage:  "Add new stars and remove unstarred repositories",
				Action: syncCommand(ingestion.OperationRefresh),
				Flags:  syncFlags(),
			},
			{
				Name:      "search",
				Usage:     "Search stored repositories by meaning",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"l"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show database statistics",
				Action: statsCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Recompute embeddings for stored repositories",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-embed repositories whose embedding is already current",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of repositories to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N repositories",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}
}

func syncFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Maximum concurrent README fetches (overrides STARGAZE_FETCH_CONCURRENCY)",
		},
		&cli.Float64Flag{
			Name:  "rate",
			Usage: "Maximum GitHub requests per second, 0 for unpaced (overrides STARGAZE_FETCH_RATE)",
		},
	}
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if db := c.String("db"); db != "" {
		cfg.DBPath = db
	}
	if c.IsSet("concurrency") {
		cfg.FetchConcurrency = c.Int("concurrency")
	}
	if c.IsSet("rate") {
		cfg.FetchRate = c.Float64("rate")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*stargaze.Database, error) {
	aiConfig := cfg.AIConfig()
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	embedder, err := newEmbedder(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	db, err := stargaze.NewDatabase(cfg.DBPath,
		stargaze.WithAIConfig(aiConfig),
		stargaze.WithEmbedder(embedder),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func missingDatabase(path string) error {
	return cli.Exit(fmt.Sprintf("Database not found at %s. Run 'stargaze fetch' first to create it.", path), 1)
}

func syncCommand(operation string) cli.ActionFunc {
	return func(c *cli.Context) error {
		ctx := c.Context
		out := newRenderer(c.App.Writer)

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		if err := cfg.RequireToken(); err != nil {
			return cli.Exit("Error: GITHUB_TOKEN not found in environment variables.\n"+
				"Please create a .env file with your GitHub token.", 1)
		}

		if operation == ingestion.OperationRefresh {
			out.Title("Refreshing GitHub Stars Database...")
		} else {
			out.Title("Fetching GitHub Stars...")
		}

		client := github.NewClient(cfg.GitHubToken,
			github.WithBaseURL(cfg.GitHubAPI),
			github.WithTimeout(cfg.HTTPTimeout),
			github.WithRate(cfg.FetchRate),
		)

		if quota, err := client.QuotaStatus(ctx); err != nil {
			slog.Warn("could not read rate limit status", "err", err)
		} else {
			out.Quota(quota, time.Now())
		}

		user, err := client.User(ctx)
		if err != nil {
			return fmt.Errorf("authenticating with GitHub: %w", err)
		}
		out.printf("\nFetching starred repositories for user: %s\n", user)

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		before, err := db.Statistics(ctx)
		if err != nil {
			return err
		}
		out.Statistics("Database statistics (before)", before)

		pipeline, err := db.NewPipeline(client, client,
			ingestion.WithConcurrency(cfg.FetchConcurrency),
			ingestion.WithProgress(c.App.ErrWriter),
		)
		if err != nil {
			return err
		}

		var report *ingestion.Report
		if operation == ingestion.OperationRefresh {
			report, err = pipeline.Refresh(ctx)
		} else {
			report, err = pipeline.Ingest(ctx)
		}
		if report != nil {
			out.Report(report)
		}
		if err != nil {
			return fmt.Errorf("%s failed: %w", operation, err)
		}

		after, err := db.Statistics(ctx)
		if err != nil {
			return err
		}
		out.Statistics("Database statistics (after)", after)
		out.printf("\nDatabase saved to: %s\n", cfg.DBPath)
		return nil
	}
}

func searchCommand(c *cli.Context) error {
	ctx := c.Context
	out := newRenderer(c.App.Writer)

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return cli.Exit("Error: Please provide a search query", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if !stargaze.DatabaseExists(cfg.DBPath) {
		out.Results(query, nil)
		return nil
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	empty, err := db.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if empty {
		out.Results(query, nil)
		return nil
	}

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}
	results, err := searcher.Search(ctx, query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	out.Results(query, results)
	return nil
}

func statsCommand(c *cli.Context) error {
	ctx := c.Context
	out := newRenderer(c.App.Writer)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if !stargaze.DatabaseExists(cfg.DBPath) {
		return missingDatabase(cfg.DBPath)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.Statistics(ctx)
	if err != nil {
		return err
	}

	out.Title("GitHub Stars Database Statistics")
	out.printf("Total repositories: %d\n", stats.Total)
	out.printf("Embedded repositories: %d\n", stats.Embedded)
	out.printf("Repositories with README: %d\n", stats.WithReadme)
	out.Coverage(stats)

	for _, operation := range []string{ingestion.OperationIngest, ingestion.OperationRefresh} {
		state, err := db.LastSync(ctx, operation)
		if err != nil {
			return err
		}
		out.LastSync(state)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := c.Context

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if !stargaze.DatabaseExists(cfg.DBPath) {
		return missingDatabase(cfg.DBPath)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Force:          c.Bool("force"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reembedder, err := db.NewReembedder(reembedConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.DBPath)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	result, err := reembedder.Run(ctx)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Reembedded %d of %d repositories (%d already current)\n",
		result.Reembedded, result.Total, result.Skipped)
	return nil
}

func setupLogger(c *cli.Context) error {
	level, err := config.ParseLevel(c.String("log-level"))
	if err != nil {
		return err
	}

	logger, cleanup := config.SetupLogger(level, c.String("log-file"))
	slog.SetDefault(logger)
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[logCleanupKey] = cleanup
	return nil
}

func closeLogger(c *cli.Context) error {
	if cleanup, ok := c.App.Metadata[logCleanupKey].(func() error); ok {
		return cleanup()
	}
	return nil
}
