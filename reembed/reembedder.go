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


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/stargaze/ai"
	"github.com/poiesic/stargaze/core"
	"github.com/poiesic/stargaze/progress"
	"github.com/poiesic/stargaze/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of records to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for failed embedding calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Force re-embeds records whose stored digest is current
	Force bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Result summarises a reembedding run.
type Result struct {
	Total      int
	Reembedded int
	Skipped    int
	Elapsed    time.Duration
}

// Reembedder orchestrates the reembedding of all stored repositories.
type Reembedder struct {
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *RecordIterator
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr); nil discards it
func NewReembedder(store storage.RepositoryStore, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(store, embedder, config.MaxRetries, config.RetryDelay, config.Force),
		iterator:  NewRecordIterator(store, config.BatchSize),
		logger:    slog.Default().With("component", "reembed"),
	}, nil
}

// Run re-embeds every stale repository with the configured embedder.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) (*Result, error) {
	repos, err := r.iterator.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load repositories: %w", err)
	}

	result := &Result{Total: len(repos)}
	if result.Total == 0 {
		fmt.Fprintf(r.progress, "No repositories found in database (0 records)\n")
		return result, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d repositories with %s (batch size: %d)\n",
		result.Total, r.embedder.Model(), r.iterator.batchSize)

	tracker := progress.NewTracker(r.progress, "Reembedding", result.Total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.forEachBatch(ctx, repos, func(batch []*core.Repository) error {
		updated, err := r.processor.Process(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		result.Reembedded += updated
		processed += len(batch)
		tracker.Update(processed)
		return nil
	})
	result.Skipped = processed - result.Reembedded
	result.Elapsed = tracker.Elapsed()
	if err != nil {
		return result, err
	}

	tracker.Finish()
	r.logger.Info("reembedding complete", "total", result.Total, "reembedded", result.Reembedded,
		"skipped", result.Skipped, "elapsed", result.Elapsed)
	fmt.Fprintf(r.progress, "Reembedding complete. Updated %d of %d repositories in %v\n",
		result.Reembedded, result.Total, result.Elapsed.Round(time.Millisecond))

	return result, nil
}
