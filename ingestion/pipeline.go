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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/stargaze/ai"
	"github.com/poiesic/stargaze/core"
	"github.com/poiesic/stargaze/progress"
	"github.com/poiesic/stargaze/storage"
)

// DefaultConcurrency is the ceiling on concurrent README fetches.
// It is kept low so a run does not drain the API budget in a burst.
const DefaultConcurrency = 5

// StarLister lists the repositories starred by the authenticated user.
type StarLister interface {
	ListStarred(ctx context.Context) ([]*core.Repository, error)
}

// ReadmeFetcher retrieves the README of one repository.
// A missing README is an absent core.Readme, not an error.
type ReadmeFetcher interface {
	FetchReadme(ctx context.Context, owner, name string) (core.Readme, error)
}

// Pipeline ingests starred repositories into the store.
type Pipeline struct {
	store       storage.RepositoryStore
	syncState   storage.SyncStateRepository
	lister      StarLister
	fetcher     ReadmeFetcher
	enricher    *enricher
	concurrency int
	dimensions  int
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConcurrency sets the ceiling on concurrent README fetches.
// Default is DefaultConcurrency, with a minimum of 1.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) error {
		p.concurrency = max(n, 1)
		return nil
	}
}

// WithDimensions fails items whose embedding length differs from dims.
// Zero disables the check.
func WithDimensions(dims int) Option {
	return func(p *Pipeline) error {
		if dims < 0 {
			return fmt.Errorf("invalid dimensions %d", dims)
		}
		p.dimensions = dims
		return nil
	}
}

// WithSyncState records the outcome of every run in repo.
func WithSyncState(repo storage.SyncStateRepository) Option {
	return func(p *Pipeline) error {
		p.syncState = repo
		return nil
	}
}

// WithProgress writes progress lines for both stages to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	store storage.RepositoryStore,
	lister StarLister,
	fetcher ReadmeFetcher,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if lister == nil {
		return nil, ErrListerRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		store:       store,
		lister:      lister,
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	p.enricher = &enricher{
		store:      store,
		embedder:   embedder,
		dimensions: p.dimensions,
		logger:     p.logger.With("stage", "enrich"),
	}
	return p, nil
}

// Ingest stores every listed repository that is not stored yet.
// Nothing is removed. Running it twice against an unchanged listing
// processes nothing the second time.
func (p *Pipeline) Ingest(ctx context.Context) (*Report, error) {
	report := p.newReport(OperationIngest)

	diff, err := p.reconcile(ctx)
	if err != nil {
		return nil, err
	}
	report.Listed = diff.Listed
	report.Skipped = diff.Unchanged

	p.logger.Info("ingest started", "run", report.RunID, "listed", diff.Listed,
		"new", len(diff.ToAdd), "skipped", diff.Unchanged)

	err = p.process(ctx, diff.ToAdd, report)
	p.finish(ctx, report)
	return report, err
}

// Refresh reconciles the store against the listing: repositories no longer
// starred are deleted, then new ones are processed as in Ingest. Each
// deletion is independent; a failed one is counted and the run continues.
func (p *Pipeline) Refresh(ctx context.Context) (*Report, error) {
	report := p.newReport(OperationRefresh)

	diff, err := p.reconcile(ctx)
	if err != nil {
		return nil, err
	}
	report.Listed = diff.Listed
	report.Skipped = diff.Unchanged

	if diff.Empty() {
		report.UpToDate = true
		p.logger.Info("store is up to date", "run", report.RunID, "listed", diff.Listed)
		p.finish(ctx, report)
		return report, nil
	}

	p.logger.Info("refresh started", "run", report.RunID, "listed", diff.Listed,
		"new", len(diff.ToAdd), "removed", len(diff.ToRemove))

	for _, id := range diff.ToRemove {
		err := p.store.DeleteRepositories(ctx, id)
		switch {
		case err == nil, errors.Is(err, storage.ErrNotFound):
			report.Removed++
			p.logger.Debug("removed unstarred repository", "id", id)
		default:
			report.RemoveFailed++
			p.logger.Error("error removing repository", "id", id, "err", err)
		}
	}

	err = p.process(ctx, diff.ToAdd, report)
	p.finish(ctx, report)
	return report, err
}

// reconcile lists the remote stars and diffs them against the store.
func (p *Pipeline) reconcile(ctx context.Context) (Diff, error) {
	listing, err := p.lister.ListStarred(ctx)
	if err != nil {
		return Diff{}, fmt.Errorf("%w: %w", ErrListingFailed, err)
	}
	persisted, err := p.store.AllIDs(ctx)
	if err != nil {
		return Diff{}, fmt.Errorf("reading stored ids: %w", err)
	}
	return Reconcile(listing, persisted), nil
}

// process fetches READMEs for items concurrently, then embeds and stores
// them one by one. Per-item failures are recorded in report; only
// cancellation of ctx is returned.
func (p *Pipeline) process(ctx context.Context, items []*core.Repository, report *Report) error {
	if len(items) == 0 {
		return nil
	}

	fetchTracker := progress.NewTracker(p.progress, "Fetching READMEs", len(items), 1)
	fetchTracker.Start()
	results := fetchAll(ctx, items, p.fetcher, p.concurrency, fetchTracker, p.logger.With("stage", "fetch"))
	fetchTracker.Finish()

	embedTracker := progress.NewTracker(p.progress, "Embedding", len(results), 1)
	embedTracker.Start()
	defer embedTracker.Finish()

	for i, res := range results {
		if err := ctx.Err(); err != nil {
			// Items never reached count as failed so every submission has an outcome
			for _, rest := range results[i:] {
				if rest.state.Failed() {
					report.recordFailure(rest.item, rest.state, rest.err)
					continue
				}
				report.recordFailure(rest.item, StateEmbedFailed, err)
			}
			return err
		}

		state, err := res.state, res.err
		if !state.Failed() {
			res.advance(StateEmbedding)
			state, err = p.enricher.process(ctx, res)
		}
		embedTracker.Increment(1)

		if state.Failed() {
			p.logger.Error("error processing repository", "id", res.item.Id, "url", res.item.URL,
				"state", state, "err", err)
			report.recordFailure(res.item, state, err)
			continue
		}
		report.Processed++
		if res.readme.Present() {
			report.WithReadme++
		}
	}
	return nil
}

func (p *Pipeline) newReport(operation string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Operation: operation,
		StartedAt: time.Now(),
	}
}

// finish stamps the duration and persists the run's sync state.
// Failing to save the state is logged, not returned.
func (p *Pipeline) finish(ctx context.Context, report *Report) {
	report.Duration = time.Since(report.StartedAt)
	p.logger.Info("run finished", "run", report.RunID, "operation", report.Operation,
		"processed", report.Processed, "skipped", report.Skipped, "failed", report.Failed,
		"removed", report.Removed, "duration", report.Duration)

	if p.syncState == nil {
		return
	}
	// Saved even when ctx was cancelled so partial runs are visible
	if err := p.syncState.SaveSyncState(context.WithoutCancel(ctx), report.syncState()); err != nil {
		p.logger.Warn("error saving sync state", "err", err)
	}
}
