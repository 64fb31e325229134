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
	"fmt"
	"log/slog"
	"strings"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/stargaze/core"
	"github.com/poiesic/stargaze/progress"
)

// fetchResult is the outcome of fetching one item's README.
type fetchResult struct {
	item   *core.Repository
	readme core.Readme
	state  ItemState
	err    error
}

// fetchAll fetches READMEs for items on a pool of min(concurrency, len(items))
// workers and returns exactly one result per item, in completion order.
func fetchAll(
	ctx context.Context,
	items []*core.Repository,
	fetcher ReadmeFetcher,
	concurrency int,
	tracker *progress.Tracker,
	logger *slog.Logger,
) []fetchResult {
	if len(items) == 0 {
		return nil
	}

	workers := max(min(concurrency, len(items)), 1)
	results := make(chan fetchResult, len(items))

	pool, err := ants.NewPool(workers)
	if err != nil {
		logger.Error("error creating fetch pool", "err", err)
		for _, item := range items {
			results <- fetchResult{item: item, state: StateFetchFailed, err: err}
		}
	} else {
		defer pool.Release()
		logger.Debug("fetching readmes", "items", len(items), "workers", workers)

		for _, item := range items {
			task := func() {
				results <- fetchOne(ctx, item, fetcher, logger)
				tracker.Increment(1)
			}
			if err := pool.Submit(task); err != nil {
				results <- fetchResult{item: item, state: StateFetchFailed, err: err}
				tracker.Increment(1)
			}
		}
	}

	collected := make([]fetchResult, 0, len(items))
	for range items {
		collected = append(collected, <-results)
	}
	return collected
}

// fetchOne fetches a single README. Panics are converted into a failed result
// so the collector always receives one value per item.
func fetchOne(ctx context.Context, item *core.Repository, fetcher ReadmeFetcher, logger *slog.Logger) (res fetchResult) {
	res = fetchResult{item: item, state: StatePending}
	res.advance(StateFetching)
	defer func() {
		if r := recover(); r != nil {
			res.state = StateFetchFailed
			res.err = fmt.Errorf("panic fetching readme: %v", r)
		}
		if res.err != nil {
			logger.Warn("readme fetch failed", "id", item.Id, "repo", item.FullName, "err", res.err)
		}
	}()

	owner, name := splitFullName(item)
	readme, err := fetcher.FetchReadme(ctx, owner, name)
	switch {
	case err != nil:
		res.advance(StateFetchFailed)
		res.err = err
	case readme.Present():
		res.advance(StateFetchedWithDocument)
		res.readme = readme
	default:
		res.advance(StateFetchedNoDocument)
	}
	return res
}

// advance moves the result to next and reports whether the transition was allowed.
// A disallowed transition leaves the state unchanged.
func (r *fetchResult) advance(next ItemState) bool {
	if !r.state.CanAdvance(next) {
		return false
	}
	r.state = next
	return true
}

// splitFullName returns the owner and name addressing item's README.
func splitFullName(item *core.Repository) (string, string) {
	if owner, name, ok := strings.Cut(item.FullName, "/"); ok {
		return owner, name
	}
	return item.Owner, item.Name
}
