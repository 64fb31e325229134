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

	"github.com/poiesic/stargaze/core"
	"github.com/poiesic/stargaze/storage"
)

const (
	// DefaultBatchSize is the default number of records to embed in each batch
	DefaultBatchSize = 100
)

// RecordIterator iterates over all stored repositories in batches.
type RecordIterator struct {
	store     storage.RepositoryStore
	batchSize int
}

// NewRecordIterator creates a new record iterator.
// batchSize: number of records per batch; non-positive values use DefaultBatchSize
func NewRecordIterator(store storage.RepositoryStore, batchSize int) *RecordIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &RecordIterator{
		store:     store,
		batchSize: batchSize,
	}
}

// Load reads every stored repository in ID order.
// The snapshot is taken up front so batches can be written back while iterating.
func (it *RecordIterator) Load(ctx context.Context) ([]*core.Repository, error) {
	var repos []*core.Repository
	err := it.store.ForEachRepository(ctx, func(repo *core.Repository) error {
		repos = append(repos, repo)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return repos, nil
}

// ForEach calls fn for each batch of stored repositories.
// Iteration stops on first error from fn or when all records are processed.
// Context cancellation is checked between batches.
func (it *RecordIterator) ForEach(ctx context.Context, fn func([]*core.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	repos, err := it.Load(ctx)
	if err != nil {
		return err
	}
	return it.forEachBatch(ctx, repos, fn)
}

func (it *RecordIterator) forEachBatch(ctx context.Context, repos []*core.Repository, fn func([]*core.Repository) error) error {
	for i := 0; i < len(repos); i += it.batchSize {
		end := min(i+it.batchSize, len(repos))
		if err := fn(repos[i:end]); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
