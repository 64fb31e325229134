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


package storage

import (
	"context"

	"github.com/poiesic/stargaze/core"
)

// RepositoryStore persists starred repositories keyed by their remote ID.
// Implementations must be thread-safe and support concurrent access.
type RepositoryStore interface {
	// UpsertRepositories inserts or replaces repositories by ID.
	// Writing the same record twice is safe; the last write wins.
	UpsertRepositories(ctx context.Context, repos ...*core.Repository) error

	// RepositoryExists reports whether a repository with the given ID is stored.
	RepositoryExists(ctx context.Context, id core.ID) (bool, error)

	// GetRepository retrieves a single repository by ID.
	// Returns ErrNotFound if the repository doesn't exist.
	GetRepository(ctx context.Context, id core.ID) (*core.Repository, error)

	// DeleteRepositories removes repositories by their IDs.
	// Returns ErrNotFound if any repository doesn't exist.
	DeleteRepositories(ctx context.Context, ids ...core.ID) error

	// AllIDs returns the IDs of every stored repository.
	AllIDs(ctx context.Context) (core.IDSet, error)

	// ForEachRepository calls fn for every stored repository in ID order.
	// Iteration stops at the first error returned by fn.
	ForEachRepository(ctx context.Context, fn func(*core.Repository) error) error

	// FindNearest returns up to k embedded repositories closest to vector,
	// ordered by ascending distance.
	FindNearest(ctx context.Context, vector []float32, k int) ([]*core.SearchResult, error)

	// Statistics counts stored, embedded and README-bearing repositories.
	Statistics(ctx context.Context) (*core.Statistics, error)

	// Close releases resources held by the store.
	Close() error
}

// SyncStateRepository persists the outcome of the most recent pipeline runs.
type SyncStateRepository interface {
	// SaveSyncState stores the state for its operation, replacing any previous value.
	SaveSyncState(ctx context.Context, state *core.SyncState) error

	// LoadSyncState retrieves the state for an operation.
	// Returns nil, nil if the operation has never run.
	LoadSyncState(ctx context.Context, operation string) (*core.SyncState, error)
}
