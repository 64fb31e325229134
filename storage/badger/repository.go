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


package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/stargaze/core"
	"github.com/poiesic/stargaze/storage"
)

// RepositoryStore implements storage.RepositoryStore for BadgerDB.
type RepositoryStore struct {
	backend *Backend
}

var _ storage.RepositoryStore = (*RepositoryStore)(nil)

// NewRepositoryStore creates a new RepositoryStore.
func NewRepositoryStore(backend *Backend) *RepositoryStore {
	return &RepositoryStore{
		backend: backend,
	}
}

// Close is a no-op; the backend owns the database handle.
func (r *RepositoryStore) Close() error {
	return nil
}

// UpsertRepositories inserts or replaces repositories by ID.
func (r *RepositoryStore) UpsertRepositories(ctx context.Context, repos ...*core.Repository) error {
	for _, repo := range repos {
		if err := core.ValidateRepository(repo); err != nil {
			return err
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, repo := range repos {
			if repo.ProcessedAt.IsZero() {
				repo.ProcessedAt = time.Now().UTC()
			}
			value := storage.MarshalRepository(repo)
			if err := tx.Set(makeRepositoryKey(repo.Id), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// RepositoryExists reports whether a repository with the given ID is stored.
func (r *RepositoryStore) RepositoryExists(ctx context.Context, id core.ID) (bool, error) {
	exists := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeRepositoryKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		exists = true
		return nil
	}, false)
	return exists, err
}

// GetRepository retrieves a single repository by ID.
func (r *RepositoryStore) GetRepository(ctx context.Context, id core.ID) (*core.Repository, error) {
	var result *core.Repository
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRepository(tx, makeRepositoryKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// DeleteRepositories removes repositories by their IDs.
func (r *RepositoryStore) DeleteRepositories(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeRepositoryKey(id)
			if _, err := tx.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return storage.ErrNotFound
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// AllIDs returns the IDs of every stored repository.
// Only keys are read; values are never fetched.
func (r *RepositoryStore) AllIDs(ctx context.Context) (core.IDSet, error) {
	ids := make(core.IDSet)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(repositoryPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			id, err := idFromRepositoryKey(iter.Item().Key())
			if err != nil {
				return err
			}
			ids.Add(id)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ForEachRepository calls fn for every stored repository in ID order.
func (r *RepositoryStore) ForEachRepository(ctx context.Context, fn func(*core.Repository) error) error {
	return r.backend.scanRepositories(ctx, fn)
}

// FindNearest delegates to the backend.
func (r *RepositoryStore) FindNearest(ctx context.Context, vector []float32, k int) ([]*core.SearchResult, error) {
	return r.backend.FindNearest(ctx, vector, k)
}

// Statistics counts stored, embedded and README-bearing repositories.
func (r *RepositoryStore) Statistics(ctx context.Context) (*core.Statistics, error) {
	stats := &core.Statistics{}
	err := r.backend.scanRepositories(ctx, func(repo *core.Repository) error {
		stats.Total++
		if repo.Embedded() {
			stats.Embedded++
		}
		if repo.HasReadme() {
			stats.WithReadme++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// readRepository reads a repository by key within a transaction.
// Returns nil, nil if the key does not exist.
func readRepository(tx *badger.Txn, key []byte) (*core.Repository, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var repo *core.Repository
	err = item.Value(func(val []byte) error {
		var err error
		repo, err = storage.UnmarshalRepository(val)
		return err
	})
	return repo, err
}
