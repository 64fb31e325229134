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

// SyncStateRepository implements storage.SyncStateRepository for BadgerDB.
type SyncStateRepository struct {
	backend *Backend
}

var _ storage.SyncStateRepository = (*SyncStateRepository)(nil)

// NewSyncStateRepository creates a new SyncStateRepository.
func NewSyncStateRepository(backend *Backend) *SyncStateRepository {
	return &SyncStateRepository{
		backend: backend,
	}
}

// SaveSyncState persists the state of an operation.
func (r *SyncStateRepository) SaveSyncState(ctx context.Context, state *core.SyncState) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		state.UpdatedAt = time.Now().UTC()
		value := storage.MarshalSyncState(state)
		if err := tx.Set(makeSyncStateKey(state.Operation), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadSyncState retrieves the state of an operation.
// Returns nil, nil if no state exists.
func (r *SyncStateRepository) LoadSyncState(ctx context.Context, operation string) (*core.SyncState, error) {
	var state *core.SyncState
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSyncStateKey(operation))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			state, unmarshalErr = storage.UnmarshalSyncState(val)
			return unmarshalErr
		})
	}, false)

	return state, err
}
