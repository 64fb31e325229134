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
	"encoding/binary"
	"fmt"

	"github.com/poiesic/stargaze/core"
)

// MarshalID serializes an ID to bytes.
// Big-endian order keeps keys built from IDs sorted numerically.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) < 8 {
		return 0, ErrTruncatedData
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

// MarshalRepository serializes a Repository to bytes.
func MarshalRepository(repo *core.Repository) []byte {
	buf := make([]byte, core.RepositoryMUS.Size(*repo))
	core.RepositoryMUS.Marshal(*repo, buf)
	return buf
}

// UnmarshalRepository deserializes a Repository from bytes.
// Timestamps come back in UTC.
func UnmarshalRepository(data []byte) (*core.Repository, error) {
	repo, _, err := core.RepositoryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	repo.CreatedAt = repo.CreatedAt.UTC()
	repo.UpdatedAt = repo.UpdatedAt.UTC()
	repo.ProcessedAt = repo.ProcessedAt.UTC()
	return &repo, nil
}

// MarshalSyncState serializes a SyncState to bytes.
func MarshalSyncState(state *core.SyncState) []byte {
	buf := make([]byte, core.SyncStateMUS.Size(*state))
	core.SyncStateMUS.Marshal(*state, buf)
	return buf
}

// UnmarshalSyncState deserializes a SyncState from bytes.
func UnmarshalSyncState(data []byte) (*core.SyncState, error) {
	state, _, err := core.SyncStateMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	state.UpdatedAt = state.UpdatedAt.UTC()
	return &state, nil
}
