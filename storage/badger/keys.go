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
	"github.com/poiesic/stargaze/core"
	"github.com/poiesic/stargaze/storage"
)

// Key prefixes for different data types
const (
	repositoryPrefix = "repo:"
	syncStatePrefix  = "sync:"
)

// makeRepositoryKey generates a key for a repository by ID.
// Format: prefix + 8 byte big-endian ID, so iteration follows ID order.
func makeRepositoryKey(id core.ID) []byte {
	prefix := []byte(repositoryPrefix)
	buf := make([]byte, 0, len(prefix)+8)
	buf = append(buf, prefix...)
	return append(buf, storage.MarshalID(id)...)
}

// idFromRepositoryKey extracts the repository ID from a repository key.
func idFromRepositoryKey(key []byte) (core.ID, error) {
	return storage.UnmarshalID(key[len(repositoryPrefix):])
}

// makeSyncStateKey generates a key for the sync state of an operation.
func makeSyncStateKey(operation string) []byte {
	return []byte(syncStatePrefix + operation)
}
