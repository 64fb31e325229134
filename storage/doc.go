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


// Package storage provides the storage abstraction layer for stargaze.
//
// This package defines repository interfaces that decouple storage implementation
// from the ingestion pipeline and search. The BadgerDB implementation lives in
// storage/badger; tests use its in-memory variant.
//
// # Architecture
//
//   - RepositoryStore: starred repositories keyed by remote ID, including their
//     embedding vectors and a nearest-neighbour query
//   - SyncStateRepository: bookkeeping for the most recent ingest and refresh runs
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	store := badger.NewRepositoryStore(backend)
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access from
// multiple goroutines. Writes are serialized by the underlying transactions, and
// an upsert of the same ID twice is idempotent.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout support.
package storage
