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

import "errors"

var (
	// ErrStoreRequired is returned when a repository store is not provided.
	ErrStoreRequired = errors.New("repository store required")

	// ErrListerRequired is returned when a star lister is not provided.
	ErrListerRequired = errors.New("star lister required")

	// ErrFetcherRequired is returned when a README fetcher is not provided.
	ErrFetcherRequired = errors.New("readme fetcher required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrListingFailed wraps failures to obtain the remote listing.
	ErrListingFailed = errors.New("listing starred repositories failed")

	// ErrEmptyEmbedding is recorded when the embedder returns no vector.
	ErrEmptyEmbedding = errors.New("embedder returned an empty vector")

	// ErrNotReadyForEmbedding is recorded when an item reaches the enricher outside the embedding state.
	ErrNotReadyForEmbedding = errors.New("item is not ready for embedding")
)
