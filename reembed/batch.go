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
	"fmt"
	"time"

	"github.com/poiesic/stargaze/ai"
	"github.com/poiesic/stargaze/core"
	"github.com/poiesic/stargaze/retry"
	"github.com/poiesic/stargaze/storage"
)

// BatchProcessor handles embedding generation and updates for batches of repositories.
type BatchProcessor struct {
	store          storage.RepositoryStore
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
	force          bool
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
// force: re-embed even when the stored digest is current
func NewBatchProcessor(store storage.RepositoryStore, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration, force bool) *BatchProcessor {
	return &BatchProcessor{
		store:          store,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		force:          force,
	}
}

// NeedsEmbedding reports whether repo lacks an embedding computed by model
// from its current text.
func NeedsEmbedding(repo *core.Repository, model string) bool {
	if !repo.Embedded() || repo.EmbeddingDigest == "" {
		return true
	}
	return repo.EmbeddingDigest != core.EmbeddingDigest(model, core.EmbeddingText(repo))
}

// Process embeds the stale repositories of a batch and writes them back.
// Vectors are normalized before storing. Returns the number of repositories updated.
func (bp *BatchProcessor) Process(ctx context.Context, repos []*core.Repository) (int, error) {
	model := bp.embedder.Model()

	var stale []*core.Repository
	for _, repo := range repos {
		if bp.force || NeedsEmbedding(repo, model) {
			stale = append(stale, repo)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	texts := make([]string, len(stale))
	for i, repo := range stale {
		texts[i] = core.EmbeddingText(repo)
	}

	var embeddings [][]float32
	err := retry.WithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(stale) {
		return 0, fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(stale), len(embeddings))
	}

	now := time.Now().UTC()
	for i, repo := range stale {
		repo.Vector = core.NormalizeVector(embeddings[i])
		repo.EmbeddingDigest = core.EmbeddingDigest(model, texts[i])
		repo.ProcessedAt = now
	}

	if err := bp.store.UpsertRepositories(ctx, stale...); err != nil {
		return 0, fmt.Errorf("failed to update repositories: %w", err)
	}
	return len(stale), nil
}
