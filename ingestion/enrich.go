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
	"time"

	"github.com/poiesic/stargaze/ai"
	"github.com/poiesic/stargaze/core"
	"github.com/poiesic/stargaze/storage"
)

// enricher embeds fetched repositories and writes them to the store, one at a time.
type enricher struct {
	store      storage.RepositoryStore
	embedder   ai.Embedder
	dimensions int
	logger     *slog.Logger
}

// process embeds and stores one fetched item, returning its terminal state.
// The listed record itself is never modified.
func (e *enricher) process(ctx context.Context, res fetchResult) (ItemState, error) {
	if res.state != StateEmbedding {
		return StateEmbedFailed, fmt.Errorf("%w: %s", ErrNotReadyForEmbedding, res.state)
	}
	record := *res.item
	record.Readme = ""
	record.ReadmeFormat = core.ReadmeAbsent
	if res.readme.Present() {
		record.Readme = res.readme.Content
		record.ReadmeFormat = res.readme.Format
	}

	text := core.EmbeddingText(&record)
	vector, err := e.embedder.EmbedText(ctx, text)
	if err != nil {
		return StateEmbedFailed, fmt.Errorf("embedding: %w", err)
	}
	if len(vector) == 0 {
		return StateEmbedFailed, ErrEmptyEmbedding
	}
	if e.dimensions > 0 && len(vector) != e.dimensions {
		return StateEmbedFailed, fmt.Errorf("%w: got %d, want %d", core.ErrDimensionMismatch, len(vector), e.dimensions)
	}

	record.Vector = core.NormalizeVector(vector)
	record.EmbeddingDigest = core.EmbeddingDigest(e.embedder.Model(), text)
	record.ProcessedAt = time.Now().UTC()

	if err := e.store.UpsertRepositories(ctx, &record); err != nil {
		return StateStoreFailed, fmt.Errorf("storing: %w", err)
	}

	e.logger.Debug("stored repository", "id", record.Id, "repo", record.FullName, "readme", record.ReadmeFormat)
	return StateStored, nil
}
