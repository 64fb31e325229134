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


package stargaze

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/poiesic/stargaze/ai"
	"github.com/poiesic/stargaze/ai/openai"
	"github.com/poiesic/stargaze/core"
	"github.com/poiesic/stargaze/ingestion"
	"github.com/poiesic/stargaze/reembed"
	"github.com/poiesic/stargaze/search"
	"github.com/poiesic/stargaze/storage"
	"github.com/poiesic/stargaze/storage/badger"
)

// Database bundles the repository store, sync state and embedder behind
// one handle.
type Database struct {
	backend   *badger.Backend
	store     *badger.RepositoryStore
	syncState *badger.SyncStateRepository
	embedder  ai.Embedder
	aiConfig  *ai.Config
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	embedder ai.Embedder
	inMemory bool
}

// WithAIConfig sets the embedding service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithEmbedder supplies an embedder instead of building one from the AI config.
func WithEmbedder(embedder ai.Embedder) DatabaseOption {
	return func(o *databaseOptions) {
		o.embedder = embedder
	}
}

// WithInMemory keeps the database in memory. The path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// DatabaseExists reports whether a database directory exists at path.
func DatabaseExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.aiConfig == nil {
		options.aiConfig = ai.DefaultConfig()
	}

	embedder := options.embedder
	if embedder == nil {
		var err error
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	return &Database{
		backend:   backend,
		store:     badger.NewRepositoryStore(backend),
		syncState: badger.NewSyncStateRepository(backend),
		embedder:  embedder,
		aiConfig:  options.aiConfig,
		logger:    slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.store.Close(); err != nil {
		db.logger.Error("error closing repository store", "err", err)
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) Store() storage.RepositoryStore {
	return db.store
}

func (db *Database) SyncState() storage.SyncStateRepository {
	return db.syncState
}

func (db *Database) Embedder() ai.Embedder {
	return db.embedder
}

// Statistics returns repository counts for the stored collection.
func (db *Database) Statistics(ctx context.Context) (*core.Statistics, error) {
	return db.store.Statistics(ctx)
}

// LastSync returns the most recent sync state for operation, or nil.
func (db *Database) LastSync(ctx context.Context, operation string) (*core.SyncState, error) {
	return db.syncState.LoadSyncState(ctx, operation)
}

// NewPipeline creates an ingestion pipeline that records sync state and
// checks embedding dimensions against the AI config. Options given here
// override those defaults.
func (db *Database) NewPipeline(lister ingestion.StarLister, fetcher ingestion.ReadmeFetcher, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	defaults := []ingestion.Option{
		ingestion.WithSyncState(db.syncState),
		ingestion.WithDimensions(db.aiConfig.Dimensions),
	}
	return ingestion.NewPipeline(db.store, lister, fetcher, db.embedder, append(defaults, opts...)...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.store, db.embedder, opts...)
}

func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(db.store, db.embedder, config, progress)
}

// IsEmpty reports whether no repositories are stored.
func (db *Database) IsEmpty(ctx context.Context) (bool, error) {
	stats, err := db.store.Statistics(ctx)
	if err != nil {
		return false, err
	}
	return stats.Total == 0, nil
}
