package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/stargaze/ai/mock"
	"github.com/poiesic/stargaze/core"
	"github.com/poiesic/stargaze/storage"
	"github.com/poiesic/stargaze/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLister returns a fixed listing.
type fakeLister struct {
	mu    sync.Mutex
	repos []*core.Repository
	err   error
}

func (f *fakeLister) ListStarred(ctx context.Context) ([]*core.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.repos, f.err
}

func (f *fakeLister) set(repos ...*core.Repository) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repos = repos
}

// fakeFetcher serves READMEs keyed by "owner/name"; unknown repos have none.
type fakeFetcher struct {
	mu      sync.Mutex
	readmes map[string]core.Readme
	errs    map[string]error
	panics  map[string]bool
	calls   []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		readmes: make(map[string]core.Readme),
		errs:    make(map[string]error),
		panics:  make(map[string]bool),
	}
}

func (f *fakeFetcher) FetchReadme(ctx context.Context, owner, name string) (core.Readme, error) {
	key := owner + "/" + name
	f.mu.Lock()
	f.calls = append(f.calls, key)
	readme, err, panics := f.readmes[key], f.errs[key], f.panics[key]
	f.mu.Unlock()

	if panics {
		panic("fetcher exploded")
	}
	return readme, err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func repo(id core.ID) *core.Repository {
	return &core.Repository{
		Id:          id,
		FullName:    fmt.Sprintf("octo/repo-%d", id),
		Name:        fmt.Sprintf("repo-%d", id),
		Owner:       "octo",
		Description: fmt.Sprintf("repository number %d", id),
		URL:         fmt.Sprintf("https://github.com/octo/repo-%d", id),
		Stars:       int(id),
	}
}

type pipelineFixture struct {
	store     *badger.RepositoryStore
	syncState *badger.SyncStateRepository
	lister    *fakeLister
	fetcher   *fakeFetcher
	embedder  *mock.MockEmbedder
	pipeline  *Pipeline
}

func setupPipeline(t *testing.T, opts ...Option) *pipelineFixture {
	t.Helper()
	store, syncState, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	f := &pipelineFixture{
		store:     store,
		syncState: syncState,
		lister:    &fakeLister{},
		fetcher:   newFakeFetcher(),
		embedder:  mock.NewMockEmbedder(),
	}
	opts = append([]Option{WithSyncState(syncState)}, opts...)
	f.pipeline, err = NewPipeline(store, f.lister, f.fetcher, f.embedder, opts...)
	require.NoError(t, err)
	return f
}

func storedIDs(t *testing.T, store storage.RepositoryStore) core.IDSet {
	t.Helper()
	ids, err := store.AllIDs(context.Background())
	require.NoError(t, err)
	return ids
}

func TestNewPipeline_RequiresCollaborators(t *testing.T) {
	store, _, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer backend.Close()

	lister, fetcher, embedder := &fakeLister{}, newFakeFetcher(), mock.NewMockEmbedder()

	_, err = NewPipeline(nil, lister, fetcher, embedder)
	assert.ErrorIs(t, err, ErrStoreRequired)
	_, err = NewPipeline(store, nil, fetcher, embedder)
	assert.ErrorIs(t, err, ErrListerRequired)
	_, err = NewPipeline(store, lister, nil, embedder)
	assert.ErrorIs(t, err, ErrFetcherRequired)
	_, err = NewPipeline(store, lister, fetcher, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
	_, err = NewPipeline(store, lister, fetcher, embedder, WithDimensions(-1))
	assert.Error(t, err)
}

func TestIngest_EmptyStore(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.lister.set(repo(1), repo(2))
	f.fetcher.readmes["octo/repo-1"] = core.Readme{Content: "# One", Format: core.ReadmeMarkdown}

	report, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)

	assert.Equal(t, OperationIngest, report.Operation)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Listed)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, report.WithReadme)

	stats, err := f.store.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Embedded)
	assert.Equal(t, 1, stats.WithReadme)
}

func TestIngest_StoresEnrichedRecord(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	listed := repo(1)
	f.lister.set(listed)
	f.fetcher.readmes["octo/repo-1"] = core.Readme{Content: "plain words", Format: core.ReadmePlaintext}

	_, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)

	stored, err := f.store.GetRepository(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "plain words", stored.Readme)
	assert.Equal(t, core.ReadmePlaintext, stored.ReadmeFormat)

	text := "octo/repo-1 | repository number 1 | plain words"
	assert.Equal(t, core.EmbeddingDigest("mock", text), stored.EmbeddingDigest)
	assert.InDeltaSlice(t, mock.Vector(text, mock.DefaultDimensions), stored.Vector, 1e-5)
	assert.False(t, stored.ProcessedAt.IsZero())

	// The listed record is left untouched
	assert.Empty(t, listed.Readme)
	assert.Nil(t, listed.Vector)
}

func TestIngest_IsIdempotent(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.lister.set(repo(1), repo(2), repo(3))

	first, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Processed)

	fetches := f.fetcher.callCount()
	embeds := f.embedder.CallCount()

	second, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 3, second.Skipped)
	assert.Equal(t, 0, second.Failed)
	assert.Equal(t, fetches, f.fetcher.callCount(), "no readme fetched on the second run")
	assert.Equal(t, embeds, f.embedder.CallCount(), "nothing embedded on the second run")
}

func TestIngest_NeverRemoves(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.lister.set(repo(1), repo(2))
	_, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)

	f.lister.set(repo(1))
	report, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Removed)
	assert.Equal(t, core.NewIDSet(1, 2), storedIDs(t, f.store))
}

func TestIngest_MissingReadmeStillEmbedded(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.lister.set(repo(5))

	report, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.WithReadme)

	stored, err := f.store.GetRepository(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, stored.Readme)
	assert.Equal(t, core.ReadmeAbsent, stored.ReadmeFormat)
	assert.True(t, stored.Embedded())
	assert.Equal(t, core.EmbeddingDigest("mock", "octo/repo-5 | repository number 5"), stored.EmbeddingDigest)
}

func TestIngest_EmbedFailureIsContained(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.lister.set(repo(1), repo(2), repo(3), repo(4))
	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if strings.HasPrefix(text, "octo/repo-3 ") {
			return nil, errors.New("model crashed")
		}
		return mock.Vector(text, mock.DefaultDimensions), nil
	}

	report, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 4, report.Submitted())
	require.Len(t, report.Failures, 1)

	failure := report.Failures[0]
	assert.Equal(t, core.ID(3), failure.ID)
	assert.Equal(t, "https://github.com/octo/repo-3", failure.URL)
	assert.Equal(t, StateEmbedFailed, failure.State)
	assert.ErrorContains(t, failure.Err, "model crashed")

	assert.Equal(t, core.NewIDSet(1, 2, 4), storedIDs(t, f.store))

	// The failed item is picked up by the next run
	f.embedder.EmbedTextFunc = nil
	retry, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Processed)
	assert.Equal(t, 3, retry.Skipped)
}

func TestIngest_FetchFailureIsTerminal(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.lister.set(repo(1), repo(2), repo(3))
	f.fetcher.errs["octo/repo-2"] = errors.New("rate limit retries exhausted")
	f.fetcher.panics["octo/repo-3"] = true

	report, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 3, report.Submitted())
	for _, failure := range report.Failures {
		assert.Equal(t, StateFetchFailed, failure.State)
	}
	assert.Equal(t, core.NewIDSet(1), storedIDs(t, f.store))
	assert.Equal(t, 1, f.embedder.CallCount(), "failed fetches are never embedded")
}

func TestIngest_DimensionMismatch(t *testing.T) {
	f := setupPipeline(t, WithDimensions(8))
	f.lister.set(repo(1))

	report, err := f.pipeline.Ingest(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, StateEmbedFailed, report.Failures[0].State)
	assert.ErrorIs(t, report.Failures[0].Err, core.ErrDimensionMismatch)
}

func TestIngest_ListingFailure(t *testing.T) {
	f := setupPipeline(t)
	f.lister.err = errors.New("unauthorized")

	_, err := f.pipeline.Ingest(context.Background())
	assert.ErrorIs(t, err, ErrListingFailed)
	assert.ErrorContains(t, err, "unauthorized")
}

func TestIngest_CancelledContext(t *testing.T) {
	f := setupPipeline(t)
	f.lister.set(repo(1), repo(2))

	ctx, cancel := context.WithCancel(context.Background())
	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		cancel()
		return mock.Vector(text, mock.DefaultDimensions), nil
	}

	report, err := f.pipeline.Ingest(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Submitted(), "every submitted item has an outcome")
}

// cancellingFetcher cancels the run on its first call and fails every fetch with the context's error.
type cancellingFetcher struct {
	cancel context.CancelFunc
}

func (c *cancellingFetcher) FetchReadme(ctx context.Context, owner, name string) (core.Readme, error) {
	c.cancel()
	return core.Readme{}, ctx.Err()
}

func TestIngest_CancelledDuringFetch(t *testing.T) {
	store, syncState, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lister := &fakeLister{}
	lister.set(repo(1), repo(2), repo(3))
	p, err := NewPipeline(store, lister, &cancellingFetcher{cancel: cancel}, mock.NewMockEmbedder(),
		WithSyncState(syncState))
	require.NoError(t, err)

	report, err := p.Ingest(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 3, report.Failed)
	assert.Equal(t, 3, report.Submitted())
	require.Len(t, report.Failures, 3)
	for _, failure := range report.Failures {
		assert.Equal(t, StateFetchFailed, failure.State)
		assert.ErrorIs(t, failure.Err, context.Canceled)
	}
	assert.Empty(t, storedIDs(t, store))

	state, err := syncState.LoadSyncState(context.Background(), OperationIngest)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 3, state.Listed)
	assert.Equal(t, 3, state.Failed)
}

func TestEnricher_RequiresEmbeddingState(t *testing.T) {
	f := setupPipeline(t)
	res := fetchResult{item: repo(1), state: StateFetchedNoDocument}

	state, err := f.pipeline.enricher.process(context.Background(), res)
	assert.Equal(t, StateEmbedFailed, state)
	assert.ErrorIs(t, err, ErrNotReadyForEmbedding)
	assert.Empty(t, storedIDs(t, f.store))

	require.True(t, res.advance(StateEmbedding))
	state, err = f.pipeline.enricher.process(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, StateStored, state)
	assert.True(t, storedIDs(t, f.store).Contains(1))
}

func TestIngest_Progress(t *testing.T) {
	var buf bytes.Buffer
	f := setupPipeline(t, WithProgress(&buf))
	f.lister.set(repo(1), repo(2))

	_, err := f.pipeline.Ingest(context.Background())
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Fetching READMEs: 2/2")
	assert.Contains(t, output, "Embedding: 2/2")
}

func TestRefresh_RemovesUnstarred(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.lister.set(repo(1), repo(2), repo(3))
	_, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)

	f.lister.set(repo(1), repo(2))
	report, err := f.pipeline.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, OperationRefresh, report.Operation)
	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 0, report.Processed)
	assert.False(t, report.UpToDate)
	assert.Equal(t, core.NewIDSet(1, 2), storedIDs(t, f.store))
}

func TestRefresh_AddsAndRemoves(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.lister.set(repo(1), repo(2))
	_, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)

	f.lister.set(repo(2), repo(3), repo(4))
	report, err := f.pipeline.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, core.NewIDSet(2, 3, 4), storedIDs(t, f.store))
}

func TestRefresh_UpToDate(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.lister.set(repo(1))
	_, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)

	report, err := f.pipeline.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, report.UpToDate)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 0, report.Removed)
}

func TestRefresh_DoesNotReembedChangedMetadata(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.lister.set(repo(1))
	_, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)

	changed := repo(1)
	changed.Stars = 10_000
	changed.Description = "rewritten"
	f.lister.set(changed)

	report, err := f.pipeline.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, report.UpToDate)

	stored, err := f.store.GetRepository(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Stars, "refresh only reacts to membership changes")
}

// failingDeleteStore fails deletions for selected IDs.
type failingDeleteStore struct {
	storage.RepositoryStore
	fail core.IDSet
}

func (s *failingDeleteStore) DeleteRepositories(ctx context.Context, ids ...core.ID) error {
	for _, id := range ids {
		if s.fail.Contains(id) {
			return errors.New("disk full")
		}
	}
	return s.RepositoryStore.DeleteRepositories(ctx, ids...)
}

func TestRefresh_RemovalsAreIndependent(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.lister.set(repo(1), repo(2), repo(3))
	_, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)

	store := &failingDeleteStore{RepositoryStore: f.store, fail: core.NewIDSet(2)}
	pipeline, err := NewPipeline(store, f.lister, f.fetcher, f.embedder)
	require.NoError(t, err)

	f.lister.set(repo(1))
	report, err := pipeline.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 1, report.RemoveFailed)
	assert.Equal(t, core.NewIDSet(1, 2), storedIDs(t, f.store))
}

func TestPipeline_SavesSyncState(t *testing.T) {
	f := setupPipeline(t)
	ctx := context.Background()
	f.lister.set(repo(1), repo(2))

	report, err := f.pipeline.Ingest(ctx)
	require.NoError(t, err)

	state, err := f.syncState.LoadSyncState(ctx, OperationIngest)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, report.RunID, state.RunID)
	assert.Equal(t, 2, state.Listed)
	assert.Equal(t, 2, state.Processed)

	refresh, err := f.syncState.LoadSyncState(ctx, OperationRefresh)
	require.NoError(t, err)
	assert.Nil(t, refresh)
}
