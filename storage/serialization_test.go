package storage

import (
	"testing"
	"time"

	"github.com/poiesic/stargaze/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDKeysSortNumerically(t *testing.T) {
	small := MarshalID(2)
	large := MarshalID(10)
	assert.Less(t, string(small), string(large))

	id, err := UnmarshalID(large)
	require.NoError(t, err)
	assert.Equal(t, core.ID(10), id)

	_, err = UnmarshalID([]byte{1, 2})
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestRepositorySerialization(t *testing.T) {
	// Timestamps are stored as Unix microseconds
	created := time.Date(2020, 5, 17, 8, 30, 0, 123456000, time.UTC)
	repo := &core.Repository{
		Id:              42,
		FullName:        "octocat/hello-world",
		Name:            "hello-world",
		Description:     "My first repository",
		URL:             "https://github.com/octocat/hello-world",
		Stars:           1500,
		Language:        "Go",
		Owner:           "octocat",
		CreatedAt:       created,
		Readme:          "# Hello",
		ReadmeFormat:    core.ReadmeMarkdown,
		Vector:          []float32{0.25, -0.5, 0.125},
		EmbeddingDigest: core.EmbeddingDigest("m", "t"),
	}

	data := MarshalRepository(repo)
	decoded, err := UnmarshalRepository(data)
	require.NoError(t, err)

	assert.Equal(t, repo.Id, decoded.Id)
	assert.Equal(t, repo.FullName, decoded.FullName)
	assert.Equal(t, repo.Description, decoded.Description)
	assert.Equal(t, repo.Stars, decoded.Stars)
	assert.Equal(t, repo.Readme, decoded.Readme)
	assert.Equal(t, repo.ReadmeFormat, decoded.ReadmeFormat)
	assert.Equal(t, repo.Vector, decoded.Vector)
	assert.Equal(t, repo.EmbeddingDigest, decoded.EmbeddingDigest)
	assert.True(t, created.Equal(decoded.CreatedAt))
	assert.Equal(t, time.UTC, decoded.CreatedAt.Location())
	assert.True(t, decoded.UpdatedAt.IsZero())
	assert.True(t, decoded.ProcessedAt.IsZero())
}

func TestUnmarshalRepository_Truncated(t *testing.T) {
	data := MarshalRepository(&core.Repository{
		Id:       7,
		FullName: "octocat/spoon-knife",
		Vector:   []float32{1, 2, 3},
	})

	_, err := UnmarshalRepository(data[:len(data)-3])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestSyncStateSerialization(t *testing.T) {
	updated := time.Date(2024, 1, 2, 3, 4, 5, 6000, time.UTC)
	state := &core.SyncState{
		Operation: "refresh",
		RunID:     "2b1f6c1e-5f4e-4bb5-9d0b-1c2d3e4f5a6b",
		Listed:    120,
		Processed: 117,
		Failed:    3,
		Removed:   4,
		UpdatedAt: updated,
	}

	decoded, err := UnmarshalSyncState(MarshalSyncState(state))
	require.NoError(t, err)
	assert.Equal(t, state, decoded)

	_, err = UnmarshalSyncState([]byte{0x0e, 'r'})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestUnmarshalRepository_Garbage(t *testing.T) {
	_, err := UnmarshalRepository([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
