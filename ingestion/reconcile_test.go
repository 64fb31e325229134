package ingestion

import (
	"testing"

	"github.com/poiesic/stargaze/core"
	"github.com/stretchr/testify/assert"
)

func idsOf(repos []*core.Repository) []core.ID {
	ids := make([]core.ID, len(repos))
	for i, r := range repos {
		ids[i] = r.Id
	}
	return ids
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name      string
		listing   []core.ID
		persisted []core.ID
		toAdd     []core.ID
		toRemove  []core.ID
		unchanged int
	}{
		{"empty store", []core.ID{1, 2}, nil, []core.ID{1, 2}, nil, 0},
		{"nothing changed", []core.ID{1, 2}, []core.ID{1, 2}, nil, nil, 2},
		{"unstarred", []core.ID{1, 2}, []core.ID{1, 2, 3}, nil, []core.ID{3}, 2},
		{"added and removed", []core.ID{4, 1, 5}, []core.ID{3, 1, 2}, []core.ID{4, 5}, []core.ID{2, 3}, 1},
		{"empty listing", nil, []core.ID{7, 8}, nil, []core.ID{7, 8}, 0},
		{"duplicates in listing", []core.ID{9, 9, 10}, []core.ID{10}, []core.ID{9}, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing := make([]*core.Repository, len(tt.listing))
			for i, id := range tt.listing {
				listing[i] = &core.Repository{Id: id}
			}

			diff := Reconcile(listing, core.NewIDSet(tt.persisted...))

			if tt.toAdd == nil {
				assert.Empty(t, diff.ToAdd)
			} else {
				assert.Equal(t, tt.toAdd, idsOf(diff.ToAdd))
			}
			if tt.toRemove == nil {
				assert.Empty(t, diff.ToRemove)
			} else {
				assert.Equal(t, tt.toRemove, diff.ToRemove)
			}
			assert.Equal(t, tt.unchanged, diff.Unchanged)
			assert.Equal(t, len(core.NewIDSet(tt.listing...)), diff.Listed)
		})
	}
}

func TestReconcile_ReconstructsListing(t *testing.T) {
	listing := []*core.Repository{{Id: 1}, {Id: 4}, {Id: 6}}
	persisted := core.NewIDSet(1, 2, 3, 6)

	diff := Reconcile(listing, persisted)

	// Applying the diff to the persisted set yields exactly the listed IDs
	after := core.NewIDSet()
	for id := range persisted {
		after.Add(id)
	}
	for _, id := range diff.ToRemove {
		delete(after, id)
	}
	for _, repo := range diff.ToAdd {
		after.Add(repo.Id)
	}
	assert.Equal(t, core.NewIDSet(1, 4, 6), after)
	assert.False(t, diff.Empty())
}

func TestReconcile_IgnoresNil(t *testing.T) {
	diff := Reconcile([]*core.Repository{nil, {Id: 1}}, core.NewIDSet())
	assert.Equal(t, []core.ID{1}, idsOf(diff.ToAdd))
	assert.Equal(t, 1, diff.Listed)
}

func TestItemState(t *testing.T) {
	assert.Equal(t, "stored", StateStored.String())
	assert.Equal(t, "unknown", ItemState(99).String())

	assert.True(t, StateStored.Terminal())
	assert.False(t, StateStored.Failed())
	for _, s := range []ItemState{StateFetchFailed, StateEmbedFailed, StateStoreFailed} {
		assert.True(t, s.Failed(), s.String())
	}
	for _, s := range []ItemState{StatePending, StateFetching, StateFetchedWithDocument, StateFetchedNoDocument, StateEmbedding} {
		assert.False(t, s.Terminal(), s.String())
	}
}

func TestItemState_Transitions(t *testing.T) {
	path := []ItemState{StatePending, StateFetching, StateFetchedWithDocument, StateEmbedding, StateStored}
	for i := 1; i < len(path); i++ {
		assert.True(t, path[i-1].CanAdvance(path[i]), "%s -> %s", path[i-1], path[i])
	}

	assert.True(t, StateFetching.CanAdvance(StateFetchFailed))
	assert.True(t, StateFetchedNoDocument.CanAdvance(StateEmbedding))
	assert.True(t, StateEmbedding.CanAdvance(StateStoreFailed))

	assert.False(t, StatePending.CanAdvance(StateEmbedding))
	assert.False(t, StateFetchFailed.CanAdvance(StateEmbedding), "fetch failures are terminal")
	assert.False(t, StateStored.CanAdvance(StateEmbedding))
}
