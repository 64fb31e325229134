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
	"slices"

	"github.com/poiesic/stargaze/core"
)

// Diff is the result of reconciling a remote listing against the stored IDs.
type Diff struct {
	// ToAdd holds listed repositories that are not stored yet, in listing order.
	ToAdd []*core.Repository

	// ToRemove holds stored IDs that are no longer listed, in ascending order.
	ToRemove []core.ID

	// Listed is the number of distinct IDs in the listing.
	Listed int

	// Unchanged is the number of listed repositories that are already stored.
	Unchanged int
}

// Empty reports whether there is nothing to add or remove.
func (d Diff) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// Reconcile computes which listed repositories must be added and which stored
// IDs must be removed. Membership checks are O(1) against persisted; a
// repository listed twice is added once.
func Reconcile(listing []*core.Repository, persisted core.IDSet) Diff {
	listed := make(core.IDSet, len(listing))
	diff := Diff{}

	for _, repo := range listing {
		if repo == nil || listed.Contains(repo.Id) {
			continue
		}
		listed.Add(repo.Id)
		if persisted.Contains(repo.Id) {
			diff.Unchanged++
			continue
		}
		diff.ToAdd = append(diff.ToAdd, repo)
	}
	diff.Listed = len(listed)

	for id := range persisted {
		if !listed.Contains(id) {
			diff.ToRemove = append(diff.ToRemove, id)
		}
	}
	slices.Sort(diff.ToRemove)

	return diff
}
