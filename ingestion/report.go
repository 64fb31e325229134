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
	"time"

	"github.com/poiesic/stargaze/core"
)

const (
	// OperationIngest names a full ingest run.
	OperationIngest = "ingest"

	// OperationRefresh names a refresh run.
	OperationRefresh = "refresh"
)

// Failure describes one repository that did not reach the store.
type Failure struct {
	ID       core.ID
	FullName string
	URL      string
	State    ItemState
	Err      error
}

// Report summarises a pipeline run.
type Report struct {
	RunID     string
	Operation string

	// Listed is the number of distinct repositories in the remote listing.
	Listed int
	// Processed counts repositories embedded and stored by this run.
	Processed int
	// Skipped counts listed repositories that were already stored.
	Skipped int
	// Failed counts repositories that ended in a failure state.
	Failed int
	// WithReadme counts processed repositories that had a README.
	WithReadme int
	// Removed counts stored repositories deleted because they are no longer listed.
	Removed int
	// RemoveFailed counts deletions that failed.
	RemoveFailed int

	Failures []Failure

	// UpToDate is set by a refresh that found nothing to add or remove.
	UpToDate bool

	StartedAt time.Time
	Duration  time.Duration
}

// Submitted returns the number of repositories handed to the fetch stage.
func (r *Report) Submitted() int {
	return r.Processed + r.Failed
}

func (r *Report) recordFailure(repo *core.Repository, state ItemState, err error) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{
		ID:       repo.Id,
		FullName: repo.FullName,
		URL:      repo.URL,
		State:    state,
		Err:      err,
	})
}

func (r *Report) syncState() *core.SyncState {
	return &core.SyncState{
		Operation: r.Operation,
		RunID:     r.RunID,
		Listed:    r.Listed,
		Processed: r.Processed,
		Failed:    r.Failed,
		Removed:   r.Removed,
	}
}
