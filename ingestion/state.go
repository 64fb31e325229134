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

// ItemState tracks one repository through a pipeline run.
type ItemState int

const (
	StatePending ItemState = iota
	StateFetching
	StateFetchedWithDocument
	StateFetchedNoDocument
	StateFetchFailed
	StateEmbedding
	StateStored
	StateEmbedFailed
	StateStoreFailed
)

var stateNames = map[ItemState]string{
	StatePending:             "pending",
	StateFetching:            "fetching",
	StateFetchedWithDocument: "fetched",
	StateFetchedNoDocument:   "fetched-no-readme",
	StateFetchFailed:         "fetch-failed",
	StateEmbedding:           "embedding",
	StateStored:              "stored",
	StateEmbedFailed:         "embed-failed",
	StateStoreFailed:         "store-failed",
}

// transitions lists the states each non-terminal state may move to.
var transitions = map[ItemState][]ItemState{
	StatePending:             {StateFetching, StateFetchFailed},
	StateFetching:            {StateFetchedWithDocument, StateFetchedNoDocument, StateFetchFailed},
	StateFetchedWithDocument: {StateEmbedding, StateEmbedFailed},
	StateFetchedNoDocument:   {StateEmbedding, StateEmbedFailed},
	StateEmbedding:           {StateStored, StateEmbedFailed, StateStoreFailed},
}

// CanAdvance reports whether an item in state s may move to next.
func (s ItemState) CanAdvance(next ItemState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ItemState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transitions follow s.
// A failed fetch is terminal: the item is left unstored so the next run picks it up again.
func (s ItemState) Terminal() bool {
	switch s {
	case StateStored, StateFetchFailed, StateEmbedFailed, StateStoreFailed:
		return true
	}
	return false
}

// Failed reports whether s is a terminal failure.
func (s ItemState) Failed() bool {
	return s.Terminal() && s != StateStored
}
