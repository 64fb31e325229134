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


package core

//go:generate go run ../cmd/musgen

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is the remote system's stable repository identifier.
// IDs are never reused, so they serve as the primary key of the store.
type ID uint64

// IDSet is a set of repository IDs with O(1) membership checks.
type IDSet map[ID]struct{}

// NewIDSet builds a set from the given IDs.
func NewIDSet(ids ...ID) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Add inserts id into the set.
func (s IDSet) Add(id ID) {
	s[id] = struct{}{}
}

// Contains reports whether id is a member of the set.
func (s IDSet) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}

// ReadmeFormat describes how a fetched README is encoded.
type ReadmeFormat int

const (
	// ReadmeAbsent means no README was found or it could not be fetched.
	ReadmeAbsent ReadmeFormat = iota
	// ReadmeMarkdown is the default for READMEs served without a plaintext hint.
	ReadmeMarkdown
	// ReadmePlaintext is used when the server signals text/plain.
	ReadmePlaintext
)

func (f ReadmeFormat) String() string {
	switch f {
	case ReadmeMarkdown:
		return "markdown"
	case ReadmePlaintext:
		return "text"
	default:
		return "absent"
	}
}

// Readme is the auxiliary document fetched for a repository.
type Readme struct {
	Content string
	Format  ReadmeFormat
}

// Present reports whether the README carries content.
func (r Readme) Present() bool {
	return r.Content != "" && r.Format != ReadmeAbsent
}

// Repository is a starred repository, optionally enriched with its README and embedding.
type Repository struct {
	Id          ID
	FullName    string
	Name        string
	Description string
	URL         string
	Stars       int
	Language    string
	Owner       string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Populated by the enrichment stage.
	Readme          string
	ReadmeFormat    ReadmeFormat
	Vector          []float32
	EmbeddingDigest string
	ProcessedAt     time.Time
}

// HasReadme reports whether README content was stored for the repository.
func (r *Repository) HasReadme() bool {
	return r.Readme != ""
}

// Embedded reports whether the repository carries an embedding vector.
func (r *Repository) Embedded() bool {
	return len(r.Vector) > 0
}

// SearchResult is a repository returned by a nearest-neighbour query.
// Distance is the Euclidean distance to the query vector; smaller is closer.
type SearchResult struct {
	Record   *Repository
	Distance float32
}

// Statistics summarises the contents of the store.
type Statistics struct {
	Total      int
	Embedded   int
	WithReadme int
}

// ReadmeCoverage returns the percentage of stored repositories with a README.
func (s Statistics) ReadmeCoverage() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.WithReadme) / float64(s.Total) * 100.0
}

// QuotaStatus is a snapshot of the remote API's rate-limit budget.
type QuotaStatus struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// ResetIn returns the time left until the budget resets, never negative.
func (q QuotaStatus) ResetIn(now time.Time) time.Duration {
	if d := q.ResetAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// SyncState records the outcome of the most recent ingest or refresh.
type SyncState struct {
	Operation string
	RunID     string
	Listed    int
	Processed int
	Failed    int
	Removed   int
	UpdatedAt time.Time
}

// EmbeddingDigest fingerprints the text an embedding was computed from, together with the model
// that computed it. Identical inputs always yield identical digests.
func EmbeddingDigest(model, text string) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
