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


// Package ingestion keeps the local store in step with the user's starred
// repositories.
//
// A run lists the remote stars, reconciles them against the IDs already
// stored and processes only the additions:
//
//   - Fetch: READMEs are retrieved concurrently by a bounded worker pool.
//     Every item ends with exactly one result; a failing item never stops
//     its siblings.
//   - Enrich: results are embedded and written one at a time. Embedding and
//     store failures are recorded against the item and the run continues.
//
// Pipeline.Ingest never removes anything. Pipeline.Refresh first deletes
// stored repositories that are no longer starred. Neither re-embeds a
// repository that is already stored, even when its remote metadata changed;
// use the reembed package for that.
package ingestion
