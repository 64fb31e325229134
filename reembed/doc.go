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


// Package reembed recomputes the embeddings of stored repositories, for
// example after switching embedding models.
//
// Repositories are embedded from their stored metadata and README, so no
// remote calls are made. Each stored embedding carries a digest of the model
// and text it was computed from; repositories whose digest is still current
// are skipped unless Config.Force is set. Embedding calls are batched and
// retried with exponential backoff.
package reembed
