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


// Package ai provides the embedding abstraction used by Stargaze.
//
// The ingestion pipeline, the reembedder and the searcher depend only on the
// Embedder interface defined here, so the vector model can be swapped without
// touching the domain logic.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Deterministic test double for unit tests
//
// Public constructors (openai.NewEmbedder) return the interface type. The
// mock constructor returns the concrete type so tests can inject behavior
// and inspect call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithEmbeddingModel("all-minilm:l6-v2"))
//	embedder, err := openai.NewEmbedder(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vector, err := embedder.EmbedText(ctx, "vector database written in go")
//
// Vectors from different models live in different spaces. Every embedder
// reports its Model so stored embeddings can be tied back to their source.
package ai
