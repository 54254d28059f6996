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


// Package ai provides the embedding abstractions used by bares.
//
// Search, the embedding cache and topic clustering depend on the Embedder
// interface rather than on a concrete model, so the same code runs against a
// remote OpenAI-compatible service, the offline hashing embedder or a test
// double.
//
// # Model handle
//
// Loading an embedding model can be expensive. Model wraps a Loader and runs
// it on first use, then reuses the result for the life of the handle. The
// handle is owned by whoever constructs it (usually bares.Database) and is
// passed explicitly to each component; there is no package-level instance.
//
//	model, err := ai.NewModel(func(ctx context.Context) (ai.Embedder, error) {
//	    return openai.NewEmbedder(cfg)
//	})
//	vec, err := model.EmbedText(ctx, "parrilla carne asado")
//
// Blank input never fails: Model returns a zero vector of the backend's
// dimension for it, in both single and batch mode.
//
// # Implementation Packages
//
//   - ai/hashing: deterministic feature-hashing embedder, no network or weights
//   - ai/openai: OpenAI-compatible APIs through langchaingo
//   - ai/mock: test doubles with injectable behavior and call counters
//
// # Constructor Return Type Pattern
//
// Production constructors (openai.NewEmbedder, hashing.NewEmbedder) return the
// ai.Embedder interface. Test constructors (mock.NewMockEmbedder) return
// concrete types so tests can inject behavior and assert on call counts.
package ai
