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


// Package search ranks cached review embeddings against a free-text query.
//
// The Searcher narrows the reviews to an eligible set (embedded, optionally
// filtered by neighborhood and minimum rating), scores each one by cosine
// similarity to the normalized query, drops weak matches and orders the rest
// by a blend of similarity and rating:
//
//	combined = 0.7*similarity + 0.3*(rating/5)
//
// A blank query skips scoring and returns the best-rated eligible reviews.
// Search never writes to the store.
package search
