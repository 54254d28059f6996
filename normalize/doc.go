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


// Package normalize turns raw review text into the cleaned token stream that
// embeddings and topic labels are computed from.
//
// The same normalization runs when caching review embeddings, when encoding a
// search query and when building cluster vocabularies, so cached and query
// vectors always see comparable text.
//
// Accented letters are folded to their base form (café → cafe, ñ → n) before
// anything else is filtered, and the stop-word list is stored in that folded
// form.
package normalize
