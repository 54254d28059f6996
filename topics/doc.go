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
// Package topics partitions embedded reviews into topical groups and labels
// each group from its own vocabulary.
//
// A run backfills missing embeddings, clusters every embedded review with
// k-means, picks the words that are frequent in a cluster but rare in the
// others, and writes the resulting label to every member:
//
//	modeler, err := topics.NewModeler(repo, cache)
//	ok, report, err := modeler.Run(ctx, 10)
//
// The number of clusters shrinks for small datasets so that clusters keep
// at least MinClusterSize members on average. Seeds are fixed, so repeated
// runs over the same data produce the same labels.
package topics
