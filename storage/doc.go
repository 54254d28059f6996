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


// Package storage provides the storage abstraction layer for bares.
//
// This package defines repository interfaces that decouple storage implementation
// from the search, embedding and clustering logic. Different backends (BadgerDB,
// in-memory, etc.) can be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the interfaces defined here
// where the caller only needs the abstraction:
//
//	repo, err := badger.NewMemoryRepository()  // returns storage.ReviewRepository
//
// Constructors that the owning process wires together (badger.NewReviewRepository,
// badger.OpenBackend) return concrete types since the caller manages their lifecycle.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - ReviewRepository: CRUD and filtered queries over reviews
//   - ReviewFilter: the query conditions the engines rely on (embedding
//     present or missing, non-empty text, name substring, minimum rating, place)
//   - CheckpointRepository: last-run bookkeeping for batch operations
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", badger.WithSyncWrites(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	repo, err := badger.NewReviewRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	pending, err := repo.FindReviews(ctx, storage.ReviewFilter{
//	    HasText:   true,
//	    Embedding: storage.EmbeddingMissing,
//	})
//
// # Batch Commits
//
// AddReviews and UpdateReviews each run in one transaction. Callers that
// process reviews in batches get one durable commit per batch.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
