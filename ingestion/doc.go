// Package ingestion adds new reviews to storage.
//
// The Ingester validates every review of a call before anything is written,
// so a call either stores all of its reviews or none of them. On the way in it:
//   - sets CreatedAt when it is zero
//   - computes the hex index of reviews with coordinates
//   - clears Embedding and Topic, which later stages own
//
// A hex index failure is logged and leaves the index empty; it never rejects
// the review. Embeddings are filled later by embedcache.
package ingestion
