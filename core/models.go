package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// MaxRating is the upper bound of the review rating scale.
const MaxRating = 5.0

// ID is a unique identifier for domain entities.
// Reviews get theirs from a database sequence.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Review is a single piece of venue feedback.
// Embedding, Topic and HexIndex are derived fields filled in by later stages.
type Review struct {
	Id        ID
	PlaceID   string   // Venue identifier, not unique across reviews
	Name      string   // Venue display name, also used as the neighborhood filter target
	Text      string   // Free-form review body
	Rating    *float64 // 0..MaxRating, nil when the source had no rating
	Lat       *float64
	Lon       *float64
	Category  string
	Source    string
	Language  string
	HexIndex  string // Geospatial cell id, empty when unknown
	Embedding string // JSON array of floats, empty until the cache manager runs
	Topic     string // Human-readable topic label, empty until clustering runs
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasEmbedding reports whether an embedding has been cached for the review.
func (r *Review) HasEmbedding() bool {
	return r.Embedding != ""
}

// HasText reports whether the review has a non-empty body.
func (r *Review) HasText() bool {
	return r.Text != ""
}

// HasCoordinates reports whether both latitude and longitude are set.
func (r *Review) HasCoordinates() bool {
	return r.Lat != nil && r.Lon != nil
}

// RatingOrZero returns the rating, treating a missing one as 0.
func (r *Review) RatingOrZero() float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

// SearchResult is the flat projection returned by semantic search.
type SearchResult struct {
	PlaceID         string
	Name            string
	Lat             *float64
	Lon             *float64
	Rating          *float64
	Text            string
	Topic           string
	SimilarityScore float64
	CombinedScore   float64
}

// NewSearchResult projects a review with its scores.
func NewSearchResult(r *Review, similarity, combined float64) SearchResult {
	return SearchResult{
		PlaceID:         r.PlaceID,
		Name:            r.Name,
		Lat:             r.Lat,
		Lon:             r.Lon,
		Rating:          r.Rating,
		Text:            r.Text,
		Topic:           r.Topic,
		SimilarityScore: similarity,
		CombinedScore:   combined,
	}
}

// Checkpoint records the outcome of the last run of a batch operation.
type Checkpoint struct {
	Operation string
	Processed int64
	UpdatedAt time.Time
}

// Float64 returns a pointer to v. Handy for optional review fields.
func Float64(v float64) *float64 {
	return &v
}
