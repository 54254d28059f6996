package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"short content", "place_1_palermo"},
		{"empty string", ""},
		{"long content", "La carne estaba en su punto perfecto. El lugar tiene una terraza increíble."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, IDFromContent(tt.content), IDFromContent(tt.content))
		})
	}

	assert.NotEqual(t, IDFromContent("a"), IDFromContent("b"))
}

func TestReviewHelpers(t *testing.T) {
	r := &Review{PlaceID: "p1"}
	assert.False(t, r.HasEmbedding())
	assert.False(t, r.HasText())
	assert.False(t, r.HasCoordinates())
	assert.Equal(t, 0.0, r.RatingOrZero())

	r.Embedding = "[0.1]"
	r.Text = "buena"
	r.Lat = Float64(-34.6)
	assert.False(t, r.HasCoordinates(), "both coordinates are required")
	r.Lon = Float64(-58.4)
	r.Rating = Float64(4.5)

	assert.True(t, r.HasEmbedding())
	assert.True(t, r.HasText())
	assert.True(t, r.HasCoordinates())
	assert.Equal(t, 4.5, r.RatingOrZero())
}

func TestNewSearchResult(t *testing.T) {
	r := &Review{
		PlaceID: "p1",
		Name:    "Don Julio - Palermo",
		Text:    "parrilla",
		Topic:   "Topic 0: carne",
		Rating:  Float64(4.8),
		Lat:     Float64(-34.58),
		Lon:     Float64(-58.42),
	}

	res := NewSearchResult(r, 0.9, 0.918)
	assert.Equal(t, "p1", res.PlaceID)
	assert.Equal(t, "Don Julio - Palermo", res.Name)
	assert.Equal(t, "Topic 0: carne", res.Topic)
	assert.Equal(t, 0.9, res.SimilarityScore)
	assert.Equal(t, 0.918, res.CombinedScore)
	require.NotNil(t, res.Rating)
	assert.Equal(t, 4.8, *res.Rating)
}

// assertSameReview compares timestamps as instants; the codec does not keep
// the location.
func assertSameReview(t *testing.T, want, got Review) {
	t.Helper()
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "CreatedAt %v != %v", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "UpdatedAt %v != %v", want.UpdatedAt, got.UpdatedAt)
	want.CreatedAt, got.CreatedAt = time.Time{}, time.Time{}
	want.UpdatedAt, got.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, want, got)
}

func TestReviewMUS(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name   string
		review Review
	}{
		{
			name:   "minimal",
			review: Review{PlaceID: "p1"},
		},
		{
			name: "fully populated",
			review: Review{
				Id:        42,
				PlaceID:   "place_7_recoleta",
				Name:      "Café Tortoni - Recoleta",
				Text:      "Desayunos abundantes y deliciosos. Buen café.",
				Rating:    Float64(4.2),
				Lat:       Float64(-34.6087),
				Lon:       Float64(-58.3786),
				Category:  "cafe",
				Source:    "sample_data",
				Language:  "es",
				HexIndex:  "87c2e3118ffffff",
				Embedding: "[0.1,0.2]",
				Topic:     "Topic 1: desayunos, cafe",
				CreatedAt: now,
				UpdatedAt: now.Add(time.Minute),
			},
		},
		{
			name:   "zero rating is kept distinct from absent",
			review: Review{PlaceID: "p2", Rating: Float64(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, ReviewMUS.Size(tt.review))
			n := ReviewMUS.Marshal(tt.review, buf)
			assert.Equal(t, len(buf), n)

			decoded, m, err := ReviewMUS.Unmarshal(buf)
			require.NoError(t, err)
			assert.Equal(t, n, m)
			assertSameReview(t, tt.review, decoded)
		})
	}
}

func TestReviewMUS_Truncated(t *testing.T) {
	review := Review{PlaceID: "p1", Name: "El Obrero", Text: "Hamburguesas jugosas"}
	buf := make([]byte, ReviewMUS.Size(review))
	ReviewMUS.Marshal(review, buf)

	_, _, err := ReviewMUS.Unmarshal(buf[:len(buf)/2])
	assert.Error(t, err)

	_, _, err = ReviewMUS.Unmarshal(nil)
	assert.Error(t, err)
}

func TestCheckpointMUS(t *testing.T) {
	cp := Checkpoint{Operation: "precompute", Processed: 12, UpdatedAt: time.Now().UTC().Truncate(time.Microsecond)}
	buf := make([]byte, CheckpointMUS.Size(cp))
	CheckpointMUS.Marshal(cp, buf)

	decoded, _, err := CheckpointMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, cp.Operation, decoded.Operation)
	assert.Equal(t, cp.Processed, decoded.Processed)
	assert.True(t, cp.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestReviewMUS_Skip(t *testing.T) {
	review := Review{Id: 3, PlaceID: "p3", Name: "La Cabrera - Palermo", Rating: Float64(4.5), CreatedAt: time.Now().UTC().Truncate(time.Microsecond)}
	buf := make([]byte, ReviewMUS.Size(review)+CheckpointMUS.Size(Checkpoint{Operation: "topics"}))
	n := ReviewMUS.Marshal(review, buf)
	CheckpointMUS.Marshal(Checkpoint{Operation: "topics"}, buf[n:])

	skipped, err := ReviewMUS.Skip(buf)
	require.NoError(t, err)
	assert.Equal(t, n, skipped)

	cp, _, err := CheckpointMUS.Unmarshal(buf[skipped:])
	require.NoError(t, err)
	assert.Equal(t, "topics", cp.Operation)
}
