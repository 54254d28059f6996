package core

import (
	"errors"
	"math"
	"testing"
)

func TestValidateReview(t *testing.T) {
	tests := []struct {
		name    string
		review  *Review
		wantErr error
	}{
		{
			name:    "valid minimal review",
			review:  &Review{PlaceID: "p1"},
			wantErr: nil,
		},
		{
			name: "valid full review",
			review: &Review{
				PlaceID: "p1",
				Text:    "Excelente ambiente",
				Rating:  Float64(4.5),
				Lat:     Float64(-34.6),
				Lon:     Float64(-58.4),
			},
			wantErr: nil,
		},
		{
			name:    "valid review without text",
			review:  &Review{PlaceID: "p1", Rating: Float64(3)},
			wantErr: nil,
		},
		{
			name:    "nil review",
			review:  nil,
			wantErr: ErrInvalidReview,
		},
		{
			name:    "empty place id",
			review:  &Review{Text: "hola"},
			wantErr: ErrEmptyPlaceID,
		},
		{
			name:    "rating above max",
			review:  &Review{PlaceID: "p1", Rating: Float64(5.1)},
			wantErr: ErrRatingOutOfRange,
		},
		{
			name:    "negative rating",
			review:  &Review{PlaceID: "p1", Rating: Float64(-1)},
			wantErr: ErrRatingOutOfRange,
		},
		{
			name:    "only latitude",
			review:  &Review{PlaceID: "p1", Lat: Float64(-34.6)},
			wantErr: ErrPartialCoordinates,
		},
		{
			name:    "latitude out of range",
			review:  &Review{PlaceID: "p1", Lat: Float64(-91), Lon: Float64(0)},
			wantErr: ErrCoordinatesOutOfRange,
		},
		{
			name:    "longitude out of range",
			review:  &Review{PlaceID: "p1", Lat: Float64(0), Lon: Float64(181)},
			wantErr: ErrCoordinatesOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReview(tt.review)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateReview() unexpected error = %v", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateReview() expected error %v, got nil", tt.wantErr)
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateReview() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidReview) {
				t.Errorf("ValidateReview() error = %v should wrap ErrInvalidReview", err)
			}
		})
	}
}

func TestValidateRating(t *testing.T) {
	for _, v := range []float64{0, 2.5, MaxRating} {
		if err := ValidateRating(v); err != nil {
			t.Errorf("ValidateRating(%v) unexpected error = %v", v, err)
		}
	}
	for _, v := range []float64{-0.1, 5.01, math.NaN()} {
		if err := ValidateRating(v); !errors.Is(err, ErrRatingOutOfRange) {
			t.Errorf("ValidateRating(%v) error = %v, want ErrRatingOutOfRange", v, err)
		}
	}
}

func TestValidateCoordinates(t *testing.T) {
	if err := ValidateCoordinates(90, -180); err != nil {
		t.Errorf("ValidateCoordinates() boundary values should be valid, got %v", err)
	}
	if err := ValidateCoordinates(math.NaN(), 0); !errors.Is(err, ErrCoordinatesOutOfRange) {
		t.Errorf("ValidateCoordinates(NaN) error = %v, want ErrCoordinatesOutOfRange", err)
	}
}
