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


package core

import (
	"fmt"
	"math"
)

// ValidateReview validates a Review according to domain rules.
//
// Validation rules:
//   - PlaceID must not be empty
//   - Rating, when present, must be within 0..MaxRating
//   - Lat and Lon must be both present or both absent
//   - Lat must be within -90..90 and Lon within -180..180
//
// NOT validated (populated by later stages):
//   - Embedding, Topic, HexIndex
//   - Text (reviews without text are stored but never embedded)
//   - ID (0 is valid before insertion)
func ValidateReview(review *Review) error {
	if review == nil {
		return fmt.Errorf("%w: review is nil", ErrInvalidReview)
	}

	if review.PlaceID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidReview, ErrEmptyPlaceID)
	}

	if review.Rating != nil {
		if err := ValidateRating(*review.Rating); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidReview, err)
		}
	}

	if (review.Lat == nil) != (review.Lon == nil) {
		return fmt.Errorf("%w: %w", ErrInvalidReview, ErrPartialCoordinates)
	}
	if review.HasCoordinates() {
		if err := ValidateCoordinates(*review.Lat, *review.Lon); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidReview, err)
		}
	}

	return nil
}

// ValidateRating checks a rating against the 0..MaxRating scale.
func ValidateRating(rating float64) error {
	if math.IsNaN(rating) || rating < 0 || rating > MaxRating {
		return fmt.Errorf("%w: value %v", ErrRatingOutOfRange, rating)
	}
	return nil
}

// ValidateCoordinates checks latitude and longitude ranges.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) ||
		lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: (%v, %v)", ErrCoordinatesOutOfRange, lat, lon)
	}
	return nil
}
