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

import "errors"

// Domain validation errors
var (
	// ErrInvalidReview indicates a Review failed validation.
	ErrInvalidReview = errors.New("invalid review")

	// ErrEmptyPlaceID indicates the PlaceID field is empty.
	ErrEmptyPlaceID = errors.New("place id cannot be empty")

	// ErrRatingOutOfRange indicates a rating outside 0..MaxRating.
	ErrRatingOutOfRange = errors.New("rating out of range")

	// ErrPartialCoordinates indicates only one of Lat/Lon is set.
	ErrPartialCoordinates = errors.New("latitude and longitude must be set together")

	// ErrCoordinatesOutOfRange indicates a latitude or longitude outside the valid range.
	ErrCoordinatesOutOfRange = errors.New("coordinates out of range")

	// ErrMalformedRecord indicates serialized bytes could not be decoded.
	ErrMalformedRecord = errors.New("malformed record")
)
