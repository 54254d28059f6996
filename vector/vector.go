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


// Package vector holds the persisted embedding codec and the similarity math
// shared by search and clustering.
package vector

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrEmptyEmbedding is returned when decoding an unset embedding.
	ErrEmptyEmbedding = errors.New("empty embedding")

	// ErrMalformedEmbedding is returned when a persisted embedding is not a JSON float array.
	ErrMalformedEmbedding = errors.New("malformed embedding")

	// ErrDimensionMismatch is returned when comparing vectors of different length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Encode serializes an embedding into its persisted JSON array form.
func Encode(v []float32) (string, error) {
	for i, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return "", fmt.Errorf("%w: non-finite value at %d", ErrMalformedEmbedding, i)
		}
	}
	if v == nil {
		v = []float32{}
	}
	bs, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// Decode parses a persisted embedding.
func Decode(s string) ([]float64, error) {
	if s == "" {
		return nil, ErrEmptyEmbedding
	}
	var v []float64
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEmbedding, err)
	}
	if len(v) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return v, nil
}

// Cosine returns the cosine similarity of a and b.
// A zero vector has similarity 0 with everything.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return floats.Dot(a, b) / (na * nb), nil
}

// ToFloat64 widens an embedding for the float64 math in this package.
func ToFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// Normalize scales v to unit length and returns a new vector.
// A zero vector stays zero.
func Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float64
	for _, val := range v {
		magnitude += float64(val) * float64(val)
	}
	magnitude = math.Sqrt(magnitude)

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}

// NormalizeInPlace scales v to unit length in place.
func NormalizeInPlace(v []float64) {
	n := floats.Norm(v, 2)
	if n == 0 {
		return
	}
	floats.Scale(1/n, v)
}
