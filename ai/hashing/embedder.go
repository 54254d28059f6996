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


// Package hashing implements ai.Embedder with the hashing trick: every token
// and adjacent token pair is hashed into one of D signed buckets and the
// resulting bag-of-features vector is L2-normalized.
//
// It needs no weights or network, is fully deterministic and runs on a single
// CPU core. Texts that share vocabulary score a high cosine similarity, which
// is what the search and clustering paths need from normalized review text.
package hashing

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/bares/ai"
	"github.com/poiesic/bares/vector"
)

// bigramWeight is the contribution of an adjacent token pair relative to a single token.
const bigramWeight = 0.5

// ErrInvalidDimension is returned for a non-positive dimension.
var ErrInvalidDimension = errors.New("dimension must be greater than 0")

// Embedder is a feature-hashing ai.Embedder.
type Embedder struct {
	dim    int
	logger *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates a hashing embedder producing vectors of length dim.
func NewEmbedder(dim int) (ai.Embedder, error) {
	if dim <= 0 {
		return nil, ErrInvalidDimension
	}
	return &Embedder{
		dim:    dim,
		logger: slog.Default().With("component", "hashing-embedder"),
	}, nil
}

// Dimension returns the vector length.
func (e *Embedder) Dimension() int {
	return e.dim
}

// EmbedText embeds a single text. Blank text yields a zero vector.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

// EmbedTexts embeds texts in order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *Embedder) embed(text string) []float32 {
	v := make([]float32, e.dim)
	tokens := strings.Fields(strings.ToLower(text))
	for i, tok := range tokens {
		e.add(v, "u:"+tok, 1)
		if i > 0 {
			e.add(v, "b:"+tokens[i-1]+" "+tok, bigramWeight)
		}
	}
	return vector.Normalize(v)
}

// add hashes feature into a bucket; the top bit of the digest picks the sign
// so colliding features tend to cancel rather than accumulate.
func (e *Embedder) add(v []float32, feature string, weight float32) {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(feature))
	sum := binary.LittleEndian.Uint64(h.Sum(nil))

	bucket := sum % uint64(e.dim)
	if sum>>63 == 1 {
		weight = -weight
	}
	v[bucket] += weight
}
