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


package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/bares/ai"
)

// MockLoader is a test double for ai.Loader.
// It counts loads and can be told to fail.
type MockLoader struct {
	// Embedder is returned by Load. Defaults to a fresh MockEmbedder.
	Embedder ai.Embedder

	// Err, when set, is returned by Load instead of the embedder.
	Err error

	loads atomic.Int64
}

// NewMockLoader creates a loader that hands out a default MockEmbedder.
func NewMockLoader() *MockLoader {
	return &MockLoader{Embedder: NewMockEmbedder()}
}

// Load implements ai.Loader.
func (l *MockLoader) Load(ctx context.Context) (ai.Embedder, error) {
	l.loads.Add(1)
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Embedder, nil
}

// Loads returns how many times Load ran.
func (l *MockLoader) Loads() int {
	return int(l.loads.Load())
}

// NewMockModel returns a Model backed by embedder, plus the loader so tests
// can assert on load counts.
func NewMockModel(embedder ai.Embedder) (*ai.Model, *MockLoader) {
	loader := &MockLoader{Embedder: embedder}
	model, _ := ai.NewModel(loader.Load)
	return model, loader
}
