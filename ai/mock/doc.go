// Package mock provides test double implementations of AI service interfaces.
//
// MockEmbedder implements ai.Embedder and MockLoader implements ai.Loader.
// They let tests run without an embedding service and give controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Default deterministic vectors
//	embedder := mock.NewMockEmbedder()
//	vec, err := embedder.EmbedText(ctx, "test")
//
//	// Failure injection
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("model unavailable")
//	}
//
//	// Lazily loaded handle with a load counter
//	model, loader := mock.NewMockModel(embedder)
//	_, _ = model.EmbedText(ctx, "hola")
//	loads := loader.Loads()
//
// # Default Behavior
//
//   - MockEmbedder: returns deterministic unit vectors derived from a text hash
//   - MockLoader: returns its Embedder, or Err when set
package mock
