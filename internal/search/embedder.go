// Package search indexes flow nodes for semantic lookup over embeddings.
package search

import (
	"context"

	chromem "github.com/philippgille/chromem-go"
)

// Embedder generates embedding vectors for node documents.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector width the model produces.
	Dimensions() int

	// Name returns the embedding model identifier.
	Name() string
}

// chromemFunc adapts an Embedder to chromem's one-text-at-a-time callback.
func chromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		results, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, nil
		}
		return results[0], nil
	}
}
