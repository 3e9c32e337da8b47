// Package embedding turns text into fixed-dimension vectors for retrieval.
package embedding

import "context"

// DefaultDimension matches the hidden size of BERT base.
const DefaultDimension = 768

// Embedder produces embeddings for text.
type Embedder interface {
	// Embed returns the embedding of text. Blank text is an invalid input.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimension reports the length of every returned embedding.
	Dimension() int
}
