package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	apperrors "github.com/louisbranch/llmrag/internal/platform/errors"
)

const bigramWeight = 0.5

// HashEmbedder is an offline embedder that feature-hashes unigrams and
// bigrams into a signed, L2-normalized vector. Equal input always yields the
// same vector.
type HashEmbedder struct {
	dimension int
}

var _ Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder returns a hashing embedder. Non-positive dimensions fall
// back to DefaultDimension.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &HashEmbedder{dimension: dimension}
}

// Dimension implements Embedder.
func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

// Embed implements Embedder.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.E(apperrors.KindInvalidInput, "text is required")
	}
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		// Punctuation-only input still gets a stable vector from its runes.
		tokens = strings.Split(strings.TrimSpace(text), "")
	}

	acc := make([]float64, e.dimension)
	for i, token := range tokens {
		e.accumulate(acc, token, 1)
		if i > 0 {
			e.accumulate(acc, tokens[i-1]+"\x00"+token, bigramWeight)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	out := make([]float32, e.dimension)
	if norm == 0 {
		return out, nil
	}
	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out, nil
}

func (e *HashEmbedder) accumulate(acc []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(e.dimension))
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[idx] += weight
}
