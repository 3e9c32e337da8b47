// Package vectordb stores course documents with their embeddings and ranks
// them by cosine similarity against a query embedding.
package vectordb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	apperrors "github.com/louisbranch/llmrag/internal/platform/errors"
)

// DefaultTopK is used when a search asks for zero or fewer results.
const DefaultTopK = 5

// ErrNotFound indicates a requested document is missing.
var ErrNotFound = errors.New("document not found")

// Document is a unit of retrievable course text.
type Document struct {
	ID        string
	Text      string
	Source    string
	CreatedAt time.Time
}

// Match is a document scored against a query embedding.
type Match struct {
	Document Document
	Score    float64
}

// Store persists documents and answers nearest-neighbour searches.
type Store interface {
	// Add stores doc with its embedding. All embeddings in a store share a
	// dimension; a mismatch is an invalid input error.
	Add(ctx context.Context, doc Document, embedding []float32) error
	// Get returns the document with id or ErrNotFound.
	Get(ctx context.Context, id string) (Document, error)
	// Search returns up to topK documents ordered by descending similarity.
	// An empty store yields an empty, non-nil slice.
	Search(ctx context.Context, query []float32, topK int) ([]Match, error)
	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
	Close() error
}

// Cosine returns the cosine similarity of a and b. Zero-norm vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

type candidate struct {
	doc       Document
	embedding []float32
}

// rank scores candidates, which must be in insertion order, and keeps the
// best topK. Equal scores keep insertion order.
func rank(candidates []candidate, query []float32, topK int) []Match {
	if topK <= 0 {
		topK = DefaultTopK
	}
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, Match{Document: c.doc, Score: Cosine(query, c.embedding)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func validateEmbedding(embedding []float32, dimension int) error {
	if len(embedding) == 0 {
		return apperrors.E(apperrors.KindInvalidInput, "embedding is required")
	}
	if dimension > 0 && len(embedding) != dimension {
		return apperrors.E(apperrors.KindInvalidInput,
			fmt.Sprintf("embedding dimension %d does not match store dimension %d", len(embedding), dimension))
	}
	for _, v := range embedding {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return apperrors.E(apperrors.KindInvalidInput, "embedding contains non-finite values")
		}
	}
	return nil
}

func validateDocument(doc Document) error {
	if doc.ID == "" {
		return apperrors.E(apperrors.KindInvalidInput, "document id is required")
	}
	if doc.Text == "" {
		return apperrors.E(apperrors.KindInvalidInput, "document text is required")
	}
	return nil
}

// Rank exposes the shared ranking for stores in sibling packages.
func Rank(docs []Document, embeddings [][]float32, query []float32, topK int) []Match {
	candidates := make([]candidate, 0, len(docs))
	for i := range docs {
		if i >= len(embeddings) {
			break
		}
		candidates = append(candidates, candidate{doc: docs[i], embedding: embeddings[i]})
	}
	return rank(candidates, query, topK)
}

// ValidateAdd checks a document and embedding against the store dimension
// (0 when the store is empty).
func ValidateAdd(doc Document, embedding []float32, dimension int) error {
	if err := validateDocument(doc); err != nil {
		return err
	}
	return validateEmbedding(embedding, dimension)
}

// ValidateQuery checks a query embedding against the store dimension.
func ValidateQuery(query []float32, dimension int) error {
	return validateEmbedding(query, dimension)
}
