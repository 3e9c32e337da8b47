package vectordb

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	candidates []candidate
	byID       map[string]int
	dimension  int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

// Add implements Store.
func (s *MemoryStore) Add(ctx context.Context, doc Document, embedding []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ValidateAdd(doc, embedding, s.dimension); err != nil {
		return err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	stored := make([]float32, len(embedding))
	copy(stored, embedding)

	if idx, ok := s.byID[doc.ID]; ok {
		s.candidates[idx] = candidate{doc: doc, embedding: stored}
		return nil
	}
	s.byID[doc.ID] = len(s.candidates)
	s.candidates = append(s.candidates, candidate{doc: doc, embedding: stored})
	s.dimension = len(stored)
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return s.candidates[idx].doc, nil
}

// Search implements Store.
func (s *MemoryStore) Search(ctx context.Context, query []float32, topK int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.candidates) == 0 {
		return []Match{}, nil
	}
	if err := ValidateQuery(query, s.dimension); err != nil {
		return nil, err
	}
	return rank(s.candidates, query, topK), nil
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.candidates), nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
