package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/louisbranch/llmrag/internal/platform/errors"
	"github.com/louisbranch/llmrag/internal/services/rag/vectordb"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func seed(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	docs := []struct {
		doc       vectordb.Document
		embedding []float32
	}{
		{doc: vectordb.Document{ID: "doc-1", Text: "Document 1", Source: "phase1/intro.md"}, embedding: []float32{1, 0, 0}},
		{doc: vectordb.Document{ID: "doc-2", Text: "Document 2"}, embedding: []float32{0, 1, 0}},
		{doc: vectordb.Document{ID: "doc-3", Text: "Document 3"}, embedding: []float32{0, 0, 1}},
	}
	for _, d := range docs {
		if err := store.Add(ctx, d.doc, d.embedding); err != nil {
			t.Fatalf("add %s: %v", d.doc.ID, err)
		}
	}
}

func TestStoreSearchRanksBySimilarity(t *testing.T) {
	store := openTestStore(t)
	seed(t, store)

	matches, err := store.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].Document.Text != "Document 1" {
		t.Fatalf("first match = %q, want %q", matches[0].Document.Text, "Document 1")
	}
	if matches[0].Document.Source != "phase1/intro.md" {
		t.Fatalf("source = %q", matches[0].Document.Source)
	}
	if matches[1].Document.ID != "doc-2" {
		t.Fatalf("tie should keep insertion order, got %q", matches[1].Document.ID)
	}
}

func TestStoreEmptySearch(t *testing.T) {
	store := openTestStore(t)

	matches, err := store.Search(context.Background(), []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if matches == nil || len(matches) != 0 {
		t.Fatalf("matches = %#v, want empty non-nil slice", matches)
	}
}

func TestStoreCountAndGet(t *testing.T) {
	store := openTestStore(t)
	seed(t, store)
	ctx := context.Background()

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	doc, err := store.Get(ctx, "doc-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Text != "Document 2" || doc.CreatedAt.IsZero() {
		t.Fatalf("doc = %+v", doc)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, vectordb.ErrNotFound) {
		t.Fatalf("get missing err = %v, want ErrNotFound", err)
	}
}

func TestStoreAddReplacesExistingID(t *testing.T) {
	store := openTestStore(t)
	seed(t, store)
	ctx := context.Background()

	createdAt := time.Date(2023, 9, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Add(ctx, vectordb.Document{ID: "doc-1", Text: "Document 1 revised", CreatedAt: createdAt}, []float32{0, 0, 1}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	count, _ := store.Count(ctx)
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	doc, err := store.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Text != "Document 1 revised" || !doc.CreatedAt.Equal(createdAt) {
		t.Fatalf("doc = %+v", doc)
	}

	matches, err := store.Search(ctx, []float32{0, 0, 1}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	// doc-1 and doc-3 tie; doc-1 keeps its original position.
	if matches[0].Document.ID != "doc-1" || matches[1].Document.ID != "doc-3" {
		t.Fatalf("order = [%s %s]", matches[0].Document.ID, matches[1].Document.ID)
	}
}

func TestStoreRejectsDimensionMismatch(t *testing.T) {
	store := openTestStore(t)
	seed(t, store)

	err := store.Add(context.Background(), vectordb.Document{ID: "doc-4", Text: "Document 4"}, []float32{1, 0})
	if !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("add err = %v, want invalid input", err)
	}
	if _, err := store.Search(context.Background(), []float32{1}, 1); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("search err = %v, want invalid input", err)
	}
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Add(ctx, vectordb.Document{ID: "doc-1", Text: "Paris is the capital of France"}, []float32{0.5, 0.25}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	matches, err := reopened.Search(ctx, []float32{0.5, 0.25}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 1 || matches[0].Document.ID != "doc-1" {
		t.Fatalf("matches = %+v", matches)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestEmbeddingCodecRoundTrip(t *testing.T) {
	t.Parallel()

	want := []float32{0, -1.5, 3.25, 1e-7}
	got, err := decodeEmbedding(encodeEmbedding(want))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if _, err := decodeEmbedding([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated blob")
	}
}
