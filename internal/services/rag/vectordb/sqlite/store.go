// Package sqlite provides a SQLite-backed vector store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/llmrag/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/llmrag/internal/services/rag/vectordb"
	"github.com/louisbranch/llmrag/internal/services/rag/vectordb/sqlite/migrations"
	_ "modernc.org/sqlite"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store persists documents and embeddings in SQLite. Search loads every
// embedding and ranks in process.
type Store struct {
	sqlDB *sql.DB
}

var _ vectordb.Store = (*Store)(nil)

// Open opens a SQLite store at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	return open(dsn, 0)
}

// OpenInMemory opens a private in-memory store, mainly for tests.
func OpenInMemory() (*Store, error) {
	// A pooled :memory: connection is a separate database, so pin to one.
	return open(":memory:", 1)
}

func open(dsn string, maxConns int) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// DB returns the underlying sql.DB instance.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Add implements vectordb.Store. Re-adding an id replaces its text and
// embedding but keeps its original position for tie ordering.
func (s *Store) Add(ctx context.Context, doc vectordb.Document, embedding []float32) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add document: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	dimension, err := storedDimension(ctx, tx)
	if err != nil {
		return err
	}
	if err := vectordb.ValidateAdd(doc, embedding, dimension); err != nil {
		return err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO documents (id, text, source, dimension, embedding, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    text = excluded.text,
    source = excluded.source,
    dimension = excluded.dimension,
    embedding = excluded.embedding,
    created_at = excluded.created_at`,
		doc.ID,
		doc.Text,
		doc.Source,
		len(embedding),
		encodeEmbedding(embedding),
		toMillis(doc.CreatedAt),
	); err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add document: %w", err)
	}
	return nil
}

// Get implements vectordb.Store.
func (s *Store) Get(ctx context.Context, id string) (vectordb.Document, error) {
	if s == nil || s.sqlDB == nil {
		return vectordb.Document{}, fmt.Errorf("storage is not configured")
	}
	var (
		doc       vectordb.Document
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, text, source, created_at FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Text, &doc.Source, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return vectordb.Document{}, vectordb.ErrNotFound
	}
	if err != nil {
		return vectordb.Document{}, fmt.Errorf("get document: %w", err)
	}
	doc.CreatedAt = fromMillis(createdAt)
	return doc, nil
}

// Search implements vectordb.Store.
func (s *Store) Search(ctx context.Context, query []float32, topK int) ([]vectordb.Match, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, text, source, created_at, embedding FROM documents ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var (
		docs       []vectordb.Document
		embeddings [][]float32
	)
	for rows.Next() {
		var (
			doc       vectordb.Document
			createdAt int64
			raw       []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &doc.Source, &createdAt, &raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		embedding, err := decodeEmbedding(raw)
		if err != nil {
			return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
		}
		doc.CreatedAt = fromMillis(createdAt)
		docs = append(docs, doc)
		embeddings = append(embeddings, embedding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	if len(docs) == 0 {
		return []vectordb.Match{}, nil
	}
	if err := vectordb.ValidateQuery(query, len(embeddings[0])); err != nil {
		return nil, err
	}
	return vectordb.Rank(docs, embeddings, query, topK), nil
}

// Count implements vectordb.Store.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	var count int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

func storedDimension(ctx context.Context, tx *sql.Tx) (int, error) {
	var dimension int
	err := tx.QueryRowContext(ctx, `SELECT dimension FROM documents ORDER BY seq LIMIT 1`).Scan(&dimension)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read store dimension: %w", err)
	}
	return dimension, nil
}
