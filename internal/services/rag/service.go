// Package rag answers course questions by retrieving similar documents and
// conditioning a language model on them.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/llmrag/internal/platform/errors"
	"github.com/louisbranch/llmrag/internal/platform/id"
	"github.com/louisbranch/llmrag/internal/platform/requestctx"
	"github.com/louisbranch/llmrag/internal/services/rag/embedding"
	"github.com/louisbranch/llmrag/internal/services/rag/languagemodel"
	"github.com/louisbranch/llmrag/internal/services/rag/vectordb"
)

const tracerName = "github.com/louisbranch/llmrag/internal/services/rag"

// Answer is the outcome of one retrieval-augmented query.
type Answer struct {
	Query    string
	Prompt   string
	Response string
	Context  []vectordb.Match
}

// Options tunes a Service. Zero values pick defaults.
type Options struct {
	TopK      int
	MaxLength int
	Now       func() time.Time
	NewID     func() (string, error)
	Tracer    trace.Tracer
}

// Service wires an embedder, a vector store and a generator into the
// retrieval pipeline.
type Service struct {
	embedder  embedding.Embedder
	store     vectordb.Store
	generator languagemodel.Generator
	topK      int
	maxLength int
	now       func() time.Time
	newID     func() (string, error)
	tracer    trace.Tracer
}

// New builds a Service from its collaborators.
func New(embedder embedding.Embedder, store vectordb.Store, generator languagemodel.Generator, opts Options) (*Service, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if opts.TopK <= 0 {
		opts.TopK = vectordb.DefaultTopK
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = languagemodel.DefaultMaxLength
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = id.NewID
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	return &Service{
		embedder:  embedder,
		store:     store,
		generator: generator,
		topK:      opts.TopK,
		maxLength: opts.MaxLength,
		now:       opts.Now,
		newID:     opts.NewID,
		tracer:    opts.Tracer,
	}, nil
}

// BuildPrompt formats retrieved context and the user query for generation.
func BuildPrompt(contextText, query string) string {
	return "Context: " + contextText + "\n\nQuery: " + query + "\nAnswer:"
}

// JoinContext concatenates match texts in rank order, one per line.
func JoinContext(matches []vectordb.Match) string {
	texts := make([]string, 0, len(matches))
	for _, match := range matches {
		texts = append(texts, match.Document.Text)
	}
	return strings.Join(texts, "\n")
}

// ProcessQuery embeds query, retrieves up to topK documents, and generates
// an answer grounded on them. Non-positive topK uses the service default.
func (s *Service) ProcessQuery(ctx context.Context, query string, topK int) (Answer, error) {
	if s == nil {
		return Answer{}, fmt.Errorf("rag service is not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return Answer{}, apperrors.E(apperrors.KindInvalidInput, "query is required")
	}
	if topK <= 0 {
		topK = s.topK
	}

	ctx, span := s.tracer.Start(ctx, "rag.ProcessQuery", trace.WithAttributes(attribute.Int("rag.top_k", topK)))
	if requestID := requestctx.RequestIDFromContext(ctx); requestID != "" {
		span.SetAttributes(attribute.String("request.id", requestID))
	}
	defer span.End()

	matches, err := s.retrieve(ctx, query, topK)
	if err != nil {
		return Answer{}, recordError(span, err)
	}

	prompt := BuildPrompt(JoinContext(matches), query)
	genCtx, genSpan := s.tracer.Start(ctx, "rag.Generate", trace.WithAttributes(attribute.Int("rag.max_length", s.maxLength)))
	output, err := s.generator.Generate(genCtx, prompt, s.maxLength)
	genSpan.End()
	if err != nil {
		return Answer{}, recordError(span, fmt.Errorf("generate answer: %w", err))
	}
	span.SetAttributes(attribute.Int("rag.matches", len(matches)))

	return Answer{
		Query:    query,
		Prompt:   prompt,
		Response: stripPrompt(output, prompt),
		Context:  matches,
	}, nil
}

// Search returns the documents most similar to query without generating.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]vectordb.Match, error) {
	if s == nil {
		return nil, fmt.Errorf("rag service is not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.E(apperrors.KindInvalidInput, "query is required")
	}
	if topK <= 0 {
		topK = s.topK
	}
	ctx, span := s.tracer.Start(ctx, "rag.Search", trace.WithAttributes(attribute.Int("rag.top_k", topK)))
	defer span.End()

	matches, err := s.retrieve(ctx, query, topK)
	if err != nil {
		return nil, recordError(span, err)
	}
	return matches, nil
}

// AddDocument embeds text and stores it under a fresh id.
func (s *Service) AddDocument(ctx context.Context, text, source string) (vectordb.Document, error) {
	if s == nil {
		return vectordb.Document{}, fmt.Errorf("rag service is not configured")
	}
	docID, err := s.newID()
	if err != nil {
		return vectordb.Document{}, fmt.Errorf("generate document id: %w", err)
	}
	return s.putDocument(ctx, docID, text, source)
}

// PutDocument embeds text and stores it under docID, replacing any document
// already stored with that id.
func (s *Service) PutDocument(ctx context.Context, docID, text, source string) (vectordb.Document, error) {
	if s == nil {
		return vectordb.Document{}, fmt.Errorf("rag service is not configured")
	}
	if !id.Valid(docID) {
		return vectordb.Document{}, apperrors.E(apperrors.KindInvalidInput, "document id is invalid")
	}
	return s.putDocument(ctx, docID, text, source)
}

// HasDocument reports whether a document with docID is stored.
func (s *Service) HasDocument(ctx context.Context, docID string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("rag service is not configured")
	}
	_, err := s.store.Get(ctx, docID)
	if errors.Is(err, vectordb.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get document: %w", err)
	}
	return true, nil
}

func (s *Service) putDocument(ctx context.Context, docID, text, source string) (vectordb.Document, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return vectordb.Document{}, apperrors.E(apperrors.KindInvalidInput, "document text is required")
	}
	ctx, span := s.tracer.Start(ctx, "rag.AddDocument", trace.WithAttributes(attribute.String("rag.source", source)))
	defer span.End()

	vector, err := s.embed(ctx, text)
	if err != nil {
		return vectordb.Document{}, recordError(span, err)
	}
	doc := vectordb.Document{
		ID:        docID,
		Text:      text,
		Source:    strings.TrimSpace(source),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Add(ctx, doc, vector); err != nil {
		return vectordb.Document{}, recordError(span, fmt.Errorf("store document: %w", err))
	}
	return doc, nil
}

// Count returns the number of indexed documents.
func (s *Service) Count(ctx context.Context) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("rag service is not configured")
	}
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

func (s *Service) retrieve(ctx context.Context, query string, topK int) ([]vectordb.Match, error) {
	vector, err := s.embed(ctx, query)
	if err != nil {
		return nil, err
	}
	searchCtx, span := s.tracer.Start(ctx, "rag.VectorSearch")
	defer span.End()
	matches, err := s.store.Search(searchCtx, vector, topK)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("search documents: %w", err))
	}
	return matches, nil
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := s.tracer.Start(ctx, "rag.Embed")
	defer span.End()
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, recordError(span, fmt.Errorf("embed text: %w", err))
	}
	return vector, nil
}

// stripPrompt drops the echoed prompt some generators prepend to output.
func stripPrompt(output, prompt string) string {
	if rest, ok := strings.CutPrefix(output, prompt); ok {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(output)
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
