package domain

import (
	"context"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/louisbranch/llmrag/internal/platform/errors"
	"github.com/louisbranch/llmrag/internal/platform/timeouts"
	"github.com/louisbranch/llmrag/internal/services/rag"
	"github.com/louisbranch/llmrag/internal/services/rag/vectordb"
)

// CourseService is the RAG surface exposed as tools.
type CourseService interface {
	ProcessQuery(ctx context.Context, query string, topK int) (rag.Answer, error)
	Search(ctx context.Context, query string, topK int) ([]vectordb.Match, error)
}

// CourseQueryInput represents the MCP tool input for asking a question.
type CourseQueryInput struct {
	Query string `json:"query" jsonschema:"question about the course material"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of course documents to retrieve (default 5)"`
}

// ContextDocument is a retrieved document in tool output.
type ContextDocument struct {
	ID     string  `json:"id" jsonschema:"document identifier"`
	Text   string  `json:"text" jsonschema:"document text"`
	Source string  `json:"source,omitempty" jsonschema:"lesson the document came from"`
	Score  float64 `json:"score" jsonschema:"cosine similarity to the query"`
}

// CourseQueryResult represents the MCP tool output for a question.
type CourseQueryResult struct {
	Result  string            `json:"result" jsonschema:"generated answer"`
	Context []ContextDocument `json:"context" jsonschema:"documents the answer was grounded on"`
}

// CourseSearchInput represents the MCP tool input for a similarity search.
type CourseSearchInput struct {
	Query string `json:"query" jsonschema:"text to find similar course documents for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of matches (default 5)"`
}

// CourseSearchResult represents the MCP tool output for a similarity search.
type CourseSearchResult struct {
	Matches []ContextDocument `json:"matches" jsonschema:"matches ordered by descending similarity"`
}

// CourseQueryTool defines the MCP tool schema for course questions.
func CourseQueryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "course_query",
		Description: "Answers a question using retrieval-augmented generation over the course material",
	}
}

// CourseSearchTool defines the MCP tool schema for course search.
func CourseSearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "course_search",
		Description: "Finds the course documents most similar to a query",
	}
}

// CourseQueryHandler answers a course question.
func CourseQueryHandler(service CourseService) mcp.ToolHandlerFor[CourseQueryInput, CourseQueryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CourseQueryInput) (*mcp.CallToolResult, CourseQueryResult, error) {
		if service == nil {
			return nil, CourseQueryResult{}, fmt.Errorf("course service is not configured")
		}
		if input.TopK < 0 {
			return nil, CourseQueryResult{}, apperrors.E(apperrors.KindInvalidInput, "top_k must not be negative")
		}
		runCtx, cancel := context.WithTimeout(ctx, timeouts.Query)
		defer cancel()

		answer, err := service.ProcessQuery(runCtx, input.Query, input.TopK)
		if err != nil {
			return nil, CourseQueryResult{}, toolError("course query", err)
		}
		return nil, CourseQueryResult{Result: answer.Response, Context: contextDocuments(answer.Context)}, nil
	}
}

// CourseSearchHandler runs a similarity search without generation.
func CourseSearchHandler(service CourseService) mcp.ToolHandlerFor[CourseSearchInput, CourseSearchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CourseSearchInput) (*mcp.CallToolResult, CourseSearchResult, error) {
		if service == nil {
			return nil, CourseSearchResult{}, fmt.Errorf("course service is not configured")
		}
		if input.TopK < 0 {
			return nil, CourseSearchResult{}, apperrors.E(apperrors.KindInvalidInput, "top_k must not be negative")
		}
		runCtx, cancel := context.WithTimeout(ctx, timeouts.Query)
		defer cancel()

		matches, err := service.Search(runCtx, input.Query, input.TopK)
		if err != nil {
			return nil, CourseSearchResult{}, toolError("course search", err)
		}
		return nil, CourseSearchResult{Matches: contextDocuments(matches)}, nil
	}
}

// toolError logs err and returns a client-safe error of the same kind.
func toolError(operation string, err error) error {
	log.Printf("mcp tool failed operation=%q kind=%s err=%v", operation, apperrors.KindOf(err), err)
	return apperrors.E(apperrors.KindOf(err), operation+" failed: "+apperrors.PublicMessage(err))
}

func contextDocuments(matches []vectordb.Match) []ContextDocument {
	docs := make([]ContextDocument, 0, len(matches))
	for _, match := range matches {
		docs = append(docs, ContextDocument{
			ID:     match.Document.ID,
			Text:   match.Document.Text,
			Source: match.Document.Source,
			Score:  match.Score,
		})
	}
	return docs
}
