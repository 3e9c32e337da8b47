package web

import (
	"context"
	"net/http"

	"github.com/louisbranch/llmrag/internal/platform/branding"
	apperrors "github.com/louisbranch/llmrag/internal/platform/errors"
	"github.com/louisbranch/llmrag/internal/platform/timeouts"
	"github.com/louisbranch/llmrag/internal/services/rag"
	"github.com/louisbranch/llmrag/internal/services/rag/vectordb"
	"github.com/louisbranch/llmrag/internal/services/web/platform/httpx"
)

// CourseService is the RAG surface the API depends on.
type CourseService interface {
	ProcessQuery(ctx context.Context, query string, topK int) (rag.Answer, error)
	AddDocument(ctx context.Context, text, source string) (vectordb.Document, error)
	Count(ctx context.Context) (int, error)
}

type apiHandler struct {
	service CourseService
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type contextDocument struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	Score  float64 `json:"score"`
}

type queryResponse struct {
	Result  string            `json:"result"`
	Context []contextDocument `json:"context"`
}

type addDocumentRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

type addDocumentResponse struct {
	ID string `json:"id"`
}

type countResponse struct {
	Count int `json:"count"`
}

var errServiceUnavailable = apperrors.E(apperrors.KindUnavailable, "course service is not configured")

func (h *apiHandler) handleWelcome(w http.ResponseWriter, r *http.Request) {
	_ = httpx.WriteText(w, http.StatusOK, branding.APIWelcome)
}

func (h *apiHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		httpx.WriteJSONError(w, r, errServiceUnavailable)
		return
	}
	var payload queryRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.WriteJSONError(w, r, err)
		return
	}
	if payload.TopK < 0 {
		httpx.WriteJSONError(w, r, apperrors.E(apperrors.KindInvalidInput, "top_k must not be negative"))
		return
	}

	ctx, cancel := context.WithTimeout(httpx.RequestContext(r), timeouts.Query)
	defer cancel()
	answer, err := h.service.ProcessQuery(ctx, payload.Query, payload.TopK)
	if err != nil {
		httpx.WriteJSONError(w, r, err)
		return
	}

	docs := make([]contextDocument, 0, len(answer.Context))
	for _, match := range answer.Context {
		docs = append(docs, contextDocument{
			ID:     match.Document.ID,
			Text:   match.Document.Text,
			Source: match.Document.Source,
			Score:  match.Score,
		})
	}
	_ = httpx.WriteJSON(w, http.StatusOK, queryResponse{Result: answer.Response, Context: docs})
}

func (h *apiHandler) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		httpx.WriteJSONError(w, r, errServiceUnavailable)
		return
	}
	var payload addDocumentRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.WriteJSONError(w, r, err)
		return
	}
	doc, err := h.service.AddDocument(httpx.RequestContext(r), payload.Text, payload.Source)
	if err != nil {
		httpx.WriteJSONError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, addDocumentResponse{ID: doc.ID})
}

func (h *apiHandler) handleCount(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		httpx.WriteJSONError(w, r, errServiceUnavailable)
		return
	}
	count, err := h.service.Count(httpx.RequestContext(r))
	if err != nil {
		httpx.WriteJSONError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, countResponse{Count: count})
}
