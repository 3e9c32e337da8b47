package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	apperrors "github.com/louisbranch/llmrag/internal/platform/errors"
)

// DefaultOpenAIBaseURL is the OpenAI REST API root.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// DefaultOpenAIModel is the default hosted embedding model.
const DefaultOpenAIModel = "text-embedding-3-small"

// OpenAIConfig configures the hosted embeddings endpoint.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimension  int
	HTTPClient *http.Client
}

// OpenAIEmbedder calls the OpenAI embeddings API.
type OpenAIEmbedder struct {
	cfg OpenAIConfig
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder builds an embedder with defaults for empty fields.
func NewOpenAIEmbedder(cfg OpenAIConfig) *OpenAIEmbedder {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}
	return &OpenAIEmbedder{cfg: cfg}
}

// Dimension implements Embedder.
func (e *OpenAIEmbedder) Dimension() int {
	return e.cfg.Dimension
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	apiKey := strings.TrimSpace(e.cfg.APIKey)
	if apiKey == "" {
		return nil, apperrors.E(apperrors.KindUnavailable, "embedding api key is not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.E(apperrors.KindInvalidInput, "text is required")
	}

	requestBody, err := json.Marshal(map[string]any{
		"model":      e.cfg.Model,
		"input":      text,
		"dimensions": e.cfg.Dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embeddings request: %w", err)
	}
	endpoint := strings.TrimRight(strings.TrimSpace(e.cfg.BaseURL), "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("build embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The key travels only in the Authorization header and is never echoed.
	req.Header.Set("Authorization", "Bearer "+apiKey)

	res, err := e.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "embeddings request failed", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, apperrors.Wrap(apperrors.KindUpstream,
			fmt.Sprintf("embeddings request status %d", res.StatusCode),
			errors.New(strings.TrimSpace(string(body))))
	}

	var payload struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "decode embeddings response", err)
	}
	if len(payload.Data) == 0 {
		return nil, apperrors.E(apperrors.KindUpstream, "embeddings response missing data")
	}
	sort.Slice(payload.Data, func(i, j int) bool { return payload.Data[i].Index < payload.Data[j].Index })
	embedding := payload.Data[0].Embedding
	if len(embedding) != e.cfg.Dimension {
		return nil, apperrors.E(apperrors.KindUpstream,
			fmt.Sprintf("embeddings response dimension %d, want %d", len(embedding), e.cfg.Dimension))
	}
	return embedding, nil
}
