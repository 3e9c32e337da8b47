package languagemodel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/llmrag/internal/platform/errors"
)

// DefaultOpenAIBaseURL is the OpenAI REST API root.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// DefaultOpenAIModel is the default hosted generation model.
const DefaultOpenAIModel = "gpt-4o-mini"

// minOutputTokens is the smallest budget the responses API accepts.
const minOutputTokens = 16

// OpenAIConfig configures the hosted responses endpoint.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// OpenAIGenerator calls the OpenAI responses API.
type OpenAIGenerator struct {
	cfg OpenAIConfig
}

var _ Generator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator builds a generator with defaults for empty fields.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultOpenAIModel
	}
	return &OpenAIGenerator{cfg: cfg}
}

// Generate implements Generator. The hosted model does not echo the prompt.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, maxLength int) (string, error) {
	apiKey := strings.TrimSpace(g.cfg.APIKey)
	if apiKey == "" {
		return "", apperrors.E(apperrors.KindUnavailable, "generator api key is not configured")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apperrors.E(apperrors.KindInvalidInput, "prompt is required")
	}
	maxTokens := normalizeMaxLength(maxLength)
	if maxTokens < minOutputTokens {
		maxTokens = minOutputTokens
	}

	requestBody, err := json.Marshal(map[string]any{
		"model":             g.cfg.Model,
		"input":             prompt,
		"max_output_tokens": maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}
	endpoint := strings.TrimRight(strings.TrimSpace(g.cfg.BaseURL), "/") + "/responses"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	res, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindUpstream, "generate request failed", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", apperrors.Wrap(apperrors.KindUpstream,
			fmt.Sprintf("generate request status %d", res.StatusCode),
			errors.New(strings.TrimSpace(string(body))))
	}

	var payload struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", apperrors.Wrap(apperrors.KindUpstream, "decode generate response", err)
	}
	if text := strings.TrimSpace(payload.OutputText); text != "" {
		return text, nil
	}
	for _, item := range payload.Output {
		for _, content := range item.Content {
			if text := strings.TrimSpace(content.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", apperrors.E(apperrors.KindUpstream, "generate response missing output text")
}
