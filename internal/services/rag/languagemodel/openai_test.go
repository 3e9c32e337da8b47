package languagemodel

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/llmrag/internal/platform/errors"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestOpenAIGeneratorValidation(t *testing.T) {
	t.Parallel()

	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		t.Fatalf("round trip should not execute for validation failure: %v", req.URL)
		return nil, nil
	})}
	g := NewOpenAIGenerator(OpenAIConfig{HTTPClient: client})
	if _, err := g.Generate(context.Background(), "hi", 0); !apperrors.IsKind(err, apperrors.KindUnavailable) {
		t.Fatalf("missing key err = %v, want unavailable", err)
	}
	g = NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-1", HTTPClient: client})
	if _, err := g.Generate(context.Background(), "\n", 0); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("blank prompt err = %v, want invalid input", err)
	}
}

func TestOpenAIGeneratorSuccess(t *testing.T) {
	t.Parallel()

	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "https://api.openai.com/v1/responses" {
			t.Fatalf("url = %q", req.URL.String())
		}
		if got := req.Header.Get("Authorization"); got != "Bearer sk-1" {
			t.Fatalf("authorization = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["model"] != DefaultOpenAIModel || body["input"] != "Query: hi" || body["max_output_tokens"] != float64(minOutputTokens) {
			t.Fatalf("request body = %v", body)
		}
		return response(http.StatusOK, `{"output":[{"content":[{"type":"output_text","text":" Hello "}]}]}`), nil
	})}

	got, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-1", HTTPClient: client}).Generate(context.Background(), "Query: hi", 4)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "Hello" {
		t.Fatalf("Generate() = %q, want %q", got, "Hello")
	}
}

func TestOpenAIGeneratorPrefersOutputText(t *testing.T) {
	t.Parallel()

	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return response(http.StatusOK, `{"output_text":"direct","output":[{"content":[{"text":"nested"}]}]}`), nil
	})}
	got, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-1", HTTPClient: client}).Generate(context.Background(), "hi", 100)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "direct" {
		t.Fatalf("Generate() = %q, want %q", got, "direct")
	}
}

func TestOpenAIGeneratorUpstreamFailures(t *testing.T) {
	t.Parallel()

	bodies := map[string]*http.Response{
		"status":  response(http.StatusBadGateway, "bad gateway"),
		"json":    response(http.StatusOK, "not json"),
		"missing": response(http.StatusOK, `{"output":[]}`),
	}
	for name, res := range bodies {
		res := res
		client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) { return res, nil })}
		_, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-1", HTTPClient: client}).Generate(context.Background(), "hi", 0)
		if !apperrors.IsKind(err, apperrors.KindUpstream) {
			t.Fatalf("%s: err = %v, want upstream", name, err)
		}
	}
}

func TestOpenAIGeneratorStatusBodyStaysInCause(t *testing.T) {
	t.Parallel()

	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return response(http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided: sk-proj-SECRET"}}`), nil
	})}
	_, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "sk-1", HTTPClient: client}).Generate(context.Background(), "hi", 0)
	if !apperrors.IsKind(err, apperrors.KindUpstream) {
		t.Fatalf("err = %v, want upstream", err)
	}
	if got := apperrors.PublicMessage(err); got != "generate request status 401" {
		t.Fatalf("PublicMessage = %q, want %q", got, "generate request status 401")
	}
	if !strings.Contains(err.Error(), "sk-proj-SECRET") {
		t.Fatalf("err = %v, want provider body in cause for logs", err)
	}
}
