package languagemodel

import (
	"context"
	"strings"

	apperrors "github.com/louisbranch/llmrag/internal/platform/errors"
	"github.com/louisbranch/llmrag/internal/services/rag/embedding"
)

const (
	contextMarker = "Context:"
	queryMarker   = "\n\nQuery:"
	answerMarker  = "\nAnswer:"
)

// NoContextAnswer is generated when the prompt carries no usable context.
const NoContextAnswer = "I could not find relevant course material for this question."

// ExtractiveGenerator is an offline generator. It echoes the prompt and
// continues it with the context line that best overlaps the query, capped at
// maxLength words.
type ExtractiveGenerator struct{}

var _ Generator = ExtractiveGenerator{}

// NewExtractiveGenerator returns the offline generator.
func NewExtractiveGenerator() ExtractiveGenerator {
	return ExtractiveGenerator{}
}

// Generate implements Generator.
func (ExtractiveGenerator) Generate(ctx context.Context, prompt string, maxLength int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(prompt) == "" {
		return "", apperrors.E(apperrors.KindInvalidInput, "prompt is required")
	}
	contextText, query := splitPrompt(prompt)
	answer := bestLine(contextText, query)
	if answer == "" {
		answer = NoContextAnswer
	}
	words := strings.Fields(answer)
	if limit := normalizeMaxLength(maxLength); len(words) > limit {
		words = words[:limit]
	}
	return prompt + " " + strings.Join(words, " "), nil
}

// splitPrompt extracts the context block and query from a retrieval prompt.
// Free-form prompts are treated as a query without context.
func splitPrompt(prompt string) (string, string) {
	start := strings.Index(prompt, contextMarker)
	mid := strings.Index(prompt, queryMarker)
	if start < 0 || mid < start {
		return "", prompt
	}
	contextText := prompt[start+len(contextMarker) : mid]
	query := prompt[mid+len(queryMarker):]
	if end := strings.LastIndex(query, answerMarker); end >= 0 {
		query = query[:end]
	}
	return strings.TrimSpace(contextText), strings.TrimSpace(query)
}

func bestLine(contextText, query string) string {
	queryTokens := make(map[string]struct{})
	for _, token := range embedding.Tokenize(query) {
		queryTokens[token] = struct{}{}
	}

	best, bestScore := "", -1
	for _, line := range strings.Split(contextText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		score := 0
		for _, token := range embedding.Tokenize(line) {
			if _, ok := queryTokens[token]; ok {
				score++
			}
		}
		// Ties keep the earlier, higher-ranked line.
		if score > bestScore {
			best, bestScore = line, score
		}
	}
	return best
}
