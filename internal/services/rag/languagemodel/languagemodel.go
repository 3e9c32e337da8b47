// Package languagemodel turns a retrieval prompt into answer text.
package languagemodel

import "context"

// DefaultMaxLength is the generation budget used when callers pass a
// non-positive maxLength.
const DefaultMaxLength = 50

// Generator produces a completion for prompt. Implementations may echo the
// prompt as the leading part of the output, the way causal language models
// do.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxLength int) (string, error)
}

func normalizeMaxLength(maxLength int) int {
	if maxLength <= 0 {
		return DefaultMaxLength
	}
	return maxLength
}
