package embedding

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Tokenize normalizes text (NFKC, case folding) and splits it into word
// tokens made of letters and digits.
func Tokenize(text string) []string {
	// Casers are stateful and must not be shared across goroutines.
	normalized := cases.Fold().String(norm.NFKC.String(text))
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
