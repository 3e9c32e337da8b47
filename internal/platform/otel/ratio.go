package otel

import (
	"strconv"
	"strings"
)

// parseRatio reads a sampling ratio; ok is false for empty or out-of-range input.
func parseRatio(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 0, false
	}
	return ratio, true
}
