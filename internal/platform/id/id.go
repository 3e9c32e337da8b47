// Package id provides utilities for generating URL-safe identifiers.
//
// Identifiers are UUIDv4 bytes encoded as lowercase base32 (RFC 4648) with no
// padding, 26 characters long.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a new random identifier.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(value[:])), nil
}

// FromName returns the identifier derived from name. The same name always
// yields the same identifier (UUIDv5 in the URL namespace).
func FromName(name string) string {
	value := uuid.NewSHA1(uuid.NameSpaceURL, []byte(name))
	return strings.ToLower(encoding.EncodeToString(value[:]))
}

// Valid reports whether value has the shape produced by NewID or FromName.
func Valid(value string) bool {
	if len(value) != 26 {
		return false
	}
	decoded, err := encoding.DecodeString(strings.ToUpper(value))
	return err == nil && len(decoded) == 16 && strings.ToLower(value) == value
}
