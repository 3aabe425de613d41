// Package id generates opaque random identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// KeyLength is the length of an auth token key.
	KeyLength = 40

	hexAlphabet = "0123456789abcdef"
)

// Key creates a random lowercase hex key of KeyLength characters.
// Format matches the classic 40-char API token key (e.g. "9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Key() (string, error) {
	key, err := gonanoid.Generate(hexAlphabet, KeyLength)
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

// MustKey is like Key but panics if generation fails.
// Use this only in tests and fixtures.
func MustKey() string {
	key, err := Key()
	if err != nil {
		panic(fmt.Sprintf("failed to generate key: %v", err))
	}
	return key
}

// IsKey reports whether s has the shape of a key produced by Key.
func IsKey(s string) bool {
	if len(s) != KeyLength {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
