// Package normalize provides utilities for normalizing user-supplied text
// before it is validated, compared or stored.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Email returns the canonical stored form of an email address.
//
// Surrounding whitespace is removed and the domain part is lowercased.
// The local part is left untouched because mailbox names may be case-sensitive.
// Input without an "@" is returned trimmed so validation can reject it.
//
// Examples:
//
//	"test1@EXAMPLE.com" → "test1@example.com"
//	"Test2@Example.com" → "Test2@example.com"
//	"TEST3@EXAMPLE.COM" → "TEST3@example.com"
func Email(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// Name returns the canonical form of a display name, tag or ingredient name:
// trimmed of surrounding whitespace and in Unicode NFC, so visually identical
// names compare equal in the registry.
func Name(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Names normalizes each entry and drops duplicates, keeping first-seen order.
// Blank entries are kept as "" so the caller can report them.
func Names(names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = Name(n)
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
