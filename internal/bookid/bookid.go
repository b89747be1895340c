// Package bookid normalizes the book identifiers accepted at the library
// boundary. The site keys books by a bare integer; tooling around it also
// passes a "BK"-prefixed, zero-padded form.
package bookid

import (
	"fmt"
	"strings"
)

// Normalize strips the optional BK prefix and any leading zeroes and
// verifies the remainder is a positive decimal number. The normalized form
// is what every URL and cross-cutting key uses.
func Normalize(id string) (string, error) {
	raw := strings.TrimSpace(id)
	s := raw
	if len(s) >= 2 && (strings.HasPrefix(strings.ToUpper(s), "BK")) {
		s = s[2:]
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		// All zeroes (or empty input) does not identify a book.
		return "", fmt.Errorf("invalid book id %q", raw)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("invalid book id %q", raw)
		}
	}
	return s, nil
}
