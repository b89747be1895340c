package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify derives a URL-safe slug from a title: unicode-normalized,
// lowercased, spaces to hyphens, punctuation stripped. Arabic letters are
// kept as-is so Arabic titles stay recognizable.
func Slugify(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	hyphen := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			hyphen = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')
				hyphen = true
			}
		}
		// Everything else (punctuation, symbols) is dropped.
	}
	return strings.TrimSuffix(b.String(), "-")
}
