// Package validation holds the quality gates: per-response structural
// checks applied before any parsing, and the document-level audit run on
// the assembled book.
package validation

import (
	"fmt"
	"strings"
)

// minResponseBytes: anything shorter is an error page or a truncated read.
const minResponseBytes = 100

// essentialTags — a real page contains at least one of these.
var essentialTags = []string{"<html", "<body", "<div"}

// errorIndicators is the closed set of phrases that mark an error page
// served with a 200. Lowercased substring match.
var errorIndicators = []string{
	"error 404",
	"not found",
	"page not found",
	"access denied",
	"forbidden",
	"server error",
	"temporarily unavailable",
	"maintenance",
}

// CheckResponse rejects bodies that cannot be a real reading page: too
// short, structurally not HTML, or carrying an error phrase.
func CheckResponse(body, url string) error {
	if len(body) < minResponseBytes {
		return fmt.Errorf("response for %s too short (%d bytes)", url, len(body))
	}

	lower := strings.ToLower(body)
	structural := false
	for _, tag := range essentialTags {
		if strings.Contains(lower, tag) {
			structural = true
			break
		}
	}
	if !structural {
		return fmt.Errorf("response for %s is not html", url)
	}

	for _, phrase := range errorIndicators {
		if strings.Contains(lower, phrase) {
			return fmt.Errorf("response for %s looks like an error page (%q)", url, phrase)
		}
	}
	return nil
}
