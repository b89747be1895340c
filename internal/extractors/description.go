package extractors

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/azizmrsh/shamela-go/internal/text"
)

// minDescriptionLength is the point below which a marker-delimited card is
// considered a bad cut and the selector fallback kicks in.
const minDescriptionLength = 50

// Description extracts the free-form book card: the text between the first
// start marker and the first subsequent end marker, cleaned of UI debris.
// When the delimited cut comes out too short the extractor falls back to
// the card selectors with the same cleaning.
func Description(doc *goquery.Document) string {
	body := doc.Find("body").Text()

	if desc := markerDelimited(body); len([]rune(desc)) >= minDescriptionLength {
		return desc
	}

	for _, sel := range descriptionSelectors {
		desc := cleanDescription(doc.Find(sel).First().Text())
		if len([]rune(desc)) >= minDescriptionLength {
			return desc
		}
	}
	return ""
}

func markerDelimited(body string) string {
	start := -1
	for _, marker := range descriptionStartMarkers {
		if idx := strings.Index(body, marker); idx >= 0 {
			start = idx + len(marker)
			break
		}
	}
	if start < 0 {
		return ""
	}

	rest := body[start:]
	end := len(rest)
	for _, marker := range descriptionEndMarkers {
		if idx := strings.Index(rest, marker); idx >= 0 && idx < end {
			end = idx
		}
	}
	return cleanDescription(rest[:end])
}

// cleanDescription drops UI phrases, numbered list artifacts, and "[+]"
// expander lines, then collapses blank-line runs while keeping single
// newlines intact.
func cleanDescription(s string) string {
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			kept = append(kept, "")
			continue
		}
		if numberedLineRe.MatchString(trimmed) || plusLineRe.MatchString(trimmed) {
			continue
		}
		if containsUIPhrase(trimmed) {
			continue
		}
		kept = append(kept, text.NormalizeSpaces(trimmed))
	}
	return strings.TrimSpace(text.CollapseBlankLines(strings.Join(kept, "\n")))
}

func containsUIPhrase(line string) bool {
	for _, phrase := range uiPhrases {
		if strings.Contains(line, phrase) {
			return true
		}
	}
	return false
}
