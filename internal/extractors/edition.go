package extractors

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/azizmrsh/shamela-go/internal/text"
)

// Edition extracts the edition statement and its numeric form. Statements
// beginning with "بدون تاريخ" or "بدون طبعة" mean the card explicitly has
// no edition, so both results stay empty.
func Edition(doc *goquery.Document) (editionText string, editionNumber int) {
	value, ok := labeledValue(doc, editionLabels)
	if !ok {
		return "", 0
	}
	for _, prefix := range noEditionPrefixes {
		if strings.HasPrefix(value, prefix) {
			return "", 0
		}
	}
	return value, editionNumberFrom(value)
}

// editionNumberFrom resolves the ordinal word first ("الطبعة الأولى" → 1)
// and falls back to the first integer in the statement.
func editionNumberFrom(s string) int {
	for word, n := range text.EditionOrdinals {
		if strings.Contains(s, word) {
			return n
		}
	}
	if n, ok := text.FirstInt(s); ok {
		return n
	}
	return 0
}

// PublicationYears finds the publication year in both calendars. When the
// card names only one, the other is approximated; a card naming neither
// leaves both zero.
func PublicationYears(doc *goquery.Document) (gregorian, hijri int) {
	body := doc.Find("body").Text()

	if m := hijriYearRe.FindStringSubmatch(body); m != nil {
		hijri, _ = text.FirstInt(m[1])
	}
	if m := gregorianYearRe.FindStringSubmatch(body); m != nil {
		gregorian, _ = text.FirstInt(m[1])
	}

	switch {
	case hijri != 0 && gregorian == 0:
		gregorian = text.ApproxGregorianFromHijri(hijri)
	case gregorian != 0 && hijri == 0:
		hijri = text.ApproxHijriFromGregorian(gregorian)
	}
	return gregorian, hijri
}

// OriginalPagination reports whether the landing page declares the edition
// faithful to its print original.
func OriginalPagination(doc *goquery.Document) bool {
	body := doc.Find("body").Text()
	for _, marker := range originalPaginationMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}
