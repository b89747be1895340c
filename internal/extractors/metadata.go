package extractors

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/azizmrsh/shamela-go/internal/text"
	"github.com/azizmrsh/shamela-go/pkg/book"
)

// Title returns the book title from the landing page. ok is false when no
// selector yields a cleaned title longer than three characters; callers
// treat that as a hard error, a book without a title is not extractable.
func Title(doc *goquery.Document) (string, bool) {
	for _, sel := range titleSelectors {
		title := text.CleanText(doc.Find(sel).First().Text())
		if len([]rune(title)) > 3 {
			return title, true
		}
	}
	return "", false
}

// Authors enumerates the author anchors, de-duplicating by cleaned name
// while preserving first-seen order.
func Authors(doc *goquery.Document) []book.Author {
	var authors []book.Author
	seen := make(map[string]bool)
	for _, sel := range authorSelectors {
		doc.Find(sel).Each(func(_ int, a *goquery.Selection) {
			name := text.CleanText(a.Text())
			if name == "" || seen[name] {
				return
			}
			seen[name] = true
			authors = append(authors, book.Author{
				Name: name,
				Slug: authorSlug(a, name),
			})
		})
	}
	return authors
}

// authorSlug prefers the site's own slug from the /author/ URL and falls
// back to deriving one from the name.
func authorSlug(a *goquery.Selection, name string) string {
	if href, ok := a.Attr("href"); ok {
		if i := strings.Index(href, "/author/"); i >= 0 {
			slug := strings.Trim(href[i+len("/author/"):], "/")
			if j := strings.IndexAny(slug, "?#"); j >= 0 {
				slug = slug[:j]
			}
			if slug != "" {
				return slug
			}
		}
	}
	return text.Slugify(name)
}

// Publisher scans the landing page text for the first publisher label and
// takes the remainder of that line, optionally splitting a trailing city
// into Location.
func Publisher(doc *goquery.Document) *book.Publisher {
	value, ok := labeledValue(doc, publisherLabels)
	if !ok {
		return nil
	}
	name, location := splitPublisherLocation(value)
	return &book.Publisher{
		Name:     name,
		Slug:     text.Slugify(name),
		Location: location,
	}
}

func splitPublisherLocation(s string) (name, location string) {
	for _, sep := range []string{"،", " - "} {
		idx := strings.LastIndex(s, sep)
		if idx < 0 {
			continue
		}
		tail := text.CleanText(s[idx+len(sep):])
		for _, city := range publisherCities {
			if strings.Contains(tail, city) {
				return text.CleanText(s[:idx]), tail
			}
		}
	}
	return text.CleanText(s), ""
}

// Section returns the library category, from the category anchor when the
// markup has one and from the labeled text otherwise.
func Section(doc *goquery.Document) *book.Section {
	for _, sel := range sectionSelectors {
		name := text.CleanText(doc.Find(sel).First().Text())
		if name != "" {
			return &book.Section{Name: name, Slug: text.Slugify(name)}
		}
	}
	if value, ok := labeledValue(doc, sectionLabels); ok {
		return &book.Section{Name: value, Slug: text.Slugify(value)}
	}
	return nil
}

// labeledValue finds the first of the labels in the body text and returns
// the cleaned remainder of its line.
func labeledValue(doc *goquery.Document, labels []string) (string, bool) {
	body := doc.Find("body").Text()
	for _, label := range labels {
		idx := strings.Index(body, label)
		if idx < 0 {
			continue
		}
		rest := body[idx+len(label):]
		if eol := strings.IndexByte(rest, '\n'); eol >= 0 {
			rest = rest[:eol]
		}
		value := text.CleanText(rest)
		if value != "" {
			return value, true
		}
	}
	return "", false
}
