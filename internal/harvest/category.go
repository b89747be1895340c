package harvest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/azizmrsh/shamela-go/internal/structure"
	"github.com/azizmrsh/shamela-go/internal/text"
)

// CategoryListing enumerates the books filed under one library category.
type CategoryListing struct {
	CategoryID string   `json:"category_id"`
	Name       string   `json:"name"`
	BookIDs    []string `json:"book_ids"`
}

var categoryBookRe = regexp.MustCompile(`/book/(\d+)`)

// Category fetches a category page and collects every linked book ID in
// document order, de-duplicated.
func (h *Harvester) Category(ctx context.Context, categoryID string) (*CategoryListing, error) {
	url := fmt.Sprintf("%s/category/%s", strings.TrimSuffix(h.baseURL(), "/"), categoryID)
	getter := &cachedGetter{envelope: h.envelope, cache: h.responses}
	resp, err := getter.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	listing := &CategoryListing{CategoryID: categoryID}
	seen := make(map[string]bool)
	for _, m := range categoryBookRe.FindAllStringSubmatch(resp.Body, -1) {
		id := m[1]
		if !seen[id] {
			seen[id] = true
			listing.BookIDs = append(listing.BookIDs, id)
		}
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Body)); err == nil {
		for _, sel := range []string{"h1", "title"} {
			if name := text.CleanText(doc.Find(sel).First().Text()); name != "" {
				listing.Name = name
				break
			}
		}
	}

	h.logger.Info("category listed", "category", categoryID, "books", len(listing.BookIDs))
	return listing, nil
}

func (h *Harvester) baseURL() string {
	if h.cfg.BaseURL != "" {
		return h.cfg.BaseURL
	}
	return structure.DefaultBaseURL
}
