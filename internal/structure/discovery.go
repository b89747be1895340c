// Package structure derives a book's skeleton — everything except page
// contents — from the landing page and the reading interface chrome. The
// page count and volume ranges come from the reading pages, not the
// bibliographic card, because the card routinely disagrees with what the
// reader actually serves.
package structure

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/azizmrsh/shamela-go/internal/extractors"
	"github.com/azizmrsh/shamela-go/internal/resource"
	"github.com/azizmrsh/shamela-go/internal/text"
	"github.com/azizmrsh/shamela-go/pkg/book"
)

// DefaultBaseURL is the library origin.
const DefaultBaseURL = "https://shamela.ws"

// Getter is the fetch surface discovery runs on — in practice the cached
// retry envelope.
type Getter interface {
	Get(ctx context.Context, url string) (*resource.Response, error)
}

// Discovery builds book skeletons.
type Discovery struct {
	getter  Getter
	baseURL string
	logger  *slog.Logger
}

// New creates a Discovery. baseURL falls back to the library origin.
func New(getter Getter, baseURL string, logger *slog.Logger) *Discovery {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{getter: getter, baseURL: strings.TrimSuffix(baseURL, "/"), logger: logger}
}

// BookURL returns the landing page URL for a book.
func (d *Discovery) BookURL(bookID string) string {
	return fmt.Sprintf("%s/book/%s", d.baseURL, bookID)
}

// PageURL returns the reading page URL for an internal index.
func (d *Discovery) PageURL(bookID string, page int) string {
	return fmt.Sprintf("%s/book/%s/%d", d.baseURL, bookID, page)
}

// ErrNoTitle marks a landing page with no extractable title; the book is
// not usable without one.
type ErrNoTitle struct{ BookID string }

func (e *ErrNoTitle) Error() string {
	return fmt.Sprintf("book %s: landing page has no title", e.BookID)
}

// ErrVolumes marks volume ranges that cannot be reconciled with the page
// count.
type ErrVolumes struct {
	BookID string
	Err    error
}

func (e *ErrVolumes) Error() string {
	return fmt.Sprintf("book %s: volume ranges inconsistent: %v", e.BookID, e.Err)
}

func (e *ErrVolumes) Unwrap() error { return e.Err }

// Discover assembles the skeleton: bibliography and chapter tree from the
// landing page, page count and volumes from the first reading page, and
// the printed page count from the last reading page when the edition
// tracks its print original.
func (d *Discovery) Discover(ctx context.Context, bookID string) (*book.Document, error) {
	landingURL := d.BookURL(bookID)
	landing, err := d.fetchDoc(ctx, landingURL)
	if err != nil {
		return nil, err
	}

	title, ok := extractors.Title(landing)
	if !ok {
		return nil, &ErrNoTitle{BookID: bookID}
	}

	doc := &book.Document{
		Title:                 title,
		BookID:                bookID,
		Slug:                  text.Slugify(title),
		Authors:               extractors.Authors(landing),
		Publisher:             extractors.Publisher(landing),
		Section:               extractors.Section(landing),
		Description:           extractors.Description(landing),
		HasOriginalPagination: extractors.OriginalPagination(landing),
		Chapters:              extractors.IndexTree(landing, bookID),
		SourceURL:             landingURL,
		Language:              "ar",
		ExtractionTimestamp:   time.Now().UTC(),
	}
	doc.EditionText, doc.EditionNumber = extractors.Edition(landing)
	doc.PublicationYearGregorian, doc.PublicationYearHijri = extractors.PublicationYears(landing)

	first, err := d.fetchDoc(ctx, d.PageURL(bookID, 1))
	if err != nil {
		return nil, err
	}

	pageCount := extractors.MaxInternalPage(first, bookID)
	if pageCount < 1 {
		pageCount = 1
	}
	doc.PageCountInternal = pageCount

	links := extractors.VolumeDropdown(first, bookID)
	doc.Volumes = extractors.BuildVolumes(links, pageCount)
	doc.VolumeCount = len(doc.Volumes)
	if err := doc.CheckVolumes(); err != nil {
		return nil, &ErrVolumes{BookID: bookID, Err: err}
	}

	if doc.HasOriginalPagination {
		if last, err := d.fetchDoc(ctx, d.PageURL(bookID, pageCount)); err == nil {
			if printed, ok := extractors.PrintedNumber(last); ok {
				doc.PageCountPrinted = printed
			}
		} else {
			// The printed count is informative; its absence never fails
			// discovery.
			d.logger.Warn("could not read last page for printed count", "book", bookID, "error", err)
		}
	}

	assignChapterVolumes(doc)

	d.logger.Info("skeleton built",
		"book", bookID,
		"title", title,
		"pages", doc.PageCountInternal,
		"volumes", doc.VolumeCount,
		"chapters", len(doc.Chapters))
	return doc, nil
}

func (d *Discovery) fetchDoc(ctx context.Context, url string) (*goquery.Document, error) {
	resp, err := d.getter.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(resp.Body))
}

// assignChapterVolumes places every chapter in the volume containing its
// start page; chapters with no start page, or starting outside any volume,
// default to volume 1.
func assignChapterVolumes(doc *book.Document) {
	doc.WalkChapters(func(ch *book.Chapter) {
		if ch.PageStart > 0 {
			ch.VolumeNumber = doc.VolumeFor(ch.PageStart)
		} else {
			ch.VolumeNumber = 1
		}
	})
}
