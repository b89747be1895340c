// Package book defines the document model produced by an extraction: the
// bibliographic skeleton, the volume and chapter structure, and the page
// contents, together with the stable JSON contract consumers rely on.
package book

import (
	"fmt"
	"time"
)

// Document is the root of an extracted book. It is built progressively by
// the orchestrator and frozen once extraction returns; callers own the value
// after that.
type Document struct {
	Title    string   `json:"title"`
	BookID   string   `json:"book_id"`
	Slug     string   `json:"slug"`
	Authors  []Author `json:"authors"`
	Publisher *Publisher `json:"publisher,omitempty"`
	Section   *Section   `json:"section,omitempty"`

	EditionText              string `json:"edition_text,omitempty"`
	EditionNumber            int    `json:"edition_number,omitempty"`
	PublicationYearGregorian int    `json:"publication_year_gregorian,omitempty"`
	PublicationYearHijri     int    `json:"publication_year_hijri,omitempty"`

	// PageCountInternal is the number of pages the reading interface
	// exposes; PageCountPrinted is the last printed page number when the
	// edition is faithful to a print original.
	PageCountInternal int `json:"page_count_internal"`
	PageCountPrinted  int `json:"page_count_printed,omitempty"`

	VolumeCount int       `json:"volume_count"`
	Volumes     []Volume  `json:"volumes"`
	Chapters    []Chapter `json:"chapters"`
	Pages       []Page    `json:"pages"`

	Description           string    `json:"description,omitempty"`
	SourceURL             string    `json:"source_url"`
	HasOriginalPagination bool      `json:"has_original_pagination"`
	Language              string    `json:"language"`
	ExtractionTimestamp   time.Time `json:"extraction_timestamp"`

	// RecoveredFromBackup marks a document served from a prior backup
	// after the live extraction failed.
	RecoveredFromBackup bool `json:"recovered_from_backup,omitempty"`
}

// Author identifies a contributor. Uniqueness within Document.Authors is by
// Name.
type Author struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Biography string `json:"biography,omitempty"`
	School    string `json:"school,omitempty"`
	Birth     string `json:"birth,omitempty"`
	Death     string `json:"death,omitempty"`
}

// Publisher is the publishing house named on the book card.
type Publisher struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// Section is the library category the book is filed under.
type Section struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// Volume is one part of a multi-volume book, covering the internal page
// range [PageStart, PageEnd].
type Volume struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
}

// Contains reports whether the internal page index falls inside the volume.
func (v Volume) Contains(page int) bool {
	return page >= v.PageStart && page <= v.PageEnd
}

// Chapter is a node of the table of contents. Level 0 chapters are main
// entries; children sit one level deeper than their parent.
type Chapter struct {
	Title        string    `json:"title"`
	Order        int       `json:"order"`
	PageStart    int       `json:"page_start,omitempty"`
	PageEnd      int       `json:"page_end,omitempty"`
	Level        int       `json:"level"`
	Kind         string    `json:"kind"`
	VolumeNumber int       `json:"volume_number,omitempty"`
	Children     []Chapter `json:"children,omitempty"`
}

// Chapter kinds.
const (
	ChapterMain = "main"
	ChapterSub  = "sub"
)

// Page is one reading page. InternalIndex is the crawler-visible position
// (the N of /book/{id}/{N}); PrintedNumber is the number the edition's
// <title> asserts; PageNumber is the reconciled value consumers should use.
type Page struct {
	InternalIndex  int    `json:"internal_index"`
	PrintedNumber  int    `json:"printed_number,omitempty"`
	PageNumber     int    `json:"page_number"`
	Content        string `json:"content"`
	HTMLContent    string `json:"html_content,omitempty"`
	WordCount      int    `json:"word_count"`
	VolumeNumber   int    `json:"volume_number,omitempty"`
	ChapterOrder   int    `json:"chapter_order,omitempty"`
	PrintedMissing bool   `json:"printed_missing"`
}

// Skeleton returns a shallow copy of the document without its pages. The
// skeleton is what checkpoints persist and what the page pool is scheduled
// from.
func (d *Document) Skeleton() *Document {
	s := *d
	s.Pages = nil
	return &s
}

// VolumeFor returns the volume whose range contains the internal page
// index, or volume 1 when the index cannot be placed.
func (d *Document) VolumeFor(page int) int {
	for _, v := range d.Volumes {
		if v.Contains(page) {
			return v.Number
		}
	}
	return 1
}

// CheckVolumes verifies that the volumes partition [1..PageCountInternal]
// with no gaps or overlaps.
func (d *Document) CheckVolumes() error {
	if len(d.Volumes) == 0 {
		return fmt.Errorf("book %s: no volumes", d.BookID)
	}
	next := 1
	for _, v := range d.Volumes {
		if v.PageStart != next {
			return fmt.Errorf("book %s: volume %d starts at %d, want %d", d.BookID, v.Number, v.PageStart, next)
		}
		if v.PageEnd < v.PageStart {
			return fmt.Errorf("book %s: volume %d ends at %d before its start %d", d.BookID, v.Number, v.PageEnd, v.PageStart)
		}
		next = v.PageEnd + 1
	}
	if next != d.PageCountInternal+1 {
		return fmt.Errorf("book %s: volumes cover [1..%d], want [1..%d]", d.BookID, next-1, d.PageCountInternal)
	}
	return nil
}

// WalkChapters visits every chapter in document order, parents before
// children, using explicit iteration so pathological trees cannot exhaust
// the stack.
func (d *Document) WalkChapters(visit func(*Chapter)) {
	type frame struct {
		chapters []Chapter
		idx      int
	}
	if len(d.Chapters) == 0 {
		return
	}
	stack := []frame{{chapters: d.Chapters}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.idx >= len(top.chapters) {
			stack = stack[:len(stack)-1]
			continue
		}
		ch := &top.chapters[top.idx]
		top.idx++
		visit(ch)
		if len(ch.Children) > 0 {
			stack = append(stack, frame{chapters: ch.Children})
		}
	}
}
