package extractors

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/azizmrsh/shamela-go/internal/text"
	"github.com/azizmrsh/shamela-go/pkg/book"
)

// orderStride spaces sibling orders so a child's order embeds its whole
// ancestry: order = parentOrder·1000 + siblingIndex. Orders increase
// strictly among siblings; across the whole tree they do not (a first
// chapter's child, 1001, is visited before its next sibling, 2).
const orderStride = 1000

// IndexTree parses the table of contents from the landing page. Only list
// items that link into this book's reading pages become chapters; the
// captured page number is the chapter's starting internal index.
func IndexTree(doc *goquery.Document, bookID string) []book.Chapter {
	for _, sel := range indexSelectors {
		list := doc.Find(sel).First()
		if list.Length() == 0 {
			continue
		}
		chapters := parseList(list, bookID, 0, 0)
		if len(chapters) > 0 {
			closeSiblings(chapters, 0)
			return chapters
		}
	}
	return nil
}

// parseList walks the direct <li> children of a <ul>, descending into
// nested lists one level at a time.
func parseList(list *goquery.Selection, bookID string, level, parentOrder int) []book.Chapter {
	var chapters []book.Chapter
	list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		anchor := li.ChildrenFiltered("a").First()
		if anchor.Length() == 0 {
			anchor = li.Find("a").First()
		}
		pageStart, ok := pageLink(anchor, bookID)
		if !ok {
			return
		}
		title := text.CleanText(anchor.Text())
		if title == "" {
			return
		}

		kind := book.ChapterMain
		if level > 0 {
			kind = book.ChapterSub
		}
		ch := book.Chapter{
			Title:     title,
			Order:     parentOrder*orderStride + len(chapters) + 1,
			PageStart: pageStart,
			Level:     level,
			Kind:      kind,
		}
		if nested := li.ChildrenFiltered("ul").First(); nested.Length() > 0 {
			ch.Children = parseList(nested, bookID, level+1, ch.Order)
		}
		chapters = append(chapters, ch)
	})
	return chapters
}

// pageLink extracts the internal page index from an anchor that points
// into this book, rejecting links to other books.
func pageLink(anchor *goquery.Selection, bookID string) (int, bool) {
	href, ok := anchor.Attr("href")
	if !ok {
		return 0, false
	}
	m := bookPageHrefRe.FindStringSubmatch(href)
	if m == nil || m[1] != bookID {
		return 0, false
	}
	n, ok := text.FirstInt(m[2])
	if !ok || n < 1 {
		return 0, false
	}
	return n, true
}

// closeSiblings sets each chapter's PageEnd to the page before the next
// sibling starts; the last sibling inherits the parent's PageEnd.
func closeSiblings(chapters []book.Chapter, parentEnd int) {
	for i := range chapters {
		if i+1 < len(chapters) && chapters[i+1].PageStart > 0 {
			chapters[i].PageEnd = chapters[i+1].PageStart - 1
		} else {
			chapters[i].PageEnd = parentEnd
		}
		if len(chapters[i].Children) > 0 {
			closeSiblings(chapters[i].Children, chapters[i].PageEnd)
		}
	}
}
