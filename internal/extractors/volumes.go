package extractors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/azizmrsh/shamela-go/internal/text"
	"github.com/azizmrsh/shamela-go/pkg/book"
)

// VolumeLink is one entry of the reading page's volume dropdown: the part
// number and the internal page it starts on.
type VolumeLink struct {
	Number        int
	Title         string
	InternalStart int
}

// VolumeDropdown reads the volume selector off a reading page. Links must
// point into this book and show a digit in their visible text; duplicates
// of the same volume number keep the smallest start page. The result is
// sorted by volume number and may be empty for single-volume books.
func VolumeDropdown(doc *goquery.Document, bookID string) []VolumeLink {
	byNumber := make(map[int]VolumeLink)
	for _, sel := range volumeDropdownSelectors {
		doc.Find(sel).Each(func(_ int, a *goquery.Selection) {
			start, ok := pageLink(a, bookID)
			if !ok {
				return
			}
			label := text.CleanText(a.Text())
			num, ok := text.FirstInt(label)
			if !ok {
				return
			}
			existing, dup := byNumber[num]
			if !dup || start < existing.InternalStart {
				byNumber[num] = VolumeLink{Number: num, Title: label, InternalStart: start}
			}
		})
		if len(byNumber) > 0 {
			break
		}
	}

	links := make([]VolumeLink, 0, len(byNumber))
	for _, link := range byNumber {
		links = append(links, link)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Number < links[j].Number })
	return links
}

// BuildVolumes turns dropdown links into contiguous page ranges covering
// [1..pageCount]. An empty dropdown synthesizes the single whole-book
// volume.
func BuildVolumes(links []VolumeLink, pageCount int) []book.Volume {
	if pageCount < 1 {
		pageCount = 1
	}
	if len(links) == 0 {
		return []book.Volume{{Number: 1, Title: "المجلد 1", PageStart: 1, PageEnd: pageCount}}
	}

	volumes := make([]book.Volume, 0, len(links))
	for i, link := range links {
		start := link.InternalStart
		if i == 0 {
			// The first volume owns everything from page 1 even when its
			// dropdown link lands past the front matter.
			start = 1
		}
		end := pageCount
		if i+1 < len(links) {
			end = links[i+1].InternalStart - 1
		}
		if end < start {
			continue
		}
		title := link.Title
		if title == "" {
			title = fmt.Sprintf("المجلد %d", link.Number)
		}
		volumes = append(volumes, book.Volume{
			Number:    link.Number,
			Title:     title,
			PageStart: start,
			PageEnd:   end,
		})
	}
	if len(volumes) == 0 {
		return []book.Volume{{Number: 1, Title: "المجلد 1", PageStart: 1, PageEnd: pageCount}}
	}
	return volumes
}

// MaxInternalPage scans every link on a reading page for the largest
// internal index of this book, the basis for the total page count. Links
// inside "last page" navigation controls count like any other.
func MaxInternalPage(doc *goquery.Document, bookID string) int {
	max := 0
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "/book/") {
			return
		}
		if n, ok := pageLink(a, bookID); ok && n > max {
			max = n
		}
	})
	return max
}
