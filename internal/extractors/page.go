package extractors

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/azizmrsh/shamela-go/internal/text"
)

// Content formats a page extractor can produce.
const (
	FormatText     = "text"
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// minLineLength filters navigation crumbs and stray glyphs out of page
// text; real prose lines are longer.
const minLineLength = 10

// PageText is the extracted body of one reading page.
type PageText struct {
	Text      string
	WordCount int
	// HTML carries the sanitized container fragment when the html format
	// was requested, and the markdown rendering for the markdown format.
	HTML string
}

var (
	sanitizer = bluemonday.UGCPolicy()
	mdConv    = md.NewConverter("", true, nil)
)

// PrintedNumber reads the printed page number the edition's <title>
// asserts for a reading page, in either digit system. ok is false when the
// title carries no printed-page token.
func PrintedNumber(doc *goquery.Document) (int, bool) {
	title := doc.Find("title").First().Text()
	m := printedNumberRe.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	return text.FirstInt(m[1])
}

// PageBody extracts the visible text of a reading page. The first matching
// container wins, chrome descendants are dropped, <br>/<hr> become line
// breaks, and the line filter removes everything that is not prose. The
// extractor works on a clone so the caller's document is never mutated.
func PageBody(doc *goquery.Document, format string) PageText {
	container := findContainer(doc)
	if container.Length() == 0 {
		return PageText{}
	}

	clone := container.Clone()
	clone.Find(removedNodes).Remove()

	raw := visibleText(clone)
	cleaned := cleanPageText(raw)

	pt := PageText{
		Text:      cleaned,
		WordCount: len(strings.Fields(cleaned)),
	}

	switch format {
	case FormatHTML:
		if fragment, err := goquery.OuterHtml(clone); err == nil {
			pt.HTML = sanitizer.Sanitize(fragment)
		}
	case FormatMarkdown:
		if fragment, err := goquery.OuterHtml(clone); err == nil {
			if rendered, err := mdConv.ConvertString(fragment); err == nil {
				pt.HTML = rendered
			}
		}
	}
	return pt
}

func findContainer(doc *goquery.Document) *goquery.Selection {
	for _, sel := range pageContainerSelectors {
		if c := doc.Find(sel).First(); c.Length() > 0 {
			return c
		}
	}
	return doc.Find("body").First()
}

// blockTags get a newline after their content so goquery's flat text
// extraction keeps the page's line structure.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "tr": true, "blockquote": true, "section": true,
	"article": true, "pre": true,
}

// visibleText walks the selection's nodes emitting text content with
// newlines at block boundaries and for <br>/<hr>.
func visibleText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		walkText(node, &b)
	}
	return b.String()
}

func walkText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode:
		if n.Data == "br" || n.Data == "hr" {
			b.WriteByte('\n')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkText(c, b)
		}
		if blockTags[n.Data] {
			b.WriteByte('\n')
		}
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkText(c, b)
		}
	}
}

// cleanPageText applies the line filter: drop short lines, UI chrome, and
// bare page numbers, then collapse blank-line runs.
func cleanPageText(raw string) string {
	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := text.NormalizeSpaces(line)
		if trimmed == "" {
			kept = append(kept, "")
			continue
		}
		if len([]rune(trimmed)) < minLineLength {
			continue
		}
		if containsUIPhrase(trimmed) || text.IsDigitsOnly(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.TrimSpace(text.CollapseBlankLines(strings.Join(kept, "\n")))
}
