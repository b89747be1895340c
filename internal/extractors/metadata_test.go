package extractors

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return doc
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		want   string
		wantOK bool
	}{
		{
			name:   "book title heading wins",
			html:   `<html><head><title>site name</title></head><body><h1 class="book-title">صحيح البخاري</h1><h1>other</h1></body></html>`,
			want:   "صحيح البخاري",
			wantOK: true,
		},
		{
			name:   "plain h1 fallback",
			html:   `<html><body><h1>فتح الباري شرح صحيح البخاري</h1></body></html>`,
			want:   "فتح الباري شرح صحيح البخاري",
			wantOK: true,
		},
		{
			name:   "document title fallback",
			html:   `<html><head><title>الموطأ للإمام مالك</title></head><body></body></html>`,
			want:   "الموطأ للإمام مالك",
			wantOK: true,
		},
		{
			name:   "too-short candidates skipped",
			html:   `<html><body><h1>اب</h1></body></html>`,
			wantOK: false,
		},
		{
			name:   "whitespace collapsed",
			html:   `<html><body><h1>  صحيح   مسلم  </h1></body></html>`,
			want:   "صحيح مسلم",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Title(docFrom(t, tt.html))
			if ok != tt.wantOK {
				t.Fatalf("Title ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Title = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthors(t *testing.T) {
	html := `<html><body>
		<div class="book-author"><a href="/author/bukhari">محمد بن إسماعيل البخاري</a></div>
		<a href="/author/bukhari?ref=x">محمد بن إسماعيل البخاري</a>
		<a href="/author/nawawi">يحيى بن شرف النووي</a>
	</body></html>`

	authors := Authors(docFrom(t, html))
	if len(authors) != 2 {
		t.Fatalf("got %d authors, want 2: %+v", len(authors), authors)
	}
	if authors[0].Name != "محمد بن إسماعيل البخاري" {
		t.Errorf("first author = %q", authors[0].Name)
	}
	if authors[0].Slug != "bukhari" {
		t.Errorf("first author slug = %q, want bukhari", authors[0].Slug)
	}
	if authors[1].Slug != "nawawi" {
		t.Errorf("second author slug = %q, want nawawi", authors[1].Slug)
	}
}

func TestAuthorsEmpty(t *testing.T) {
	if authors := Authors(docFrom(t, `<html><body><p>لا مؤلف</p></body></html>`)); len(authors) != 0 {
		t.Errorf("expected no authors, got %+v", authors)
	}
}

func TestPublisher(t *testing.T) {
	tests := []struct {
		name         string
		html         string
		wantNil      bool
		wantName     string
		wantLocation string
	}{
		{
			name:         "name with city after comma",
			html:         "<html><body><p>الناشر: دار ابن كثير، بيروت</p></body></html>",
			wantName:     "دار ابن كثير",
			wantLocation: "بيروت",
		},
		{
			name:         "name with city after dash",
			html:         "<html><body><p>دار النشر: مؤسسة الرسالة - دمشق</p></body></html>",
			wantName:     "مؤسسة الرسالة",
			wantLocation: "دمشق",
		},
		{
			name:     "unknown tail stays in name",
			html:     "<html><body><p>الناشر: دار الفكر، الطبعة الثالثة</p></body></html>",
			wantName: "دار الفكر، الطبعة الثالثة",
		},
		{
			name:    "absent",
			html:    "<html><body><p>كتاب بلا ناشر</p></body></html>",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Publisher(docFrom(t, tt.html))
			if tt.wantNil {
				if got != nil {
					t.Fatalf("Publisher = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Publisher = nil")
			}
			if got.Name != tt.wantName {
				t.Errorf("name = %q, want %q", got.Name, tt.wantName)
			}
			if got.Location != tt.wantLocation {
				t.Errorf("location = %q, want %q", got.Location, tt.wantLocation)
			}
		})
	}
}

func TestSection(t *testing.T) {
	anchored := `<html><body><div class="book-category"><a href="/category/5">كتب الحديث</a></div></body></html>`
	if s := Section(docFrom(t, anchored)); s == nil || s.Name != "كتب الحديث" {
		t.Errorf("anchored section = %+v", s)
	}

	labeled := "<html><body><p>القسم: كتب الفقه</p></body></html>"
	if s := Section(docFrom(t, labeled)); s == nil || s.Name != "كتب الفقه" {
		t.Errorf("labeled section = %+v", s)
	}

	if s := Section(docFrom(t, "<html><body><p>شيء آخر</p></body></html>")); s != nil {
		t.Errorf("missing section = %+v, want nil", s)
	}
}
