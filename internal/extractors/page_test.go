package extractors

import (
	"strings"
	"testing"
)

func TestPrintedNumber(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		want   int
		wantOK bool
	}{
		{
			name:   "ascii digits",
			html:   `<html><head><title>صحيح البخاري ص: 12</title></head><body></body></html>`,
			want:   12,
			wantOK: true,
		},
		{
			name:   "arabic-indic digits",
			html:   `<html><head><title>الكتاب ص: ٤٢٣</title></head><body></body></html>`,
			want:   423,
			wantOK: true,
		},
		{
			name:   "mixed digits",
			html:   `<html><head><title>ص:١٢3</title></head><body></body></html>`,
			want:   123,
			wantOK: true,
		},
		{
			name:   "no printed token",
			html:   `<html><head><title>صفحة بلا رقم مطبوع</title></head><body></body></html>`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PrintedNumber(docFrom(t, tt.html))
			if ok != tt.wantOK {
				t.Fatalf("PrintedNumber ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("PrintedNumber = %d, want %d", got, tt.want)
			}
		})
	}
}

const pageFixture = `<html><body>
<nav>القائمة الرئيسية للموقع</nav>
<div class="nass">
<p>الحمد لله رب العالمين والصلاة والسلام على رسوله الأمين</p>
<script>console.log("tracking")</script>
<p>قصير</p>
<p>123</p>
<p>أما بعد فهذا كتاب جمعت فيه ما صح من الأحاديث<br>وبوبته على أبواب الفقه المعروفة</p>
<div class="share">مشاركة هذه الصفحة مع الأصدقاء</div>
</div>
<footer>جميع الحقوق محفوظة للمكتبة</footer>
</body></html>`

func TestPageBody(t *testing.T) {
	got := PageBody(docFrom(t, pageFixture), FormatText)

	if !strings.Contains(got.Text, "الحمد لله رب العالمين") {
		t.Errorf("prose missing from %q", got.Text)
	}
	if !strings.Contains(got.Text, "وبوبته على أبواب الفقه") {
		t.Errorf("text after <br> missing from %q", got.Text)
	}
	if strings.Contains(got.Text, "tracking") || strings.Contains(got.Text, "console") {
		t.Errorf("script content leaked: %q", got.Text)
	}
	if strings.Contains(got.Text, "قصير") {
		t.Errorf("short line survived: %q", got.Text)
	}
	if strings.Contains(got.Text, "123") {
		t.Errorf("bare page number survived: %q", got.Text)
	}
	if strings.Contains(got.Text, "مشاركة") {
		t.Errorf("share chrome survived: %q", got.Text)
	}
	if strings.Contains(got.Text, "القائمة") {
		t.Errorf("nav outside the container leaked: %q", got.Text)
	}

	wantWords := len(strings.Fields(got.Text))
	if got.WordCount != wantWords {
		t.Errorf("WordCount = %d, want %d", got.WordCount, wantWords)
	}
	if got.HTML != "" {
		t.Errorf("text format should not carry html, got %q", got.HTML)
	}
}

func TestPageBodyBrSplitsLines(t *testing.T) {
	got := PageBody(docFrom(t, pageFixture), FormatText)
	for _, line := range strings.Split(got.Text, "\n") {
		if strings.Contains(line, "ما صح من الأحاديث") && strings.Contains(line, "أبواب الفقه") {
			t.Errorf("<br> did not split the line: %q", line)
		}
	}
}

func TestPageBodyHTMLFormat(t *testing.T) {
	got := PageBody(docFrom(t, pageFixture), FormatHTML)
	if got.HTML == "" {
		t.Fatal("html format should carry a fragment")
	}
	if strings.Contains(got.HTML, "<script") {
		t.Errorf("sanitized fragment still has a script: %q", got.HTML)
	}
}

func TestPageBodyMarkdownFormat(t *testing.T) {
	got := PageBody(docFrom(t, pageFixture), FormatMarkdown)
	if got.HTML == "" {
		t.Fatal("markdown format should carry a rendering")
	}
	if strings.Contains(got.HTML, "<p>") {
		t.Errorf("markdown rendering still has html tags: %q", got.HTML)
	}
}

func TestPageBodyFallsBackToBody(t *testing.T) {
	html := `<html><body><p>نص مباشر في المتن بلا حاوية معروفة على الإطلاق</p></body></html>`
	got := PageBody(docFrom(t, html), FormatText)
	if !strings.Contains(got.Text, "نص مباشر") {
		t.Errorf("body fallback failed: %q", got.Text)
	}
}

func TestPageBodyEmpty(t *testing.T) {
	got := PageBody(docFrom(t, "<html><body></body></html>"), FormatText)
	if got.Text != "" || got.WordCount != 0 {
		t.Errorf("empty page = %+v", got)
	}
}
