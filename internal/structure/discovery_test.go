package structure

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azizmrsh/shamela-go/internal/resource"
)

// stubGetter serves canned bodies by URL suffix.
type stubGetter struct {
	pages map[string]string
}

func (s *stubGetter) Get(ctx context.Context, url string) (*resource.Response, error) {
	for suffix, body := range s.pages {
		if strings.HasSuffix(url, suffix) {
			return &resource.Response{URL: url, StatusCode: 200, Body: body}, nil
		}
	}
	return nil, &resource.FetchError{Kind: resource.KindHTTP, URL: url, Status: 404}
}

const landingFixture = `<html><head><title>site</title></head><body>
<h1 class="book-title">صحيح البخاري</h1>
<div class="book-author"><a href="/author/bukhari">محمد بن إسماعيل البخاري</a></div>
<p>الناشر: دار طوق النجاة، بيروت</p>
<p>القسم: كتب الحديث</p>
<p>الطبعة: الأولى، 1422 هـ</p>
<p>ترقيم الكتاب موافق للمطبوع</p>
<div class="betaka-index"><ul>
  <li><a href="/book/43/1">المقدمة</a></li>
  <li><a href="/book/43/5">كتاب الإيمان</a></li>
</ul></div>
</body></html>`

const firstPageFixture = `<html><head><title>صحيح البخاري ص: 12</title></head><body>
<ul class="dropdown-menu">
  <li><a href="/book/43/1#p1">الجزء 1</a></li>
  <li><a href="/book/43/6#p1">الجزء 2</a></li>
</ul>
<a href="/book/43/9">الأخيرة</a>
<div class="nass"><p>نص الصفحة الأولى من هذا الكتاب المبارك</p></div>
</body></html>`

const lastPageFixture = `<html><head><title>صحيح البخاري ص: 16</title></head><body>
<div class="nass"><p>نص الصفحة الأخيرة من هذا الكتاب المبارك</p></div>
</body></html>`

func stubFor() *stubGetter {
	return &stubGetter{pages: map[string]string{
		"/book/43/1": firstPageFixture,
		"/book/43/9": lastPageFixture,
		"/book/43":   landingFixture,
	}}
}

func TestDiscover(t *testing.T) {
	d := New(stubFor(), "https://example.com", nil)
	doc, err := d.Discover(context.Background(), "43")
	require.NoError(t, err)

	assert.Equal(t, "صحيح البخاري", doc.Title)
	assert.Equal(t, "43", doc.BookID)
	assert.Equal(t, "https://example.com/book/43", doc.SourceURL)
	assert.Equal(t, "ar", doc.Language)
	require.Len(t, doc.Authors, 1)
	assert.Equal(t, "bukhari", doc.Authors[0].Slug)
	require.NotNil(t, doc.Publisher)
	assert.Equal(t, "دار طوق النجاة", doc.Publisher.Name)
	assert.Equal(t, "بيروت", doc.Publisher.Location)
	require.NotNil(t, doc.Section)
	assert.Equal(t, "كتب الحديث", doc.Section.Name)
	assert.Equal(t, 1, doc.EditionNumber)
	assert.Equal(t, 1422, doc.PublicationYearHijri)
	assert.True(t, doc.HasOriginalPagination)

	assert.Equal(t, 9, doc.PageCountInternal, "page count comes from the largest reading link")
	assert.Equal(t, 16, doc.PageCountPrinted, "printed count comes from the last page title")

	require.Len(t, doc.Volumes, 2)
	assert.Equal(t, 1, doc.Volumes[0].PageStart)
	assert.Equal(t, 5, doc.Volumes[0].PageEnd)
	assert.Equal(t, 6, doc.Volumes[1].PageStart)
	assert.Equal(t, 9, doc.Volumes[1].PageEnd)
	require.NoError(t, doc.CheckVolumes())

	require.Len(t, doc.Chapters, 2)
	assert.Equal(t, 1, doc.Chapters[0].VolumeNumber)
	assert.Equal(t, 1, doc.Chapters[1].VolumeNumber, "chapter at page 5 sits in volume 1")
}

func TestDiscoverNoTitle(t *testing.T) {
	getter := &stubGetter{pages: map[string]string{
		"/book/43": "<html><body><p>صفحة بلا عنوان مفيد هنا</p></body></html>",
	}}
	d := New(getter, "https://example.com", nil)
	_, err := d.Discover(context.Background(), "43")
	var noTitle *ErrNoTitle
	require.ErrorAs(t, err, &noTitle)
	assert.Equal(t, "43", noTitle.BookID)
}

func TestDiscoverMissingBook(t *testing.T) {
	d := New(&stubGetter{pages: map[string]string{}}, "https://example.com", nil)
	_, err := d.Discover(context.Background(), "999")
	var fe *resource.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 404, fe.Status)
}

func TestDiscoverSingleVolumeSynthesized(t *testing.T) {
	landing := `<html><body><h1>كتاب في مجلد واحد</h1></body></html>`
	first := `<html><body><a href="/book/7/5">الأخيرة</a><div class="nass"><p>النص</p></div></body></html>`
	getter := &stubGetter{pages: map[string]string{
		"/book/7/1": first,
		"/book/7/5": first,
		"/book/7":   landing,
	}}
	d := New(getter, "https://example.com", nil)
	doc, err := d.Discover(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, 5, doc.PageCountInternal)
	require.Len(t, doc.Volumes, 1)
	assert.Equal(t, 1, doc.Volumes[0].PageStart)
	assert.Equal(t, 5, doc.Volumes[0].PageEnd)
}

func TestURLBuilders(t *testing.T) {
	d := New(stubFor(), "", nil)
	assert.Equal(t, fmt.Sprintf("%s/book/43", DefaultBaseURL), d.BookURL("43"))
	assert.Equal(t, fmt.Sprintf("%s/book/43/7", DefaultBaseURL), d.PageURL("43", 7))
}
