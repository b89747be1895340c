package shamela

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azizmrsh/shamela-go/internal/checkpoint"
	"github.com/azizmrsh/shamela-go/pkg/book"
)

// stubSite serves a synthetic five-page book in the site's shape.
type stubSite struct {
	bookID        string
	printedTitles bool
	// skipPrintedOn leaves the printed token out of one page's title.
	skipPrintedOn int
	pageHits      atomic.Int64
}

const fillerDiv = `<div class="filler">padding so the response validator sees a real page, padding, padding</div>`

func (s *stubSite) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/book/"+s.bookID, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>landing</title></head><body>
<h1 class="book-title">Test Book Title</h1>
<a href="/author/tester">Test Author Name</a>
%s%s</body></html>`, s.paginationMarker(), fillerDiv)
	})
	mux.HandleFunc("/book/"+s.bookID+"/", func(w http.ResponseWriter, r *http.Request) {
		var n int
		fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/book/"+s.bookID+"/"), "%d", &n)
		if n < 1 || n > 5 {
			http.NotFound(w, r)
			return
		}
		s.pageHits.Add(1)
		fmt.Fprintf(w, `<html><head><title>%s</title></head><body>
<a href="/book/%s/5">last</a>
<div class="nass"><p>page %d body</p></div>
%s</body></html>`, s.title(n), s.bookID, n, fillerDiv)
	})
	mux.HandleFunc("/category/5", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>قسم الحديث</title></head><body><h1>قسم الحديث</h1>
<a href="/book/43">a</a> <a href="/book/50">b</a> <a href="/book/43">dup</a>%s</body></html>`, fillerDiv)
	})
	return mux
}

func (s *stubSite) paginationMarker() string {
	if s.printedTitles {
		return "<p>ترقيم الكتاب موافق للمطبوع</p>"
	}
	return ""
}

func (s *stubSite) title(n int) string {
	if !s.printedTitles || n == s.skipPrintedOn {
		return "reading page"
	}
	return fmt.Sprintf("الكتاب ص: %d", 11+n)
}

func testClient(t *testing.T, serverURL string, extra ...Option) *Client {
	t.Helper()
	opts := []Option{
		WithBaseURL(serverURL),
		WithRequestDelay(time.Millisecond),
		WithMinContentLength(5),
		WithMinArabicRatio(-1),
		WithMaxWorkers(4),
		WithCheckpoints(t.TempDir(), 2),
	}
	return New(append(opts, extra...)...)
}

func TestExtractSingleVolumeBook(t *testing.T) {
	site := &stubSite{bookID: "43"}
	server := httptest.NewServer(site.handler())
	defer server.Close()

	doc, err := testClient(t, server.URL).Extract(context.Background(), "43")
	require.NoError(t, err)

	assert.Equal(t, "Test Book Title", doc.Title)
	assert.Equal(t, "43", doc.BookID)
	assert.Equal(t, 5, doc.PageCountInternal)
	assert.False(t, doc.HasOriginalPagination)
	require.Len(t, doc.Volumes, 1)
	assert.Equal(t, book.Volume{Number: 1, Title: "المجلد 1", PageStart: 1, PageEnd: 5}, doc.Volumes[0])

	require.Len(t, doc.Pages, 5)
	for i, page := range doc.Pages {
		assert.Equal(t, i+1, page.InternalIndex)
		assert.Equal(t, i+1, page.PageNumber, "without original pagination the page number is the internal index")
		assert.Equal(t, fmt.Sprintf("page %d body", i+1), page.Content)
		assert.Equal(t, 3, page.WordCount)
		assert.False(t, page.PrintedMissing)
	}
}

func TestExtractPrintedPagination(t *testing.T) {
	site := &stubSite{bookID: "43", printedTitles: true}
	server := httptest.NewServer(site.handler())
	defer server.Close()

	doc, err := testClient(t, server.URL).Extract(context.Background(), "43")
	require.NoError(t, err)

	assert.True(t, doc.HasOriginalPagination)
	assert.Equal(t, 16, doc.PageCountPrinted)
	require.Len(t, doc.Pages, 5)
	for i, page := range doc.Pages {
		assert.Equal(t, i+1, page.InternalIndex)
		assert.Equal(t, 12+i, page.PrintedNumber)
		assert.Equal(t, 12+i, page.PageNumber, "printed number wins when extraction succeeds")
		assert.False(t, page.PrintedMissing)
	}
}

func TestExtractPrintedTokenMissingOnOnePage(t *testing.T) {
	site := &stubSite{bookID: "43", printedTitles: true, skipPrintedOn: 3}
	server := httptest.NewServer(site.handler())
	defer server.Close()

	doc, err := testClient(t, server.URL).Extract(context.Background(), "43")
	require.NoError(t, err)

	require.Len(t, doc.Pages, 5)
	third := doc.Pages[2]
	assert.True(t, third.PrintedMissing)
	assert.Equal(t, 3, third.PageNumber, "a missing printed token falls back to the internal index")
	assert.Zero(t, third.PrintedNumber)
	assert.Equal(t, 12, doc.Pages[0].PageNumber)
	assert.Equal(t, 16, doc.Pages[4].PageNumber)
}

func TestExtractNormalizesBookID(t *testing.T) {
	site := &stubSite{bookID: "43"}
	server := httptest.NewServer(site.handler())
	defer server.Close()

	doc, err := testClient(t, server.URL).Extract(context.Background(), "BK000043")
	require.NoError(t, err)
	assert.Equal(t, "43", doc.BookID)
}

func TestExtractInvalidBookID(t *testing.T) {
	client := testClient(t, "http://127.0.0.1:0")
	for _, id := range []string{"", "BK", "abc"} {
		_, err := client.Extract(context.Background(), id)
		var ee *ExtractError
		require.ErrorAs(t, err, &ee, "id %q", id)
		assert.True(t, ee.IsInvalidBookID(), "id %q got %v", id, ee.Code)
	}
}

func TestExtractMissingBook(t *testing.T) {
	site := &stubSite{bookID: "43"}
	server := httptest.NewServer(site.handler())
	defer server.Close()

	_, err := testClient(t, server.URL).Extract(context.Background(), "999")
	var ee *ExtractError
	require.ErrorAs(t, err, &ee)
	assert.True(t, ee.IsInvalidBookID(), "permanent 404 on the landing page means a bad id, got %v", ee.Code)
}

func TestExtractMaxPages(t *testing.T) {
	site := &stubSite{bookID: "43"}
	server := httptest.NewServer(site.handler())
	defer server.Close()

	doc, err := testClient(t, server.URL, WithMaxPages(3)).Extract(context.Background(), "43")
	require.NoError(t, err)
	assert.Equal(t, 5, doc.PageCountInternal, "the count reflects the whole book")
	assert.Len(t, doc.Pages, 3, "only the requested pages are fetched")
}

func TestExtractCancelled(t *testing.T) {
	site := &stubSite{bookID: "43"}
	server := httptest.NewServer(site.handler())
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testClient(t, server.URL).Extract(ctx, "43")
	var ee *ExtractError
	require.ErrorAs(t, err, &ee)
	assert.True(t, ee.IsCancelled())
}

func TestExtractResumeSkipsLoadedPages(t *testing.T) {
	site := &stubSite{bookID: "43"}
	server := httptest.NewServer(site.handler())
	defer server.Close()

	dir := t.TempDir()
	client := testClient(t, server.URL, WithCheckpoints(dir, 2), WithResume(true))

	// A prior interrupted run left pages 1 and 2 behind.
	store, err := checkpoint.NewStore(dir, 5)
	require.NoError(t, err)
	skeleton := &book.Document{
		Title:             "Test Book Title",
		BookID:            "43",
		PageCountInternal: 5,
		VolumeCount:       1,
		Volumes:           []book.Volume{{Number: 1, Title: "المجلد 1", PageStart: 1, PageEnd: 5}},
		Language:          "ar",
	}
	require.NoError(t, store.Save("43", &checkpoint.Snapshot{
		Skeleton: skeleton,
		Pages: []book.Page{
			{InternalIndex: 1, PageNumber: 1, Content: "checkpointed body one", WordCount: 3},
			{InternalIndex: 2, PageNumber: 2, Content: "checkpointed body two", WordCount: 3},
		},
		LoadedIndices: []int{1, 2},
	}))

	doc, err := client.Extract(context.Background(), "43")
	require.NoError(t, err)
	require.Len(t, doc.Pages, 5)
	assert.Equal(t, "checkpointed body one", doc.Pages[0].Content, "resumed pages come from the checkpoint")
	assert.Equal(t, "page 3 body", doc.Pages[2].Content, "missing pages are fetched")
	assert.LessOrEqual(t, site.pageHits.Load(), int64(3), "loaded pages must not be refetched")

	// Success consumed the checkpoint.
	_, ok := store.Load("43")
	assert.False(t, ok)
}

func TestExtractWriteReadRoundTrip(t *testing.T) {
	site := &stubSite{bookID: "43"}
	server := httptest.NewServer(site.handler())
	defer server.Close()

	doc, err := testClient(t, server.URL).Extract(context.Background(), "43")
	require.NoError(t, err)

	path, err := WriteFile(t.TempDir()+"/book_43.json", doc, SaveOptions{Compress: true})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".json.gz"))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	require.Len(t, got.Pages, 5)
	assert.Equal(t, doc.Pages[4].Content, got.Pages[4].Content)
}

func TestCategory(t *testing.T) {
	site := &stubSite{bookID: "43"}
	server := httptest.NewServer(site.handler())
	defer server.Close()

	listing, err := testClient(t, server.URL).Category(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "5", listing.CategoryID)
	assert.Equal(t, "قسم الحديث", listing.Name)
	assert.Equal(t, []string{"43", "50"}, listing.BookIDs, "ids de-duplicate in document order")
}

func TestStatsAfterExtract(t *testing.T) {
	site := &stubSite{bookID: "43"}
	server := httptest.NewServer(site.handler())
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.Extract(context.Background(), "43")
	require.NoError(t, err)

	stats := client.Stats()
	assert.GreaterOrEqual(t, stats.TotalRequests, int64(6), "landing plus the reading pages")
	assert.Equal(t, stats.TotalRequests, stats.Successes)
	assert.GreaterOrEqual(t, stats.CacheHits, int64(1), "the pool rereads page 1 from the cache")
	assert.Zero(t, stats.RecoveriesPerformed)
}
