// Package pool fetches a book's reading pages concurrently: a bounded
// queue of internal indices feeds cooperative workers through a shared
// adaptive rate limiter, results collect unordered and come back sorted.
// The pool never retries — that is the envelope's job below it — and it
// never fails on a single bad page, only on a collapsed success rate.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/azizmrsh/shamela-go/internal/extractors"
	"github.com/azizmrsh/shamela-go/internal/resource"
	"github.com/azizmrsh/shamela-go/internal/text"
	"github.com/azizmrsh/shamela-go/internal/validation"
	"github.com/azizmrsh/shamela-go/pkg/book"
)

// Fetcher is the reliability envelope the workers fetch through.
type Fetcher interface {
	Get(ctx context.Context, url string) (*resource.Response, error)
}

// Cache is the response cache consulted before any network traffic. Hits
// bypass the rate limiter.
type Cache interface {
	Get(url string) (*resource.Response, bool)
	Set(url string, resp *resource.Response)
}

// CacheHitRecorder is implemented by monitors that want cache traffic in
// their counters.
type CacheHitRecorder interface {
	RecordCacheHit()
}

// Config tunes one pool run.
type Config struct {
	Workers int
	// BatchSize bounds the pending-index queue; the feeder blocks once
	// this many indices are waiting.
	BatchSize    int
	RequestDelay time.Duration
	MinContentLength   int
	QualityThreshold   float64
	MinSampleSize      int
	CheckpointInterval int
	ContentFormat      string
	// MinArabicRatio is the per-page Arabic-script bar; zero takes the
	// default and a negative value disables the check (test fixtures and
	// non-Arabic front matter).
	MinArabicRatio float64
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.BatchSize <= 0 {
		c.BatchSize = c.Workers * 2
	}
	if c.RequestDelay <= 0 {
		c.RequestDelay = 100 * time.Millisecond
	}
	if c.MinContentLength <= 0 {
		c.MinContentLength = 50
	}
	if c.QualityThreshold <= 0 {
		c.QualityThreshold = 0.95
	}
	if c.MinSampleSize <= 0 {
		c.MinSampleSize = 20
	}
	if c.CheckpointInterval <= 0 {
		c.CheckpointInterval = 25
	}
	if c.ContentFormat == "" {
		c.ContentFormat = extractors.FormatText
	}
	if c.MinArabicRatio == 0 {
		c.MinArabicRatio = 0.10
	}
	return c
}

// WorkersFor scales the default worker count with book size: small books
// gain nothing from a wide pool, large ones need it.
func WorkersFor(pageCount int) int {
	switch {
	case pageCount <= 100:
		return 8
	case pageCount <= 500:
		return 12
	case pageCount <= 2000:
		return 16
	default:
		return 20
	}
}

// Request describes the book whose pages are wanted.
type Request struct {
	BookID                string
	Indices               []int
	HasOriginalPagination bool
	PageURL               func(bookID string, page int) string
	VolumeFor             func(page int) int
	// OnCheckpoint, when set, fires from the collector after every
	// CheckpointInterval validated pages with a snapshot of progress.
	OnCheckpoint func(pages []book.Page, failed []int)
	// OnProgress, when set, fires after every processed page.
	OnProgress func(done, total int)
}

// Result is the pool's output: validated pages sorted by internal index
// and the indices that produced nothing usable.
type Result struct {
	Pages  []book.Page
	Failed []int
}

// ErrLowSuccessRate aborts a run whose failures exceed the tolerated
// share; individual page failures below that just land in Result.Failed.
type ErrLowSuccessRate struct {
	Processed int
	Failed    int
	Rate      float64
	Required  float64
}

func (e *ErrLowSuccessRate) Error() string {
	return fmt.Sprintf("page success rate %.3f below %.3f after %d pages (%d failed)",
		e.Rate, e.Required, e.Processed, e.Failed)
}

// Pool runs one fetch pass over a set of page indices.
type Pool struct {
	fetcher Fetcher
	cache   Cache
	cfg     Config
	logger  *slog.Logger

	limiter   *rate.Limiter
	baseLimit rate.Limit

	mu        sync.Mutex
	processed int
	failures  int
}

// New builds a pool. cache may be nil.
func New(fetcher Fetcher, cache Cache, cfg Config, logger *slog.Logger) *Pool {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	base := rate.Every(cfg.RequestDelay)
	return &Pool{
		fetcher:   fetcher,
		cache:     cache,
		cfg:       cfg,
		logger:    logger,
		limiter:   rate.NewLimiter(base, 1),
		baseLimit: base,
	}
}

type pageResult struct {
	index int
	page  *book.Page // nil when the page failed validation
}

// Run drains the request's indices through the worker set. It returns
// ctx.Err() on cancellation and ErrLowSuccessRate when quality collapses;
// otherwise every index ends up in Pages or Failed.
func (p *Pool) Run(ctx context.Context, req Request) (*Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan int, p.cfg.BatchSize)
	results := make(chan pageResult, p.cfg.Workers)

	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(runCtx, req, queue, results)
		}()
	}

	// Feed the bounded queue; blocks when workers fall behind, which is
	// the backpressure the memory bound relies on.
	go func() {
		defer close(queue)
		for _, idx := range req.Indices {
			select {
			case queue <- idx:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := &Result{}
	var poolErr error
	sinceCheckpoint := 0
	done := 0

	for res := range results {
		done++
		if res.page != nil {
			collected.Pages = append(collected.Pages, *res.page)
			sinceCheckpoint++
		} else {
			collected.Failed = append(collected.Failed, res.index)
		}

		if req.OnProgress != nil {
			req.OnProgress(done, len(req.Indices))
		}
		if req.OnCheckpoint != nil && sinceCheckpoint >= p.cfg.CheckpointInterval {
			sinceCheckpoint = 0
			req.OnCheckpoint(collected.Pages, collected.Failed)
		}

		if err := p.qualityCheck(); err != nil && poolErr == nil {
			poolErr = err
			cancel()
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if poolErr != nil {
		return nil, poolErr
	}

	sort.Slice(collected.Pages, func(i, j int) bool {
		return collected.Pages[i].InternalIndex < collected.Pages[j].InternalIndex
	})
	sort.Ints(collected.Failed)
	return collected, nil
}

func (p *Pool) worker(ctx context.Context, req Request, queue <-chan int, results chan<- pageResult) {
	for idx := range queue {
		if ctx.Err() != nil {
			return
		}
		page := p.fetchPage(ctx, req, idx)
		select {
		case results <- pageResult{index: idx, page: page}:
		case <-ctx.Done():
			return
		}
	}
}

// fetchPage performs cache lookup, rate-limited fetch, response check,
// parse, and per-page validation. A nil return means the index failed.
func (p *Pool) fetchPage(ctx context.Context, req Request, idx int) *book.Page {
	url := req.PageURL(req.BookID, idx)

	resp, cached := p.cachedResponse(url)
	if !cached {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil
		}
		var err error
		resp, err = p.fetcher.Get(ctx, url)
		if err != nil {
			p.logger.Debug("page fetch failed", "url", url, "error", err)
			p.recordOutcome(false)
			return nil
		}
		if err := validation.CheckResponse(resp.Body, url); err != nil {
			p.logger.Debug("page response rejected", "url", url, "error", err)
			p.recordOutcome(false)
			return nil
		}
		if p.cache != nil {
			p.cache.Set(url, resp)
		}
	}

	if ctx.Err() != nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Body))
	if err != nil {
		p.recordOutcome(false)
		return nil
	}

	body := extractors.PageBody(doc, p.cfg.ContentFormat)
	if !p.contentValid(body.Text) {
		p.logger.Debug("page content rejected", "url", url, "length", len(body.Text))
		p.recordOutcome(false)
		return nil
	}

	page := &book.Page{
		InternalIndex: idx,
		PageNumber:    idx,
		Content:       body.Text,
		HTMLContent:   body.HTML,
		WordCount:     body.WordCount,
	}
	if req.VolumeFor != nil {
		page.VolumeNumber = req.VolumeFor(idx)
	}
	if req.HasOriginalPagination {
		if printed, ok := extractors.PrintedNumber(doc); ok {
			page.PrintedNumber = printed
			page.PageNumber = printed
		} else {
			page.PrintedMissing = true
		}
	}

	p.recordOutcome(true)
	return page
}

func (p *Pool) cachedResponse(url string) (*resource.Response, bool) {
	if p.cache == nil {
		return nil, false
	}
	resp, ok := p.cache.Get(url)
	if ok {
		if rec, hasStats := p.fetcher.(CacheHitRecorder); hasStats {
			rec.RecordCacheHit()
		}
	}
	return resp, ok
}

func (p *Pool) contentValid(content string) bool {
	if content == "" {
		return false
	}
	if len([]rune(content)) < p.cfg.MinContentLength {
		return false
	}
	return text.ArabicRatio(content) >= p.cfg.MinArabicRatio
}

// recordOutcome updates the rolling failure rate and retunes the limiter:
// a failure rate over 10% stretches the delay by (1 + rate) until the
// next success restores the base.
func (p *Pool) recordOutcome(success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed++
	if success {
		p.limiter.SetLimit(p.baseLimit)
		return
	}
	p.failures++
	failureRate := float64(p.failures) / float64(p.processed)
	if failureRate > 0.10 {
		slowed := rate.Limit(float64(p.baseLimit) / (1 + failureRate))
		p.limiter.SetLimit(slowed)
	}
}

func (p *Pool) qualityCheck() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.processed < p.cfg.MinSampleSize {
		return nil
	}
	successRate := float64(p.processed-p.failures) / float64(p.processed)
	if successRate < p.cfg.QualityThreshold {
		return &ErrLowSuccessRate{
			Processed: p.processed,
			Failed:    p.failures,
			Rate:      successRate,
			Required:  p.cfg.QualityThreshold,
		}
	}
	return nil
}
