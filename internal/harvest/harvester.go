// Package harvest drives a full extraction: it owns the component stack
// for one run — fetcher, envelope, cache, discovery, pool, checkpoints —
// and walks the state machine from skeleton to validated document. All
// handles live for exactly one Extract call chain; nothing here is a
// process-wide singleton.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/azizmrsh/shamela-go/internal/cache"
	"github.com/azizmrsh/shamela-go/internal/checkpoint"
	"github.com/azizmrsh/shamela-go/internal/pool"
	"github.com/azizmrsh/shamela-go/internal/resource"
	"github.com/azizmrsh/shamela-go/internal/retry"
	"github.com/azizmrsh/shamela-go/internal/structure"
	"github.com/azizmrsh/shamela-go/internal/validation"
	"github.com/azizmrsh/shamela-go/pkg/book"
)

// state labels the orchestrator's position for logging; transitions are
// linear with a single failure sink.
type state string

const (
	stateInit       state = "init"
	stateSkeleton   state = "skeleton"
	stateFetching   state = "fetching"
	stateValidating state = "validating"
	stateDone       state = "done"
	stateFailed     state = "failed"
)

// Config is the full option record for one run.
type Config struct {
	BaseURL       string
	MaxPages      int
	MaxWorkers    int
	BatchSize     int
	RequestDelay  time.Duration
	ContentFormat string

	MaxRetries         int
	RetryBackoffFactor float64
	RecoveryAttempts   int
	RecoveryDelay      time.Duration

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	TotalTimeout   time.Duration
	UserAgent      string
	AcceptLanguage string

	CacheSize          int
	CacheDuration      time.Duration
	PersistentCache    bool
	PersistentCacheDir string

	QualityThreshold float64
	MinContentLength int
	MinArabicRatio   float64
	VerifyIntegrity  bool

	CheckpointDir      string
	CheckpointInterval int
	MaxBackups         int
	EnableResume       bool

	Logger *slog.Logger
}

// Harvester is the per-run component stack.
type Harvester struct {
	cfg       Config
	logger    *slog.Logger
	client    *resource.Client
	envelope  *retry.Envelope
	responses *cache.TwoTier
	discovery *structure.Discovery
	store     *checkpoint.Store
	started   time.Time
}

// New assembles the stack. The returned harvester must be Closed to
// release the persistent cache.
func New(cfg Config) (*Harvester, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := resource.New(resource.Config{
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		TotalTimeout:   cfg.TotalTimeout,
		KeepAlive:      true,
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
	})

	envelope := retry.New(client, retry.Config{
		MaxRetries:       cfg.MaxRetries,
		BackoffFactor:    cfg.RetryBackoffFactor,
		RecoveryAttempts: cfg.RecoveryAttempts,
		RecoveryDelay:    cfg.RecoveryDelay,
	}, logger)

	var persistent *cache.Persistent
	if cfg.PersistentCache {
		dir := cfg.PersistentCacheDir
		if dir == "" {
			dir = "cache"
		}
		var err error
		persistent, err = cache.OpenPersistent(dir, cfg.CacheDuration)
		if err != nil {
			// A broken disk cache degrades to memory-only, it never blocks
			// an extraction.
			logger.Warn("persistent cache unavailable", "dir", dir, "error", err)
		}
	}
	responses := cache.New(cache.NewMemory(cfg.CacheSize), persistent, logger)

	store, err := checkpoint.NewStore(cfg.CheckpointDir, cfg.MaxBackups)
	if err != nil {
		return nil, err
	}

	return &Harvester{
		cfg:       cfg,
		logger:    logger,
		client:    client,
		envelope:  envelope,
		responses: responses,
		discovery: structure.New(&cachedGetter{envelope: envelope, cache: responses}, cfg.BaseURL, logger),
		store:     store,
		started:   time.Now(),
	}, nil
}

// Close releases run-scoped resources.
func (h *Harvester) Close() error {
	return h.responses.Close()
}

// Stats reports the run's health counters.
func (h *Harvester) Stats() retry.Stats {
	return h.envelope.Monitor().Snapshot()
}

// Healthy exposes the session health predicate.
func (h *Harvester) Healthy() bool {
	return h.envelope.Monitor().Healthy()
}

// cachedGetter puts the response cache in front of the envelope for the
// skeleton and category fetches.
type cachedGetter struct {
	envelope *retry.Envelope
	cache    *cache.TwoTier
}

func (g *cachedGetter) Get(ctx context.Context, url string) (*resource.Response, error) {
	if resp, ok := g.cache.Get(url); ok {
		g.envelope.RecordCacheHit()
		return resp, nil
	}
	resp, err := g.envelope.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := validation.CheckResponse(resp.Body, url); err != nil {
		return nil, err
	}
	g.cache.Set(url, resp)
	return resp, nil
}

// Extract runs the whole pipeline for a normalized book ID.
func (h *Harvester) Extract(ctx context.Context, bookID string) (*book.Document, error) {
	doc, err := h.extract(ctx, bookID)
	if err == nil {
		return doc, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	// Last resort: a prior backup of the complete book.
	if restored, ok := h.store.RestoreBackup(bookID); ok && h.complete(restored) {
		h.logger.Warn("extraction failed, returning backup", "book", bookID, "error", err)
		restored.RecoveredFromBackup = true
		return restored, nil
	}
	return nil, err
}

func (h *Harvester) complete(doc *book.Document) bool {
	return doc.Title != "" && doc.PageCountInternal > 0 && len(doc.Pages) == doc.PageCountInternal
}

func (h *Harvester) extract(ctx context.Context, bookID string) (*book.Document, error) {
	st := stateInit
	h.logger.Info("extraction starting", "book", bookID, "state", st)

	// INIT → SKELETON: resume if allowed, discover otherwise.
	var (
		doc    *book.Document
		loaded map[int]book.Page
		failed []int
	)
	if h.cfg.EnableResume {
		if snap, ok := h.store.Load(bookID); ok {
			doc = snap.Skeleton
			loaded = make(map[int]book.Page, len(snap.Pages))
			for _, p := range snap.Pages {
				loaded[p.InternalIndex] = p
			}
			h.logger.Info("resuming from checkpoint",
				"book", bookID, "loaded_pages", len(loaded), "saved_at", snap.Timestamp)
		}
	}
	if doc == nil {
		var err error
		doc, err = h.discovery.Discover(ctx, bookID)
		if err != nil {
			return nil, err
		}
		if _, err := h.store.CreateBackup(doc); err != nil {
			h.logger.Warn("skeleton backup failed", "book", bookID, "error", err)
		}
	}
	st = stateSkeleton

	// SKELETON → FETCHING.
	target := doc.PageCountInternal
	if h.cfg.MaxPages > 0 && h.cfg.MaxPages < target {
		target = h.cfg.MaxPages
	}
	indices := make([]int, 0, target)
	for i := 1; i <= target; i++ {
		if _, ok := loaded[i]; !ok {
			indices = append(indices, i)
		}
	}
	st = stateFetching
	h.logger.Info("fetching pages", "book", bookID, "state", st,
		"total", target, "pending", len(indices))

	result, err := h.runPool(ctx, bookID, doc, loaded, indices)
	if err != nil {
		return nil, err
	}
	failed = result.Failed

	// FETCHING → VALIDATING: merge resumed and fresh pages in order.
	pages := make([]book.Page, 0, len(loaded)+len(result.Pages))
	for _, p := range loaded {
		if p.InternalIndex <= target {
			pages = append(pages, p)
		}
	}
	pages = append(pages, result.Pages...)
	sort.Slice(pages, func(i, j int) bool { return pages[i].InternalIndex < pages[j].InternalIndex })
	doc.Pages = pages
	assignChapterOrders(doc)

	st = stateValidating
	report, err := validation.CheckDocument(doc, validation.Config{
		MaxEmptyFraction:  1 - h.cfg.QualityThreshold,
		MinArabicFraction: h.documentArabicFloor(),
		VerifyIntegrity:   h.cfg.VerifyIntegrity,
	})
	h.logger.Info("quality report", "book", bookID, "state", st,
		"pages", report.Pages, "empty", report.EmptyPages,
		"arabic_fraction", report.ArabicFraction, "score", report.Score,
		"duplicate_suspects", len(report.DuplicateSuspects))
	if err != nil {
		return nil, err
	}

	// VALIDATING → DONE: the run's scratch state has served its purpose.
	st = stateDone
	h.store.Cleanup(bookID)
	h.store.CleanupBackups(bookID)

	elapsed := time.Since(h.started)
	h.logger.Info("extraction complete", "book", bookID, "state", st,
		"pages", len(doc.Pages), "failed_pages", len(failed),
		"elapsed", elapsed.Round(time.Millisecond),
		"pages_per_second", fmt.Sprintf("%.2f", float64(len(doc.Pages))/elapsed.Seconds()))
	return doc, nil
}

func (h *Harvester) runPool(ctx context.Context, bookID string, doc *book.Document,
	loaded map[int]book.Page, indices []int) (*pool.Result, error) {

	workers := h.cfg.MaxWorkers
	if workers <= 0 {
		workers = pool.WorkersFor(doc.PageCountInternal)
	}

	p := pool.New(h.envelope, h.responses, pool.Config{
		Workers:            workers,
		BatchSize:          h.cfg.BatchSize,
		RequestDelay:       h.cfg.RequestDelay,
		MinContentLength:   h.cfg.MinContentLength,
		QualityThreshold:   h.cfg.QualityThreshold,
		CheckpointInterval: h.cfg.CheckpointInterval,
		ContentFormat:      h.cfg.ContentFormat,
		MinArabicRatio:     h.cfg.MinArabicRatio,
	}, h.logger)

	skeleton := doc.Skeleton()
	return p.Run(ctx, pool.Request{
		BookID:                bookID,
		Indices:               indices,
		HasOriginalPagination: doc.HasOriginalPagination,
		PageURL:               h.discovery.PageURL,
		VolumeFor:             doc.VolumeFor,
		OnCheckpoint: func(pages []book.Page, failedIdx []int) {
			snap := &checkpoint.Snapshot{Skeleton: skeleton}
			for _, prev := range loaded {
				snap.Pages = append(snap.Pages, prev)
			}
			snap.Pages = append(snap.Pages, pages...)
			for _, p := range snap.Pages {
				snap.LoadedIndices = append(snap.LoadedIndices, p.InternalIndex)
			}
			snap.FailedIndices = append(snap.FailedIndices, failedIdx...)
			if err := h.store.Save(bookID, snap); err != nil {
				h.logger.Warn("checkpoint save failed", "book", bookID, "error", err)
			} else {
				h.logger.Debug("checkpoint saved", "book", bookID, "pages", len(snap.Pages))
			}
		},
		OnProgress: func(done, total int) {
			if total > 0 && done%50 == 0 {
				h.logger.Info("progress", "book", bookID, "done", done, "total", total)
			}
		},
	})
}

// documentArabicFloor relaxes the document-level Arabic requirement when
// the per-page check was disabled (fixtures, non-Arabic content).
func (h *Harvester) documentArabicFloor() float64 {
	if h.cfg.MinArabicRatio < 0 {
		return -1
	}
	return 0.80
}

// assignChapterOrders stamps every page with the order of the last chapter
// starting at or before it, the same "current heading" rule a reader uses.
func assignChapterOrders(doc *book.Document) {
	type mark struct {
		start int
		order int
	}
	var marks []mark
	doc.WalkChapters(func(ch *book.Chapter) {
		if ch.PageStart > 0 {
			marks = append(marks, mark{start: ch.PageStart, order: ch.Order})
		}
	})
	if len(marks) == 0 {
		return
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].start < marks[j].start })

	for i := range doc.Pages {
		idx := doc.Pages[i].InternalIndex
		pos := sort.Search(len(marks), func(j int) bool { return marks[j].start > idx })
		if pos > 0 {
			doc.Pages[i].ChapterOrder = marks[pos-1].order
		}
	}
}
