package shamela

import (
	"context"
	"errors"
	"time"

	"github.com/azizmrsh/shamela-go/internal/bookid"
	"github.com/azizmrsh/shamela-go/internal/harvest"
	"github.com/azizmrsh/shamela-go/internal/pool"
	"github.com/azizmrsh/shamela-go/internal/retry"
	"github.com/azizmrsh/shamela-go/internal/structure"
	"github.com/azizmrsh/shamela-go/internal/validation"
	"github.com/azizmrsh/shamela-go/pkg/book"
)

// Client extracts books from the library. It is safe for sequential reuse;
// each Extract call builds its own component stack (HTTP session, caches,
// checkpoints) and tears it down on return.
type Client struct {
	cfg       harvest.Config
	lastStats retry.Stats
}

// New creates a Client with the provided options.
//
// Example:
//
//	client := shamela.New(
//	    shamela.WithMaxWorkers(12),
//	    shamela.WithPersistentCache("cache", time.Hour),
//	)
func New(opts ...Option) *Client {
	c := &Client{
		cfg: harvest.Config{
			RequestDelay:       100 * time.Millisecond,
			MaxRetries:         5,
			RetryBackoffFactor: 2.0,
			CacheSize:          1000,
			CacheDuration:      time.Hour,
			QualityThreshold:   0.95,
			MinContentLength:   50,
			VerifyIntegrity:    true,
			CheckpointInterval: 25,
			MaxBackups:         5,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extract reconstructs the book behind id. The identifier may be the bare
// number or the BK-prefixed form; either way the normalized form keys the
// run. The returned document has passed the quality audit. Its pages stop
// at WithMaxPages when that is set, and pages that failed individually while
// the run stayed above the quality threshold are left out of it.
func (c *Client) Extract(ctx context.Context, id string) (*book.Document, error) {
	normalized, err := bookid.Normalize(id)
	if err != nil {
		return nil, &ExtractError{Code: ErrInvalidBookID, BookID: id, Err: err}
	}

	h, err := harvest.New(c.cfg)
	if err != nil {
		return nil, &ExtractError{Code: ErrInternal, BookID: normalized, Err: err}
	}
	defer h.Close()

	doc, err := h.Extract(ctx, normalized)
	if err != nil {
		return nil, c.classify(normalized, err)
	}
	c.lastStats = h.Stats()
	return doc, nil
}

// Category lists the book IDs filed under a category.
func (c *Client) Category(ctx context.Context, categoryID string) (*harvest.CategoryListing, error) {
	h, err := harvest.New(c.cfg)
	if err != nil {
		return nil, &ExtractError{Code: ErrInternal, Err: err}
	}
	defer h.Close()
	return h.Category(ctx, categoryID)
}

// Stats returns the health counters of the most recent successful Extract
// call; a failed call leaves them unchanged.
func (c *Client) Stats() retry.Stats {
	return c.lastStats
}

// classify maps internal failures onto the public taxonomy.
func (c *Client) classify(bookID string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &ExtractError{Code: ErrCancelled, BookID: bookID, Err: err}
	}

	var noTitle *structure.ErrNoTitle
	var badVolumes *structure.ErrVolumes
	if errors.As(err, &noTitle) || errors.As(err, &badVolumes) {
		return &ExtractError{Code: ErrStructure, BookID: bookID, Err: err}
	}

	var permanent *retry.PermanentError
	if errors.As(err, &permanent) {
		// A permanently missing landing page means the id is wrong, not
		// that the fetch machinery failed.
		return &ExtractError{Code: ErrInvalidBookID, BookID: bookID, URL: permanent.URL, Err: err}
	}

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return &ExtractError{
			Code:     ErrFetch,
			BookID:   bookID,
			URL:      exhausted.URL,
			Attempts: exhausted.Attempts,
			Err:      err,
		}
	}

	var quality *validation.QualityError
	var lowRate *pool.ErrLowSuccessRate
	if errors.As(err, &quality) || errors.As(err, &lowRate) {
		return &ExtractError{Code: ErrQuality, BookID: bookID, Err: err}
	}

	return &ExtractError{Code: ErrInternal, BookID: bookID, Err: err}
}
