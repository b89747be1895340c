package shamela

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBaseURL points the client at a different origin, mainly for tests
// against a stub server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.cfg.BaseURL = baseURL }
}

// WithMaxPages caps how many pages are fetched per book. Zero means the
// whole book.
func WithMaxPages(n int) Option {
	return func(c *Client) { c.cfg.MaxPages = n }
}

// WithMaxWorkers fixes the page pool's worker count instead of scaling it
// with book size.
func WithMaxWorkers(n int) Option {
	return func(c *Client) { c.cfg.MaxWorkers = n }
}

// WithBatchSize bounds how many page indices may wait in the pool's
// queue at once.
func WithBatchSize(n int) Option {
	return func(c *Client) { c.cfg.BatchSize = n }
}

// WithRequestDelay sets the pacing delay applied before each page request
// (cache hits excluded).
func WithRequestDelay(d time.Duration) Option {
	return func(c *Client) { c.cfg.RequestDelay = d }
}

// WithMaxRetries bounds the per-URL retry loop.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.cfg.MaxRetries = n }
}

// WithRetryBackoffFactor sets the exponential backoff base factor.
func WithRetryBackoffFactor(f float64) Option {
	return func(c *Client) { c.cfg.RetryBackoffFactor = f }
}

// WithTimeouts sets the connect, read, and total per-request timeouts.
func WithTimeouts(connect, read, total time.Duration) Option {
	return func(c *Client) {
		c.cfg.ConnectTimeout = connect
		c.cfg.ReadTimeout = read
		c.cfg.TotalTimeout = total
	}
}

// WithUserAgent overrides the desktop browser User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.cfg.UserAgent = ua }
}

// WithAcceptLanguage overrides the Accept-Language header.
func WithAcceptLanguage(al string) Option {
	return func(c *Client) { c.cfg.AcceptLanguage = al }
}

// WithCacheSize bounds the in-memory response cache by entry count.
func WithCacheSize(n int) Option {
	return func(c *Client) { c.cfg.CacheSize = n }
}

// WithPersistentCache enables the on-disk response cache at dir with the
// given per-entry lifetime.
func WithPersistentCache(dir string, ttl time.Duration) Option {
	return func(c *Client) {
		c.cfg.PersistentCache = true
		c.cfg.PersistentCacheDir = dir
		c.cfg.CacheDuration = ttl
	}
}

// WithQualityThreshold sets the minimum tolerated page success rate.
func WithQualityThreshold(t float64) Option {
	return func(c *Client) { c.cfg.QualityThreshold = t }
}

// WithMinContentLength sets the per-page minimum text length.
func WithMinContentLength(n int) Option {
	return func(c *Client) { c.cfg.MinContentLength = n }
}

// WithMinArabicRatio sets the per-page Arabic-script floor. Pass a
// negative value to disable the check entirely.
func WithMinArabicRatio(r float64) Option {
	return func(c *Client) { c.cfg.MinArabicRatio = r }
}

// WithIntegrityChecks toggles the duplicate-page scan in the document
// audit.
func WithIntegrityChecks(on bool) Option {
	return func(c *Client) { c.cfg.VerifyIntegrity = on }
}

// WithCheckpoints configures the resume directory and how many validated
// pages pass between snapshots.
func WithCheckpoints(dir string, interval int) Option {
	return func(c *Client) {
		c.cfg.CheckpointDir = dir
		c.cfg.CheckpointInterval = interval
	}
}

// WithResume makes Extract pick up from an existing checkpoint instead of
// starting over.
func WithResume(on bool) Option {
	return func(c *Client) { c.cfg.EnableResume = on }
}

// WithMaxBackups caps the rotating backups retained per book.
func WithMaxBackups(n int) Option {
	return func(c *Client) { c.cfg.MaxBackups = n }
}

// WithContentFormat selects what each page carries besides plain text:
// "text" (default), "html" for a sanitized fragment, or "markdown" for a
// converted rendering.
func WithContentFormat(format string) Option {
	return func(c *Client) { c.cfg.ContentFormat = format }
}

// WithLogger injects a structured logger; slog.Default() otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.cfg.Logger = logger }
}
