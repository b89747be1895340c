package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	retrygo "github.com/avast/retry-go/v4"

	"github.com/azizmrsh/shamela-go/internal/resource"
)

// Fetcher is the slice of the HTTP client the envelope needs.
type Fetcher interface {
	Get(ctx context.Context, url string) (*resource.Response, error)
	Reset()
}

// Config tunes the envelope. Zero values take the ultra-reliable profile
// the harvester ships with.
type Config struct {
	MaxRetries             int
	BackoffFactor          float64
	BaseDelay              time.Duration
	MaxDelay               time.Duration
	RecoveryAttempts       int
	RecoveryDelay          time.Duration
	MaxConsecutiveFailures int
}

func (c Config) withDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = 2.0
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = 500 * time.Millisecond
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.RecoveryAttempts == 0 {
		c.RecoveryAttempts = 3
	}
	if c.RecoveryDelay == 0 {
		c.RecoveryDelay = 5 * time.Second
	}
	if c.MaxConsecutiveFailures == 0 {
		c.MaxConsecutiveFailures = 3
	}
	return c
}

// PermanentError wraps an HTTP status the origin will keep returning.
// It is surfaced on the first occurrence, never retried.
type PermanentError struct {
	URL    string
	Status int
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent http %d for %s", e.Status, e.URL)
}

// ExhaustedError reports that retries and the recovery pass both failed.
type ExhaustedError struct {
	URL      string
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("transient failures exhausted after %d attempts for %s: %v", e.Attempts, e.URL, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error { return e.LastErr }

// Envelope is the reliability wrapper around a Fetcher.
type Envelope struct {
	fetcher Fetcher
	cfg     Config
	monitor *Monitor
	logger  *slog.Logger

	// resetMu serializes transport rebuilds; requests in flight on the old
	// transport finish on it.
	resetMu sync.Mutex
}

// New wraps fetcher with the retry/recovery envelope.
func New(fetcher Fetcher, cfg Config, logger *slog.Logger) *Envelope {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Envelope{
		fetcher: fetcher,
		cfg:     cfg,
		monitor: NewMonitor(cfg.MaxConsecutiveFailures),
		logger:  logger,
	}
}

// Monitor exposes the health counters.
func (e *Envelope) Monitor() *Monitor { return e.monitor }

// RecordCacheHit forwards cache traffic into the monitor so the final
// stats cover requests that never reached the network.
func (e *Envelope) RecordCacheHit() { e.monitor.RecordCacheHit() }

// permanentStatuses never get a second request.
var permanentStatuses = map[int]bool{403: true, 404: true, 410: true}

// transientStatuses are worth retrying with backoff.
var transientStatuses = map[int]bool{
	429: true, 500: true, 502: true, 503: true, 504: true,
	520: true, 521: true, 522: true, 523: true, 524: true,
}

// Transient reports whether err is worth retrying.
func Transient(err error) bool {
	var fe *resource.FetchError
	if !errors.As(err, &fe) {
		// Unclassified errors (context cancellation and the like) are not
		// retried here; the caller decides.
		return false
	}
	switch fe.Kind {
	case resource.KindTimeout, resource.KindDNS, resource.KindTransportClosed, resource.KindTLS:
		return true
	case resource.KindHTTP:
		return transientStatuses[fe.Status]
	}
	return false
}

func permanent(err error) (*PermanentError, bool) {
	var fe *resource.FetchError
	if errors.As(err, &fe) && fe.Kind == resource.KindHTTP && permanentStatuses[fe.Status] {
		return &PermanentError{URL: fe.URL, Status: fe.Status}, true
	}
	return nil, false
}

// Get fetches the URL through the full reliability ladder: classified
// bounded retries with exponential backoff, then one recovery pass that
// rebuilds the transport and tries again with fixed spacing.
func (e *Envelope) Get(ctx context.Context, url string) (*resource.Response, error) {
	resp, err := e.getWithRetries(ctx, url)
	if err == nil {
		return resp, nil
	}

	var pe *PermanentError
	if errors.As(err, &pe) {
		return nil, pe
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if !Transient(err) {
		return nil, err
	}

	// Recovery level: the transport itself may be wedged.
	e.logger.Warn("retries exhausted, rebuilding transport", "url", url)
	e.resetMu.Lock()
	e.fetcher.Reset()
	e.resetMu.Unlock()
	e.monitor.RecordRecovery()

	attempts := e.cfg.MaxRetries
	lastErr := err
	for i := 0; i < e.cfg.RecoveryAttempts; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.cfg.RecoveryDelay):
		}
		attempts++
		resp, err := e.fetcher.Get(ctx, url)
		if err == nil {
			e.monitor.RecordSuccess()
			return resp, nil
		}
		e.monitor.RecordFailure()
		lastErr = err
		if pe, ok := permanent(err); ok {
			return nil, pe
		}
	}

	return nil, &ExhaustedError{URL: url, Attempts: attempts, LastErr: lastErr}
}

func (e *Envelope) getWithRetries(ctx context.Context, url string) (*resource.Response, error) {
	return retrygo.DoWithData(
		func() (*resource.Response, error) {
			resp, err := e.fetcher.Get(ctx, url)
			if err != nil {
				e.monitor.RecordFailure()
				if pe, ok := permanent(err); ok {
					return nil, retrygo.Unrecoverable(pe)
				}
				return nil, err
			}
			e.monitor.RecordSuccess()
			return resp, nil
		},
		retrygo.Context(ctx),
		retrygo.Attempts(uint(e.cfg.MaxRetries)),
		retrygo.RetryIf(Transient),
		retrygo.LastErrorOnly(true),
		retrygo.DelayType(e.backoff),
		retrygo.OnRetry(func(n uint, err error) {
			e.monitor.RecordRetry()
			e.logger.Debug("retrying fetch", "url", url, "attempt", n+1, "error", err)
		}),
	)
}

// backoff computes the sleep before attempt n+1: base·factor^n with a small
// additive jitter, capped at MaxDelay.
func (e *Envelope) backoff(n uint, _ error, _ *retrygo.Config) time.Duration {
	d := float64(e.cfg.BaseDelay) * math.Pow(e.cfg.BackoffFactor, float64(n))
	jitter := rand.Float64() * float64(e.cfg.BaseDelay) * 0.25
	total := time.Duration(d + jitter)
	if total > e.cfg.MaxDelay {
		total = e.cfg.MaxDelay
	}
	return total
}
