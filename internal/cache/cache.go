package cache

import (
	"log/slog"

	"github.com/azizmrsh/shamela-go/internal/resource"
)

// TwoTier reads memory first, then the persistent tier; writes populate
// both. The persistent tier is optional.
type TwoTier struct {
	memory     *Memory
	persistent *Persistent
	logger     *slog.Logger
}

// New assembles the cache. persistent may be nil.
func New(memory *Memory, persistent *Persistent, logger *slog.Logger) *TwoTier {
	if logger == nil {
		logger = slog.Default()
	}
	return &TwoTier{memory: memory, persistent: persistent, logger: logger}
}

// Get looks the URL up in both tiers. A persistent hit is promoted into
// memory so the next lookup stays off disk.
func (c *TwoTier) Get(url string) (*resource.Response, bool) {
	if resp, ok := c.memory.Get(url); ok {
		return resp, true
	}
	if c.persistent == nil {
		return nil, false
	}
	resp, ok := c.persistent.Get(url)
	if !ok {
		return nil, false
	}
	c.memory.Set(url, resp)
	return resp, true
}

// Set writes the response to both tiers. A persistent-tier write failure is
// logged and otherwise ignored; the run continues on memory alone.
func (c *TwoTier) Set(url string, resp *resource.Response) {
	c.memory.Set(url, resp)
	if c.persistent == nil {
		return
	}
	if err := c.persistent.Set(url, resp); err != nil {
		c.logger.Warn("persistent cache write failed", "url", url, "error", err)
	}
}

// Stats returns the in-memory traffic counters.
func (c *TwoTier) Stats() Stats {
	return c.memory.Snapshot()
}

// Close releases the persistent tier if present.
func (c *TwoTier) Close() error {
	if c.persistent != nil {
		return c.persistent.Close()
	}
	return nil
}
