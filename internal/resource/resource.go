// Package resource performs the raw HTTP fetching for the harvester: one
// shared pooled transport, realistic browser headers, charset-aware body
// decoding. It never retries and never looks inside a body beyond decoding
// it; both of those belong to the layers above.
package resource

import (
	"time"
)

// Default header set. The site serves different chrome to clients that do
// not look like desktop browsers, so the full set matters.
const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	DefaultAcceptLanguage = "ar,en-US;q=0.7,en;q=0.3"
	DefaultAcceptEncoding = "gzip, deflate"
)

// Config carries the transport-level knobs. Zero timeouts, pool sizes and
// header strings fall back to the defaults below; KeepAlive and DNSCacheTTL
// are used as given.
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	TotalTimeout   time.Duration
	PoolSize       int
	PerHostPool    int
	KeepAlive      bool
	DNSCacheTTL    time.Duration
	UserAgent      string
	AcceptLanguage string
	AcceptEncoding string
}

// Defaults mirrors the reliability profile the harvester ships with.
func Defaults() Config {
	return Config{
		ConnectTimeout: 30 * time.Second,
		ReadTimeout:    60 * time.Second,
		TotalTimeout:   90 * time.Second,
		PoolSize:       50,
		PerHostPool:    10,
		KeepAlive:      true,
		DNSCacheTTL:    5 * time.Minute,
		UserAgent:      DefaultUserAgent,
		AcceptLanguage: DefaultAcceptLanguage,
		AcceptEncoding: DefaultAcceptEncoding,
	}
}

func (c Config) withDefaults() Config {
	d := Defaults()
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.TotalTimeout == 0 {
		c.TotalTimeout = d.TotalTimeout
	}
	if c.PoolSize == 0 {
		c.PoolSize = d.PoolSize
	}
	if c.PerHostPool == 0 {
		c.PerHostPool = d.PerHostPool
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.AcceptLanguage == "" {
		c.AcceptLanguage = d.AcceptLanguage
	}
	if c.AcceptEncoding == "" {
		c.AcceptEncoding = d.AcceptEncoding
	}
	return c
}

// Response is a fetched and decoded page. Body is always UTF-8 regardless
// of what the origin served. FetchedAt carries the monotonic clock reading
// taken when the body finished arriving.
type Response struct {
	URL        string
	StatusCode int
	Body       string
	FetchedAt  time.Time
}
