package resource

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Client wraps one pooled http.Client. Each harvester run builds one Client
// and shares it across all of that run's requests; nothing below it opens a
// transport per request. The retry envelope may
// swap the transport via Reset during recovery; that path holds the
// envelope's lock, so Client itself stays lock-free.
type Client struct {
	cfg  Config
	http *http.Client
}

// New builds a Client with a connection-pooled transport.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	c := &Client{cfg: cfg}
	c.http = &http.Client{
		Timeout:   cfg.TotalTimeout,
		Transport: c.newTransport(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("stopped after 5 redirects")
			}
			return nil
		},
	}
	return c
}

func (c *Client) newTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   c.cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          c.cfg.PoolSize,
		MaxIdleConnsPerHost:   c.cfg.PerHostPool,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: c.cfg.ReadTimeout,
		DisableKeepAlives:     !c.cfg.KeepAlive,
		DisableCompression:    false,
	}
}

// Reset tears down the current transport and installs a fresh one. Idle
// connections are closed so a wedged pool cannot poison later requests.
func (c *Client) Reset() {
	if t, ok := c.http.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	c.http.Transport = c.newTransport()
}

// FetchError is the classified failure of a single fetch attempt.
type FetchError struct {
	Kind   ErrorKind
	URL    string
	Status int
	Err    error
}

// ErrorKind enumerates how a fetch can fail.
type ErrorKind int

const (
	KindTimeout ErrorKind = iota
	KindDNS
	KindTransportClosed
	KindTLS
	KindHTTP
)

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.Status)
	case KindTimeout:
		return fmt.Sprintf("fetch %s: timeout: %v", e.URL, e.Err)
	case KindDNS:
		return fmt.Sprintf("fetch %s: dns: %v", e.URL, e.Err)
	case KindTLS:
		return fmt.Sprintf("fetch %s: tls: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: transport: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Get performs a single GET. A non-2xx status is returned as a
// *FetchError with KindHTTP; the body is still drained so the connection
// returns to the pool.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", DefaultAccept)
	req.Header.Set("Accept-Language", c.cfg.AcceptLanguage)
	// The default Accept-Encoding is left to the transport so Go's
	// transparent gzip decoding stays on; an explicit override is sent
	// as-is and decoded by hand below.
	if c.cfg.AcceptEncoding != DefaultAcceptEncoding {
		req.Header.Set("Accept-Encoding", c.cfg.AcceptEncoding)
	}
	if c.cfg.KeepAlive {
		req.Header.Set("Connection", "keep-alive")
	}
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("DNT", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(url, err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, classifyTransportError(url, err)
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, classifyTransportError(url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Kind: KindHTTP, URL: url, Status: resp.StatusCode}
	}

	decoded := DetectAndDecode(body, resp.Header.Get("Content-Type"))
	return &Response{
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       decoded,
		FetchedAt:  time.Now(),
	}, nil
}

func classifyTransportError(url string, err error) *FetchError {
	kind := KindTransportClosed

	var netErr net.Error
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &dnsErr):
		kind = KindDNS
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case isTLSError(err):
		kind = KindTLS
	}
	return &FetchError{Kind: kind, URL: url, Err: err}
}
