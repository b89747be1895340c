package cache

import (
	"encoding/json"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/azizmrsh/shamela-go/internal/resource"
)

// Persistent is the on-disk tier, a badger store keyed by URL with
// badger-native TTL doing the expiry. Entries older than the TTL simply
// stop resolving, which the two-tier facade treats as misses.
type Persistent struct {
	db  *badger.DB
	ttl time.Duration
}

// persistedResponse is the stored form; the monotonic fetch timestamp does
// not survive a round-trip and is not needed once a response is cached.
type persistedResponse struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
}

// OpenPersistent opens (or creates) the badger store at dir.
func OpenPersistent(dir string, ttl time.Duration) (*Persistent, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Persistent{db: db, ttl: ttl}, nil
}

// Get returns the stored response for url, or ok=false on miss or expiry.
func (p *Persistent) Get(url string) (*resource.Response, bool) {
	var stored persistedResponse
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(url))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if err != nil {
		return nil, false
	}
	return &resource.Response{
		URL:        stored.URL,
		StatusCode: stored.StatusCode,
		Body:       stored.Body,
		FetchedAt:  time.Now(),
	}, true
}

// Set stores the response with the configured TTL.
func (p *Persistent) Set(url string, resp *resource.Response) error {
	val, err := json.Marshal(persistedResponse{
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	})
	if err != nil {
		return err
	}
	return p.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(url), val).WithTTL(p.ttl)
		return txn.SetEntry(entry)
	})
}

// Close releases the store.
func (p *Persistent) Close() error {
	return p.db.Close()
}
