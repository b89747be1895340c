// Package cache stores fetched responses keyed by URL: a bounded in-memory
// LRU in front of an optional badger-backed persistent tier with per-entry
// TTL. The cache is transparent — a hit satisfies the fetcher contract,
// body included — and is never invalidated mid-run.
package cache

import (
	"container/list"
	"sync"

	"github.com/azizmrsh/shamela-go/internal/resource"
)

// Stats counts cache traffic.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Sets      int64 `json:"sets"`
	Evictions int64 `json:"evictions"`
}

// Memory is a bounded LRU of URL → response. Safe for concurrent use.
type Memory struct {
	mu         sync.Mutex
	maxEntries int
	ll         *list.List
	entries    map[string]*list.Element
	stats      Stats
}

type memoryEntry struct {
	key  string
	resp *resource.Response
}

// NewMemory creates an LRU holding at most maxEntries responses.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Memory{
		maxEntries: maxEntries,
		ll:         list.New(),
		entries:    make(map[string]*list.Element),
	}
}

// Get returns the cached response for url, refreshing its recency.
func (m *Memory) Get(url string) (*resource.Response, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.entries[url]
	if !ok {
		m.stats.Misses++
		return nil, false
	}
	m.ll.MoveToFront(el)
	m.stats.Hits++
	return el.Value.(*memoryEntry).resp, true
}

// Set stores the response, evicting the least recently used entry when the
// bound is exceeded. Concurrent writes for the same key linearize on the
// lock; readers see one complete value or the other, never a torn one.
func (m *Memory) Set(url string, resp *resource.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.entries[url]; ok {
		m.ll.MoveToFront(el)
		el.Value.(*memoryEntry).resp = resp
		m.stats.Sets++
		return
	}
	el := m.ll.PushFront(&memoryEntry{key: url, resp: resp})
	m.entries[url] = el
	m.stats.Sets++
	if m.ll.Len() > m.maxEntries {
		oldest := m.ll.Back()
		if oldest != nil {
			m.ll.Remove(oldest)
			delete(m.entries, oldest.Value.(*memoryEntry).key)
			m.stats.Evictions++
		}
	}
}

// Len returns the number of cached responses.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ll.Len()
}

// Snapshot returns a copy of the traffic counters.
func (m *Memory) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
