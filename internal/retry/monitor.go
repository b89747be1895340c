// Package retry wraps the fetcher with the reliability envelope: bounded
// classified retries, transport recovery after sustained failure, and the
// health counters the orchestrator watches.
package retry

import (
	"sync"
	"time"
)

// unhealthyAfter is how long the session may go without a single success
// before the health predicate trips.
const unhealthyAfter = 5 * time.Minute

// Monitor tracks request outcomes across the whole extraction. All methods
// are safe for concurrent use.
type Monitor struct {
	mu sync.Mutex

	totalRequests       int64
	successes           int64
	failures            int64
	retriesUsed         int64
	recoveriesPerformed int64
	consecutiveFailures int64
	cacheHits           int64
	lastSuccess         time.Time
	start               time.Time

	maxConsecutiveFailures int64
}

// NewMonitor creates a monitor that reports unhealthy after
// maxConsecutiveFailures back-to-back failures.
func NewMonitor(maxConsecutiveFailures int) *Monitor {
	if maxConsecutiveFailures <= 0 {
		maxConsecutiveFailures = 3
	}
	now := time.Now()
	return &Monitor{
		start:                  now,
		lastSuccess:            now,
		maxConsecutiveFailures: int64(maxConsecutiveFailures),
	}
}

// RecordSuccess notes a completed request and clears the failure streak.
func (m *Monitor) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalRequests++
	m.successes++
	m.consecutiveFailures = 0
	m.lastSuccess = time.Now()
}

// RecordFailure notes a failed request.
func (m *Monitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalRequests++
	m.failures++
	m.consecutiveFailures++
}

// RecordRetry notes one retry attempt being consumed.
func (m *Monitor) RecordRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retriesUsed++
}

// RecordRecovery notes a transport rebuild and clears the failure streak.
func (m *Monitor) RecordRecovery() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoveriesPerformed++
	m.consecutiveFailures = 0
}

// RecordCacheHit notes a request satisfied without touching the network.
func (m *Monitor) RecordCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

// Healthy reports whether the session looks usable: the failure streak is
// under the limit and something succeeded within the last five minutes.
func (m *Monitor) Healthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consecutiveFailures >= m.maxConsecutiveFailures {
		return false
	}
	return time.Since(m.lastSuccess) <= unhealthyAfter
}

// Stats is a point-in-time copy of the counters.
type Stats struct {
	TotalRequests       int64     `json:"total_requests"`
	Successes           int64     `json:"successes"`
	Failures            int64     `json:"failures"`
	RetriesUsed         int64     `json:"retries_used"`
	RecoveriesPerformed int64     `json:"recoveries_performed"`
	ConsecutiveFailures int64     `json:"consecutive_failures"`
	CacheHits           int64     `json:"cache_hits"`
	LastSuccess         time.Time `json:"last_success"`
	Start               time.Time `json:"start"`
}

// SuccessRate returns successes over total, 1.0 when nothing ran yet.
func (s Stats) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 1.0
	}
	return float64(s.Successes) / float64(s.TotalRequests)
}

// Snapshot returns a copy of the current counters.
func (m *Monitor) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		TotalRequests:       m.totalRequests,
		Successes:           m.successes,
		Failures:            m.failures,
		RetriesUsed:         m.retriesUsed,
		RecoveriesPerformed: m.recoveriesPerformed,
		ConsecutiveFailures: m.consecutiveFailures,
		CacheHits:           m.cacheHits,
		LastSuccess:         m.lastSuccess,
		Start:               m.start,
	}
}
