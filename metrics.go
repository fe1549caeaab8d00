package hospauth

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts completed logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected or failed logins.
	MetricLoginFailure
	// MetricRefreshSuccess counts refreshes that rotated the token pair.
	MetricRefreshSuccess
	// MetricRefreshFailure counts refreshes that ended in an error.
	MetricRefreshFailure
	// MetricRefreshCoalesced counts callers that piggybacked on an in-flight
	// refresh instead of issuing their own collaborator call.
	MetricRefreshCoalesced
	// MetricRefreshDiscarded counts refresh results dropped because a logout
	// happened while the call was in flight.
	MetricRefreshDiscarded
	// MetricLogout counts logout transitions, including redundant ones.
	MetricLogout
	// MetricBootstrapAuthenticated counts bootstraps ending authenticated.
	MetricBootstrapAuthenticated
	// MetricBootstrapUnauthenticated counts bootstraps ending logged out.
	MetricBootstrapUnauthenticated
	// MetricTokenDecodeFailure counts access tokens that failed to decode.
	MetricTokenDecodeFailure
	// MetricProfileFetchFailure counts failed user-profile fetches.
	MetricProfileFetchFailure

	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the manager's atomic counters. All methods are safe for
// concurrent use; a nil or disabled Metrics is a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// NewMetrics creates a Metrics instance. When cfg.Enabled is false every
// operation is a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot deep-copies the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
