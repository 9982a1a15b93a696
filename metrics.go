package admission

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricAdmitAllowed counts requests admitted by the rate-limit gate.
	MetricAdmitAllowed MetricID = iota
	// MetricAdmitRejected counts requests denied by the rate-limit gate.
	MetricAdmitRejected
	// MetricAdmitExempt counts requests on quota-exempt routes.
	MetricAdmitExempt
	// MetricOtpIssued counts successfully issued one-time codes.
	MetricOtpIssued
	// MetricOtpIssueRateLimited counts code requests denied by the issue quota.
	MetricOtpIssueRateLimited
	// MetricOtpVerifySuccess counts successful code verifications.
	MetricOtpVerifySuccess
	// MetricOtpVerifyFailure counts failed code verifications (all modes).
	MetricOtpVerifyFailure
	// MetricTokenIssued counts issued token pairs.
	MetricTokenIssued
	// MetricTokenRejected counts tokens that failed validation.
	MetricTokenRejected
	// MetricResolveIdentity counts requests resolved to a verified identity.
	MetricResolveIdentity
	// MetricResolveAnonymous counts requests resolved as anonymous.
	MetricResolveAnonymous
	// MetricAccountLookupFailure counts account lookups that failed or timed out.
	MetricAccountLookupFailure
	// MetricRefreshSuccess counts successful refresh operations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts failed refresh operations.
	MetricRefreshFailure
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the engine's in-process counter set. Increments are single
// atomic adds on cache-line-padded slots; disabled metrics cost one branch.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
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

// Snapshot copies every counter into a fresh map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricIDCount),
	}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
