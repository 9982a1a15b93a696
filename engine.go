package admission

import (
	"time"

	"github.com/automotiv/khetisahayak-sub000/internal/limiters"
	"github.com/automotiv/khetisahayak-sub000/internal/rate"
	"github.com/automotiv/khetisahayak-sub000/internal/stores"
	"github.com/automotiv/khetisahayak-sub000/token"
)

// Engine is the admission-control facade: the rate-limit gate, the OTP
// service, the token manager, and the per-request resolver behind one set of
// methods. Construct through [Builder.Build]; safe for concurrent use after.
type Engine struct {
	config       Config
	limiter      *rate.Limiter
	otpStore     *stores.OtpStore
	issueLimiter *limiters.IssueLimiter
	tokens       *token.Manager
	accounts     AccountProvider
	audit        *auditDispatcher
	metrics      *Metrics
	now          Clock
}

// Close flushes the audit dispatcher. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Tokens exposes the token manager for callers that need ExtractSubject or
// direct validation outside the resolver.
func (e *Engine) Tokens() *token.Manager {
	if e == nil {
		return nil
	}
	return e.tokens
}

// MetricsSnapshot returns a copy of every engine counter.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) auditEmit(event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.clock()
	}
	e.audit.Emit(event)
}

func (e *Engine) clock() time.Time {
	if e == nil || e.now == nil {
		return time.Now()
	}
	return e.now()
}
