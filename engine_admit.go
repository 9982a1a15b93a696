package admission

import (
	"context"
	"strings"
	"time"
)

// RouteClass selects which quota profile applies to a request path.
type RouteClass uint8

const (
	// RouteAPI is the default class: the looser per-minute quota.
	RouteAPI RouteClass = iota
	// RouteUpload is the stricter hourly quota for upload-type endpoints.
	RouteUpload
	// RouteExempt carries no quota at all (health, docs).
	RouteExempt
)

func (c RouteClass) String() string {
	switch c {
	case RouteUpload:
		return "upload"
	case RouteExempt:
		return "exempt"
	default:
		return "api"
	}
}

// AdmitDecision is the outcome of the rate-limit gate for one request.
// ResetAt is when the current window ends; RetryAfter is only meaningful on
// rejection.
type AdmitDecision struct {
	Allowed    bool
	Exempt     bool
	Class      RouteClass
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Admit runs the admission gate for a request on path by callerID (an
// authenticated subject, else the client address). It never fails: the gate
// is advisory abuse mitigation, not a security boundary.
func (e *Engine) Admit(ctx context.Context, path, callerID string) AdmitDecision {
	if e == nil || e.limiter == nil {
		return AdmitDecision{Allowed: true, Exempt: true, Class: RouteExempt}
	}

	class := e.classify(path)
	if class == RouteExempt {
		e.metricInc(MetricAdmitExempt)
		return AdmitDecision{Allowed: true, Exempt: true, Class: RouteExempt}
	}

	limit := e.config.RateLimit.APIRequests
	window := e.config.RateLimit.APIWindow
	if class == RouteUpload {
		limit = e.config.RateLimit.UploadRequests
		window = e.config.RateLimit.UploadWindow
	}

	// One window per (caller, route class): the two profiles never share a
	// budget even for the same caller.
	d := e.limiter.Admit(callerID+"|"+class.String(), limit, window, e.clock())

	if d.Allowed {
		e.metricInc(MetricAdmitAllowed)
	} else {
		e.metricInc(MetricAdmitRejected)
	}

	return AdmitDecision{
		Allowed:    d.Allowed,
		Class:      class,
		Limit:      d.Limit,
		Remaining:  d.Remaining,
		ResetAt:    d.ResetAt,
		RetryAfter: d.RetryAfter,
	}
}

func (e *Engine) classify(path string) RouteClass {
	for _, prefix := range e.config.RateLimit.ExemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return RouteExempt
		}
	}
	for _, prefix := range e.config.RateLimit.UploadPrefixes {
		if strings.HasPrefix(path, prefix) {
			return RouteUpload
		}
	}
	return RouteAPI
}
