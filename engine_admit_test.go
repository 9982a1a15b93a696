package admission_test

import (
	"context"
	"testing"
	"time"

	admission "github.com/automotiv/khetisahayak-sub000"
)

func TestAdmitAPIProfile(t *testing.T) {
	h := newTestHarness(t, func(cfg *admission.Config) {
		cfg.RateLimit.APIRequests = 3
		cfg.RateLimit.APIWindow = time.Minute
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d := h.engine.Admit(ctx, "/api/crops", "caller-1")
		if !d.Allowed {
			t.Fatalf("request %d within quota should be admitted", i+1)
		}
		if d.Class != admission.RouteAPI {
			t.Fatalf("expected api class, got %v", d.Class)
		}
		if d.Remaining != 3-(i+1) {
			t.Fatalf("request %d: expected remaining %d, got %d", i+1, 3-(i+1), d.Remaining)
		}
	}

	d := h.engine.Admit(ctx, "/api/crops", "caller-1")
	if d.Allowed {
		t.Fatalf("request over quota should be rejected")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Fatalf("unexpected retry-after %v", d.RetryAfter)
	}
}

func TestAdmitUploadProfile(t *testing.T) {
	h := newTestHarness(t, func(cfg *admission.Config) {
		cfg.RateLimit.UploadRequests = 2
		cfg.RateLimit.UploadWindow = time.Hour
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d := h.engine.Admit(ctx, "/api/diagnosis/upload", "caller-1")
		if !d.Allowed || d.Class != admission.RouteUpload {
			t.Fatalf("upload %d: unexpected decision %+v", i+1, d)
		}
		if d.Limit != 2 {
			t.Fatalf("upload limit should come from the upload profile, got %d", d.Limit)
		}
	}

	if d := h.engine.Admit(ctx, "/api/diagnosis/upload", "caller-1"); d.Allowed {
		t.Fatalf("upload over quota should be rejected")
	}

	// The same caller's API budget is untouched.
	if d := h.engine.Admit(ctx, "/api/crops", "caller-1"); !d.Allowed {
		t.Fatalf("api budget should be independent of the upload budget")
	}
}

func TestAdmitExemptRoutes(t *testing.T) {
	h := newTestHarness(t, func(cfg *admission.Config) {
		cfg.RateLimit.APIRequests = 1
		cfg.RateLimit.APIWindow = time.Minute
	})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		d := h.engine.Admit(ctx, "/health", "caller-1")
		if !d.Allowed || !d.Exempt || d.Class != admission.RouteExempt {
			t.Fatalf("health check %d should always pass: %+v", i+1, d)
		}
	}
}

func TestAdmitWindowReset(t *testing.T) {
	h := newTestHarness(t, func(cfg *admission.Config) {
		cfg.RateLimit.APIRequests = 1
		cfg.RateLimit.APIWindow = time.Minute
	})
	ctx := context.Background()

	if d := h.engine.Admit(ctx, "/api/crops", "caller-1"); !d.Allowed {
		t.Fatalf("first request should be admitted")
	}
	if d := h.engine.Admit(ctx, "/api/crops", "caller-1"); d.Allowed {
		t.Fatalf("second request should be rejected")
	}

	h.clock.Advance(61 * time.Second)

	d := h.engine.Admit(ctx, "/api/crops", "caller-1")
	if !d.Allowed {
		t.Fatalf("window should reset after it elapses")
	}
	if d.Remaining != 0 {
		t.Fatalf("fresh window of 1 should report remaining 0, got %d", d.Remaining)
	}
}

func TestAdmitPerCallerIsolation(t *testing.T) {
	h := newTestHarness(t, func(cfg *admission.Config) {
		cfg.RateLimit.APIRequests = 1
		cfg.RateLimit.APIWindow = time.Minute
	})
	ctx := context.Background()

	if d := h.engine.Admit(ctx, "/api/crops", "caller-1"); !d.Allowed {
		t.Fatalf("caller-1 should be admitted")
	}
	if d := h.engine.Admit(ctx, "/api/crops", "caller-1"); d.Allowed {
		t.Fatalf("caller-1 should be over quota")
	}
	if d := h.engine.Admit(ctx, "/api/crops", "caller-2"); !d.Allowed {
		t.Fatalf("caller-2 should have an untouched budget")
	}
}

func TestAdmitMetrics(t *testing.T) {
	h := newTestHarness(t, func(cfg *admission.Config) {
		cfg.RateLimit.APIRequests = 1
		cfg.RateLimit.APIWindow = time.Minute
	})
	ctx := context.Background()

	h.engine.Admit(ctx, "/api/crops", "caller-1")
	h.engine.Admit(ctx, "/api/crops", "caller-1")
	h.engine.Admit(ctx, "/health", "caller-1")

	snap := h.engine.MetricsSnapshot()
	if snap.Counters[admission.MetricAdmitAllowed] != 1 {
		t.Fatalf("expected 1 allowed, got %d", snap.Counters[admission.MetricAdmitAllowed])
	}
	if snap.Counters[admission.MetricAdmitRejected] != 1 {
		t.Fatalf("expected 1 rejected, got %d", snap.Counters[admission.MetricAdmitRejected])
	}
	if snap.Counters[admission.MetricAdmitExempt] != 1 {
		t.Fatalf("expected 1 exempt, got %d", snap.Counters[admission.MetricAdmitExempt])
	}
}
