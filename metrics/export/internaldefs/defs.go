// Package internaldefs holds the shared counter definition table used by every
// metrics exporter, so the OTel and Prometheus views of the engine stay in
// lockstep by construction.
package internaldefs

import (
	admission "github.com/automotiv/khetisahayak-sub000"
)

// CounterDef maps one engine counter to its exported name and help text.
type CounterDef struct {
	ID          admission.MetricID
	Name        string
	Description string
}

// AuditDroppedName is the exported name of the audit backpressure counter,
// which lives outside the MetricID table.
const AuditDroppedName = "ksadmission_audit_events_dropped_total"

// Counters returns the definition table in a stable order. Exporters must not
// reorder or filter it; a counter missing from one backend is a bug.
func Counters() []CounterDef {
	return []CounterDef{
		{admission.MetricAdmitAllowed, "ksadmission_admit_allowed_total", "Requests admitted by the rate-limit gate."},
		{admission.MetricAdmitRejected, "ksadmission_admit_rejected_total", "Requests denied by the rate-limit gate."},
		{admission.MetricAdmitExempt, "ksadmission_admit_exempt_total", "Requests on quota-exempt routes."},
		{admission.MetricOtpIssued, "ksadmission_otp_issued_total", "One-time codes issued."},
		{admission.MetricOtpIssueRateLimited, "ksadmission_otp_issue_rate_limited_total", "Code requests denied by the per-subject issue quota."},
		{admission.MetricOtpVerifySuccess, "ksadmission_otp_verify_success_total", "Successful one-time code verifications."},
		{admission.MetricOtpVerifyFailure, "ksadmission_otp_verify_failure_total", "Failed one-time code verifications."},
		{admission.MetricTokenIssued, "ksadmission_token_pairs_issued_total", "Access/refresh token pairs issued."},
		{admission.MetricTokenRejected, "ksadmission_token_rejected_total", "Bearer tokens that failed validation."},
		{admission.MetricResolveIdentity, "ksadmission_resolve_identity_total", "Requests resolved to a verified identity."},
		{admission.MetricResolveAnonymous, "ksadmission_resolve_anonymous_total", "Requests resolved as anonymous."},
		{admission.MetricAccountLookupFailure, "ksadmission_account_lookup_failure_total", "Account lookups that failed or timed out."},
		{admission.MetricRefreshSuccess, "ksadmission_refresh_success_total", "Successful refresh-token exchanges."},
		{admission.MetricRefreshFailure, "ksadmission_refresh_failure_total", "Failed refresh-token exchanges."},
	}
}
