// Package admission is the admission-control and credential-lifecycle layer of the
// Kheti Sahayak backend: per-caller rate limiting, one-time login codes delivered to a
// farmer's mobile number, HMAC-signed bearer tokens, and per-request identity resolution.
//
// The package is designed for concurrent server workloads: Engine methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// admission is the public surface. It exposes [Engine], [Builder], [Config], and value
// types (AuthContext, TokenPair, AdmitDecision, MetricsSnapshot). Internal coordination —
// the keyed window store, the Redis-backed code store, issue-quota counters — lives under
// internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Persist domain entities or deliver SMS/email; those are the caller's collaborators.
//   - Return 401/403 itself: [Engine.Resolve] classifies a request as anonymous or
//     identified, and downstream authorization decides what that means for the route.
//   - Expose Redis clients, record encodings, or raw one-time codes in its public API
//     beyond the single return value of [Engine.IssueOtp].
//
// # Performance contract
//
// Admit and Resolve are the hot path. Admit never touches the network; Resolve performs
// at most one account lookup, bounded by the configured timeout, and degrades to an
// anonymous result when that lookup fails or times out.
package admission
