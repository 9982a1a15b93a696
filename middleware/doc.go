// Package middleware adapts the admission engine to net/http: the rate-limit
// gate with quota headers and 429 responses, and the authentication resolver
// that attaches an [admission.AuthContext] to every request.
//
// Ordering matters: RateLimit must wrap Authenticate so the gate runs first,
// and Authenticate must wrap any handler that reads the resolved identity.
package middleware
