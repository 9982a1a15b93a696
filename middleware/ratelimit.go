package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	admission "github.com/automotiv/khetisahayak-sub000"
)

// quotaMessage is shown to callers on poor rural connections; it must stay
// free of jargon and of anything that looks like data loss.
const quotaMessage = "Too many requests right now. Please wait a little and try again; nothing has been lost."

type rateLimitBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RateLimit returns middleware that runs the engine's admission gate before
// the wrapped handler. Quota headers are emitted on every limited route; a
// rejected request gets 429 with Retry-After and a JSON body.
func RateLimit(engine *admission.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			ctx := admission.WithClientIP(r.Context(), ip)
			r = r.WithContext(ctx)

			// An authenticated caller is limited by subject so NAT'd villages
			// sharing one address don't share one quota.
			caller := ip
			if ac, ok := admission.AuthContextFromContext(ctx); ok && !ac.IsAnonymous() {
				caller = ac.Subject
			} else if subject := subjectHint(engine, r.Header.Get("Authorization")); subject != "" {
				caller = subject
			}

			d := engine.Admit(ctx, r.URL.Path, caller)
			if d.Exempt {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(rateLimitBody{
					Success: false,
					Error:   "rate_limit_exceeded",
					Message: quotaMessage,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// subjectHint extracts an unverified subject for quota keying only. A forged
// subject gains nothing: it moves the forger onto a stricter per-subject
// budget without granting identity.
func subjectHint(engine *admission.Engine, header string) string {
	const bearer = "Bearer "
	if !strings.HasPrefix(header, bearer) {
		return ""
	}
	tokens := engine.Tokens()
	if tokens == nil {
		return ""
	}
	subject, err := tokens.ExtractSubject(header[len(bearer):])
	if err != nil {
		return ""
	}
	return subject
}

func clientIP(r *http.Request) string {
	xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xForwardedFor != "" {
		parts := strings.Split(xForwardedFor, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	xRealIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if xRealIP != "" {
		return xRealIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}

	return host
}
