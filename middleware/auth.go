package middleware

import (
	"net/http"

	admission "github.com/automotiv/khetisahayak-sub000"
)

// Authenticate returns middleware that resolves the request's identity and
// attaches the result to the request context. It never rejects: handlers and
// downstream authorization read [admission.AuthContextFromContext] and decide
// what anonymous means for their route.
func Authenticate(engine *admission.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if admission.ClientIPFromContext(ctx) == "" {
				ctx = admission.WithClientIP(ctx, clientIP(r))
			}

			ac := admission.Anonymous
			if engine != nil {
				ac = engine.Resolve(ctx, r.URL.Path, r.Header.Get("Authorization"))
			}

			next.ServeHTTP(w, r.WithContext(admission.WithAuthContext(ctx, ac)))
		})
	}
}

// RequireIdentity returns middleware that converts an anonymous resolution
// into 401. It belongs on route groups whose handlers assume a known caller;
// the resolver itself never rejects.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := admission.AuthContextFromContext(r.Context())
		if !ok || ac.IsAnonymous() {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
