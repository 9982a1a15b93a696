package admission

import "context"

type clientIPContextKey struct{}
type authContextKey struct{}

// WithClientIP attaches the caller's network address to ctx. The engine uses
// it in audit events and as the rate-limit caller identity for anonymous
// requests.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// ClientIPFromContext returns the attached caller address, or "".
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// WithAuthContext attaches a resolution result to ctx. Used by the HTTP
// middleware so handlers and later middleware read one shared result.
func WithAuthContext(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, ac)
}

// AuthContextFromContext returns the attached resolution result. The second
// return reports whether Resolve ran for this request at all.
func AuthContextFromContext(ctx context.Context) (AuthContext, bool) {
	if ctx == nil {
		return Anonymous, false
	}
	ac, ok := ctx.Value(authContextKey{}).(AuthContext)
	return ac, ok
}
