package admission

import (
	"errors"
	"time"
)

// Config is the full engine configuration. Zero values are filled from
// defaultConfig by [Builder.Build]; secrets (Token.SigningKey, OTP.Pepper)
// have no defaults and must be supplied.
type Config struct {
	RateLimit RateLimitConfig
	OTP       OTPConfig
	Token     TokenConfig
	Resolver  ResolverConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig carries the two route-class quota profiles plus the
// retention knobs of the in-memory window store. Health and docs routes are
// exempt from quota altogether.
type RateLimitConfig struct {
	APIRequests    int
	APIWindow      time.Duration
	UploadRequests int
	UploadWindow   time.Duration

	// Retention bounds memory growth: windows idle longer than this are
	// evicted by the sweep.
	Retention     time.Duration
	SweepInterval time.Duration

	ExemptPrefixes []string
	UploadPrefixes []string
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig tunes one-time login codes. Pepper keys the code hash; the raw
// code is never stored.
type OTPConfig struct {
	Digits      int
	TTL         time.Duration
	MaxAttempts int

	// IssueLimit codes per IssueWindow per subject, tracked separately from
	// the code record itself.
	IssueLimit  int
	IssueWindow time.Duration

	Pepper       []byte
	RedisPrefix  string
	StoreTimeout time.Duration
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig tunes the bearer-token manager. Access and refresh tokens share
// the signing key and structure but carry distinct lifetimes.
type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	SigningKey []byte
	Issuer     string
	Leeway     time.Duration
}

/*
====================================
RESOLVER CONFIG
====================================
*/

// ResolverConfig lists the public path prefixes that skip authentication and
// bounds the account liveness lookup.
type ResolverConfig struct {
	PublicPrefixes []string
	LookupTimeout  time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous security-event dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		RateLimit: RateLimitConfig{
			APIRequests:    100,
			APIWindow:      time.Minute,
			UploadRequests: 30,
			UploadWindow:   time.Hour,
			Retention:      time.Hour,
			SweepInterval:  10 * time.Minute,
			ExemptPrefixes: []string{"/health", "/api-docs"},
			UploadPrefixes: []string{"/api/upload", "/api/diagnosis/upload"},
		},
		OTP: OTPConfig{
			Digits:       6,
			TTL:          5 * time.Minute,
			MaxAttempts:  3,
			IssueLimit:   3,
			IssueWindow:  time.Hour,
			RedisPrefix:  "ksotp",
			StoreTimeout: 2 * time.Second,
		},
		Token: TokenConfig{
			AccessTTL:  24 * time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
			Issuer:     "khetisahayak",
			Leeway:     30 * time.Second,
		},
		Resolver: ResolverConfig{
			PublicPrefixes: []string{"/health", "/api-docs", "/api/auth/"},
			LookupTimeout:  3 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.RateLimit.ExemptPrefixes = append([]string(nil), cfg.RateLimit.ExemptPrefixes...)
	out.RateLimit.UploadPrefixes = append([]string(nil), cfg.RateLimit.UploadPrefixes...)
	out.Resolver.PublicPrefixes = append([]string(nil), cfg.Resolver.PublicPrefixes...)
	out.OTP.Pepper = append([]byte(nil), cfg.OTP.Pepper...)
	out.Token.SigningKey = append([]byte(nil), cfg.Token.SigningKey...)
	return out
}

func validateConfig(cfg Config) error {
	if cfg.RateLimit.APIRequests <= 0 || cfg.RateLimit.APIWindow <= 0 {
		return errors.New("api rate limit profile must have positive values")
	}
	if cfg.RateLimit.UploadRequests <= 0 || cfg.RateLimit.UploadWindow <= 0 {
		return errors.New("upload rate limit profile must have positive values")
	}
	if cfg.RateLimit.Retention < cfg.RateLimit.APIWindow || cfg.RateLimit.Retention < cfg.RateLimit.UploadWindow {
		return errors.New("rate limit retention must cover the longest window")
	}
	if cfg.OTP.Digits < 4 || cfg.OTP.Digits > 10 {
		return errors.New("otp digits out of range")
	}
	if cfg.OTP.TTL <= 0 || cfg.OTP.MaxAttempts <= 0 {
		return errors.New("otp ttl and attempts must be positive")
	}
	if cfg.OTP.IssueLimit <= 0 || cfg.OTP.IssueWindow <= 0 {
		return errors.New("otp issue quota must be positive")
	}
	if len(cfg.OTP.Pepper) < 16 {
		return errors.New("otp pepper must be at least 16 bytes")
	}
	if len(cfg.Token.SigningKey) < 32 {
		return errors.New("token signing key must be at least 32 bytes")
	}
	if cfg.Token.AccessTTL <= 0 || cfg.Token.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if cfg.Token.RefreshTTL < cfg.Token.AccessTTL {
		return errors.New("refresh lifetime must not be shorter than access lifetime")
	}
	if cfg.Resolver.LookupTimeout <= 0 {
		return errors.New("resolver lookup timeout must be positive")
	}
	return nil
}
