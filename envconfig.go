package admission

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadEnvConfig builds a Config from defaults overridden by a dotenv file (if
// envPath exists) and the process environment. All keys use the KS_ prefix,
// e.g. KS_TOKEN_SIGNING_KEY, KS_OTP_TTL=5m, KS_RATE_LIMIT_API_REQUESTS=100.
func LoadEnvConfig(envPath string) (Config, error) {
	k := koanf.New(".")

	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := k.Load(file.Provider(envPath), dotenv.Parser()); err != nil {
				return Config{}, fmt.Errorf("load env file %s: %w", envPath, err)
			}
		}
	}

	if err := k.Load(env.Provider("KS_", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	cfg := defaultConfig()

	cfg.RateLimit.APIRequests = envInt(k, "KS_RATE_LIMIT_API_REQUESTS", cfg.RateLimit.APIRequests)
	cfg.RateLimit.APIWindow = envDuration(k, "KS_RATE_LIMIT_API_WINDOW", cfg.RateLimit.APIWindow)
	cfg.RateLimit.UploadRequests = envInt(k, "KS_RATE_LIMIT_UPLOAD_REQUESTS", cfg.RateLimit.UploadRequests)
	cfg.RateLimit.UploadWindow = envDuration(k, "KS_RATE_LIMIT_UPLOAD_WINDOW", cfg.RateLimit.UploadWindow)
	cfg.RateLimit.Retention = envDuration(k, "KS_RATE_LIMIT_RETENTION", cfg.RateLimit.Retention)
	cfg.RateLimit.ExemptPrefixes = envStrings(k, "KS_RATE_LIMIT_EXEMPT_PREFIXES", cfg.RateLimit.ExemptPrefixes)
	cfg.RateLimit.UploadPrefixes = envStrings(k, "KS_RATE_LIMIT_UPLOAD_PREFIXES", cfg.RateLimit.UploadPrefixes)

	cfg.OTP.Digits = envInt(k, "KS_OTP_DIGITS", cfg.OTP.Digits)
	cfg.OTP.TTL = envDuration(k, "KS_OTP_TTL", cfg.OTP.TTL)
	cfg.OTP.MaxAttempts = envInt(k, "KS_OTP_MAX_ATTEMPTS", cfg.OTP.MaxAttempts)
	cfg.OTP.IssueLimit = envInt(k, "KS_OTP_ISSUE_LIMIT", cfg.OTP.IssueLimit)
	cfg.OTP.IssueWindow = envDuration(k, "KS_OTP_ISSUE_WINDOW", cfg.OTP.IssueWindow)
	cfg.OTP.RedisPrefix = envString(k, "KS_OTP_REDIS_PREFIX", cfg.OTP.RedisPrefix)
	cfg.OTP.StoreTimeout = envDuration(k, "KS_OTP_STORE_TIMEOUT", cfg.OTP.StoreTimeout)
	if pepper := envString(k, "KS_OTP_PEPPER", ""); pepper != "" {
		cfg.OTP.Pepper = []byte(pepper)
	}

	cfg.Token.AccessTTL = envDuration(k, "KS_TOKEN_ACCESS_TTL", cfg.Token.AccessTTL)
	cfg.Token.RefreshTTL = envDuration(k, "KS_TOKEN_REFRESH_TTL", cfg.Token.RefreshTTL)
	cfg.Token.Issuer = envString(k, "KS_TOKEN_ISSUER", cfg.Token.Issuer)
	cfg.Token.Leeway = envDuration(k, "KS_TOKEN_LEEWAY", cfg.Token.Leeway)
	if key := envString(k, "KS_TOKEN_SIGNING_KEY", ""); key != "" {
		cfg.Token.SigningKey = []byte(key)
	}

	cfg.Resolver.PublicPrefixes = envStrings(k, "KS_AUTH_PUBLIC_PREFIXES", cfg.Resolver.PublicPrefixes)
	cfg.Resolver.LookupTimeout = envDuration(k, "KS_AUTH_LOOKUP_TIMEOUT", cfg.Resolver.LookupTimeout)

	cfg.Audit.Enabled = envBool(k, "KS_AUDIT_ENABLED", cfg.Audit.Enabled)
	cfg.Audit.BufferSize = envInt(k, "KS_AUDIT_BUFFER_SIZE", cfg.Audit.BufferSize)
	cfg.Metrics.Enabled = envBool(k, "KS_METRICS_ENABLED", cfg.Metrics.Enabled)

	return cfg, nil
}

func envString(k *koanf.Koanf, key, fallback string) string {
	value := k.Get(key)
	if value == nil {
		return fallback
	}
	if s, ok := value.(string); ok && s != "" {
		return s
	}
	return fallback
}

func envInt(k *koanf.Koanf, key string, fallback int) int {
	s := envString(k, key, "")
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(k *koanf.Koanf, key string, fallback time.Duration) time.Duration {
	s := envString(k, key, "")
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return d
}

func envBool(k *koanf.Koanf, key string, fallback bool) bool {
	s := envString(k, key, "")
	if s == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return b
}

func envStrings(k *koanf.Koanf, key string, fallback []string) []string {
	s := envString(k, key, "")
	if s == "" {
		return fallback
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
