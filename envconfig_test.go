package admission_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	admission "github.com/automotiv/khetisahayak-sub000"
)

func TestLoadEnvConfigDefaults(t *testing.T) {
	cfg, err := admission.LoadEnvConfig("")
	if err != nil {
		t.Fatalf("load with no overrides failed: %v", err)
	}

	if cfg.RateLimit.APIRequests != 100 || cfg.RateLimit.APIWindow != time.Minute {
		t.Fatalf("unexpected api profile: %+v", cfg.RateLimit)
	}
	if cfg.OTP.Digits != 6 || cfg.OTP.MaxAttempts != 3 {
		t.Fatalf("unexpected otp defaults: %+v", cfg.OTP)
	}
	if cfg.Token.Issuer != "khetisahayak" {
		t.Fatalf("unexpected issuer %q", cfg.Token.Issuer)
	}
}

func TestLoadEnvConfigOverrides(t *testing.T) {
	t.Setenv("KS_RATE_LIMIT_API_REQUESTS", "250")
	t.Setenv("KS_OTP_DIGITS", "8")
	t.Setenv("KS_OTP_TTL", "10m")
	t.Setenv("KS_TOKEN_SIGNING_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("KS_AUTH_PUBLIC_PREFIXES", "/health, /api/public/")
	t.Setenv("KS_METRICS_ENABLED", "false")

	cfg, err := admission.LoadEnvConfig("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.RateLimit.APIRequests != 250 {
		t.Fatalf("expected api quota override, got %d", cfg.RateLimit.APIRequests)
	}
	if cfg.OTP.Digits != 8 || cfg.OTP.TTL != 10*time.Minute {
		t.Fatalf("unexpected otp overrides: %+v", cfg.OTP)
	}
	if string(cfg.Token.SigningKey) != "0123456789abcdef0123456789abcdef" {
		t.Fatalf("signing key not loaded from environment")
	}
	if len(cfg.Resolver.PublicPrefixes) != 2 || cfg.Resolver.PublicPrefixes[1] != "/api/public/" {
		t.Fatalf("unexpected public prefixes: %v", cfg.Resolver.PublicPrefixes)
	}
	if cfg.Metrics.Enabled {
		t.Fatalf("metrics should be disabled by override")
	}
}

func TestLoadEnvConfigMalformedValuesFallBack(t *testing.T) {
	t.Setenv("KS_OTP_DIGITS", "not-a-number")
	t.Setenv("KS_OTP_TTL", "soon")
	t.Setenv("KS_AUDIT_ENABLED", "maybe")

	cfg, err := admission.LoadEnvConfig("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.OTP.Digits != 6 || cfg.OTP.TTL != 5*time.Minute {
		t.Fatalf("malformed values should keep defaults: %+v", cfg.OTP)
	}
	if !cfg.Audit.Enabled {
		t.Fatalf("malformed bool should keep the default")
	}
}

func TestLoadEnvConfigDotenvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "KS_TOKEN_ISSUER=khetisahayak-staging\nKS_OTP_ISSUE_LIMIT=5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	// Process environment wins over the file.
	t.Setenv("KS_OTP_ISSUE_LIMIT", "7")

	cfg, err := admission.LoadEnvConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Token.Issuer != "khetisahayak-staging" {
		t.Fatalf("expected issuer from file, got %q", cfg.Token.Issuer)
	}
	if cfg.OTP.IssueLimit != 7 {
		t.Fatalf("environment should override the file, got %d", cfg.OTP.IssueLimit)
	}
}

func TestLoadEnvConfigMissingFileIsIgnored(t *testing.T) {
	cfg, err := admission.LoadEnvConfig(filepath.Join(t.TempDir(), "does-not-exist.env"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.OTP.Digits != 6 {
		t.Fatalf("expected defaults, got %+v", cfg.OTP)
	}
}
