package admission_test

import (
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	admission "github.com/automotiv/khetisahayak-sub000"
)

func validTestConfig() admission.Config {
	cfg := admission.New().Config()
	cfg.OTP.Pepper = []byte("0123456789abcdef")
	cfg.Token.SigningKey = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func TestBuildRequiresCollaborators(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	if _, err := admission.New().WithConfig(validTestConfig()).Build(); err == nil {
		t.Fatalf("build without redis should fail")
	}

	if _, err := admission.New().WithConfig(validTestConfig()).WithRedis(client).Build(); err == nil {
		t.Fatalf("build without account provider should fail")
	}
}

func TestBuildRejectsBadConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	tests := []struct {
		name    string
		mutate  func(*admission.Config)
		wantErr string
	}{
		{"short pepper", func(c *admission.Config) { c.OTP.Pepper = []byte("short") }, "pepper"},
		{"short signing key", func(c *admission.Config) { c.Token.SigningKey = []byte("short") }, "signing key"},
		{"zero api quota", func(c *admission.Config) { c.RateLimit.APIRequests = 0 }, "rate limit"},
		{"otp digits too small", func(c *admission.Config) { c.OTP.Digits = 3 }, "digits"},
		{"refresh shorter than access", func(c *admission.Config) {
			c.Token.RefreshTTL = c.Token.AccessTTL / 2
		}, "refresh"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)

			_, err := admission.New().
				WithConfig(cfg).
				WithRedis(client).
				WithAccountProvider(newFakeAccounts()).
				Build()
			if err == nil {
				t.Fatalf("expected build to fail")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestBuilderBuildsOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	builder := admission.New().
		WithConfig(validTestConfig()).
		WithRedis(client).
		WithAccountProvider(newFakeAccounts())

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	defer engine.Close()

	if _, err := builder.Build(); err == nil {
		t.Fatalf("second build should fail")
	}
}

func TestConfigIsCopied(t *testing.T) {
	cfg := validTestConfig()
	builder := admission.New().WithConfig(cfg)

	// Mutating the caller's copy after WithConfig must not leak in.
	cfg.Resolver.PublicPrefixes[0] = "/mutated"
	cfg.OTP.Pepper[0] = 'X'

	got := builder.Config()
	if got.Resolver.PublicPrefixes[0] == "/mutated" {
		t.Fatalf("public prefixes should be cloned")
	}
	if got.OTP.Pepper[0] == 'X' {
		t.Fatalf("pepper should be cloned")
	}
}
