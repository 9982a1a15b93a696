package admission

import (
	"errors"

	"github.com/automotiv/khetisahayak-sub000/internal/limiters"
	"github.com/automotiv/khetisahayak-sub000/internal/rate"
	"github.com/automotiv/khetisahayak-sub000/internal/stores"
	"github.com/automotiv/khetisahayak-sub000/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until the first Engine method call.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	accounts  AccountProvider
	auditSink AuditSink
	clock     Clock

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. Zero sub-values are NOT
// re-defaulted; start from [LoadEnvConfig] or mutate the default via
// WithConfig(New().Config()) style helpers when partial overrides are needed.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// Config returns a copy of the builder's current configuration.
func (b *Builder) Config() Config {
	return cloneConfig(b.config)
}

// WithRedis sets the client backing the OTP store and issue quota.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAccountProvider sets the account lookup collaborator.
func (b *Builder) WithAccountProvider(p AccountProvider) *Builder {
	b.accounts = p
	return b
}

// WithAuditSink sets where security events are delivered.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source for every windowed decision.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// Build validates the configuration and wires the engine. A Builder builds
// at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.accounts == nil {
		return nil, errors.New("account provider is required")
	}

	tokens, err := token.NewManager(token.Config{
		AccessTTL:  b.config.Token.AccessTTL,
		RefreshTTL: b.config.Token.RefreshTTL,
		SigningKey: b.config.Token.SigningKey,
		Issuer:     b.config.Token.Issuer,
		Leeway:     b.config.Token.Leeway,
		Now:        b.clock,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:   b.config,
		limiter:  rate.New(b.config.RateLimit.Retention, b.config.RateLimit.SweepInterval),
		otpStore: stores.NewOtpStore(b.redis, b.config.OTP.RedisPrefix),
		issueLimiter: limiters.NewIssueLimiter(b.redis, limiters.IssueConfig{
			Window:    b.config.OTP.IssueWindow,
			MaxIssues: b.config.OTP.IssueLimit,
		}),
		tokens:   tokens,
		accounts: b.accounts,
		audit:    newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:  NewMetrics(b.config.Metrics),
		now:      b.clock,
	}

	b.built = true
	return engine, nil
}
