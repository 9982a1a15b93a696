// Package limiters holds the Redis-backed quota counters that sit in front of
// code issuance. These are distinct from the in-process admission limiter:
// issue quotas must hold across every backend instance, so they live in Redis.
package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrIssueRateLimited        = errors.New("otp issue rate limited")
	ErrIssueLimiterUnavailable = errors.New("otp issue limiter unavailable")
)

// IssueConfig bounds how many codes one subject may request per window.
type IssueConfig struct {
	Window    time.Duration
	MaxIssues int
}

// IssueLimiter enforces the per-subject code-issue quota with fixed-window
// Redis counters: INCR plus EXPIRE on the first hit in the window.
type IssueLimiter struct {
	redis  redis.UniversalClient
	config IssueConfig
}

func NewIssueLimiter(redisClient redis.UniversalClient, cfg IssueConfig) *IssueLimiter {
	return &IssueLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckIssue charges one issuance for the subject and returns an error if the
// quota is exceeded. The rejected issuance stays charged against the window.
func (l *IssueLimiter) CheckIssue(ctx context.Context, subject string) error {
	count, err := l.redis.Incr(ctx, issueKey(subject)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIssueLimiterUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, issueKey(subject), l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrIssueLimiterUnavailable, err)
		}
	}

	if count > int64(l.config.MaxIssues) {
		return ErrIssueRateLimited
	}

	return nil
}

func issueKey(subject string) string {
	return "ksoq:" + subject
}
