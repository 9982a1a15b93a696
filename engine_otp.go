package admission

import (
	"context"
	"errors"

	"github.com/automotiv/khetisahayak-sub000/internal"
	"github.com/automotiv/khetisahayak-sub000/internal/limiters"
	"github.com/automotiv/khetisahayak-sub000/internal/stores"
	"github.com/automotiv/khetisahayak-sub000/token"
)

// IssueOtp generates a fresh one-time code for the subject, overwriting any
// outstanding code. The returned code goes to the SMS/email collaborator;
// it is never stored or logged in the clear. Fails with [ErrOtpRateLimited]
// when the subject's issue quota for the window is spent.
func (e *Engine) IssueOtp(ctx context.Context, subject string) (string, error) {
	if e == nil || e.otpStore == nil {
		return "", ErrEngineNotReady
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.OTP.StoreTimeout)
	defer cancel()

	ip := ClientIPFromContext(ctx)

	if err := e.issueLimiter.CheckIssue(ctx, subject); err != nil {
		if errors.Is(err, limiters.ErrIssueRateLimited) {
			e.metricInc(MetricOtpIssueRateLimited)
			e.auditEmit(AuditEvent{EventType: EventOtpIssueRateLimited, Subject: subject, IP: ip})
			return "", ErrOtpRateLimited
		}
		return "", ErrOtpUnavailable
	}

	code, err := internal.NewOTP(e.config.OTP.Digits)
	if err != nil {
		return "", err
	}

	now := e.clock()
	record := &stores.OtpRecord{
		CodeHash:  internal.HashOTP(e.config.OTP.Pepper, subject, code),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(e.config.OTP.TTL).Unix(),
	}
	if err := e.otpStore.Save(ctx, subject, record, e.config.OTP.TTL); err != nil {
		return "", ErrOtpUnavailable
	}

	e.metricInc(MetricOtpIssued)
	e.auditEmit(AuditEvent{EventType: EventOtpIssued, Subject: subject, IP: ip, Success: true})

	return code, nil
}

// VerifyOtp checks a candidate code for the subject. It fails closed and
// never errors: a missing, expired, exhausted, or mismatched record and an
// unreachable store all report false. On success the code is consumed and
// cannot be replayed.
func (e *Engine) VerifyOtp(ctx context.Context, subject, candidateCode string) bool {
	if e == nil || e.otpStore == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.OTP.StoreTimeout)
	defer cancel()

	hash := internal.HashOTP(e.config.OTP.Pepper, subject, candidateCode)
	_, err := e.otpStore.Consume(ctx, subject, hash, e.config.OTP.MaxAttempts, e.clock())
	if err != nil {
		e.metricInc(MetricOtpVerifyFailure)
		e.auditEmit(AuditEvent{
			EventType: EventOtpVerifyFailed,
			Subject:   subject,
			IP:        ClientIPFromContext(ctx),
			Error:     err.Error(),
		})
		return false
	}

	e.metricInc(MetricOtpVerifySuccess)
	e.auditEmit(AuditEvent{EventType: EventOtpVerified, Subject: subject, IP: ClientIPFromContext(ctx), Success: true})
	return true
}

// RemainingAttempts reports how many verify attempts the subject has left,
// or the full budget when no code is outstanding. Read-only.
func (e *Engine) RemainingAttempts(ctx context.Context, subject string) int {
	if e == nil || e.otpStore == nil {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.OTP.StoreTimeout)
	defer cancel()

	record, err := e.otpStore.Peek(ctx, subject, e.clock())
	if err != nil {
		return e.config.OTP.MaxAttempts
	}

	remaining := e.config.OTP.MaxAttempts - int(record.Attempts)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// CompleteLogin verifies the subject's code and, on success, issues a token
// pair carrying the account's profile snapshot. All verification failure
// modes collapse to [ErrOtpInvalid] so the caller can show one generic
// message.
func (e *Engine) CompleteLogin(ctx context.Context, subject, candidateCode string) (TokenPair, error) {
	if e == nil || e.tokens == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	if !e.VerifyOtp(ctx, subject, candidateCode) {
		return TokenPair{}, ErrOtpInvalid
	}

	account, err := e.lookupAccount(ctx, subject)
	if err != nil {
		return TokenPair{}, err
	}

	return e.issuePair(subject, account)
}

func (e *Engine) issuePair(subject string, account AccountRecord) (TokenPair, error) {
	access, err := e.tokens.IssueAccess(subject, token.Profile{
		Role:     account.Role,
		Name:     account.Name,
		District: account.District,
		Locale:   account.Locale,
	})
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := e.tokens.IssueRefresh(subject)
	if err != nil {
		return TokenPair{}, err
	}

	e.metricInc(MetricTokenIssued)

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(e.config.Token.AccessTTL.Seconds()),
	}, nil
}
