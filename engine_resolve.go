package admission

import (
	"context"
	"strings"
)

const bearerPrefix = "Bearer "

// Resolve classifies one inbound request as anonymous or identified. It
// never rejects and never errors: public routes, missing or malformed
// headers, invalid tokens, and failed or timed-out account lookups all
// degrade to [Anonymous], leaving the 401/403 decision to downstream
// authorization.
func (e *Engine) Resolve(ctx context.Context, requestPath, authorizationHeader string) AuthContext {
	if e == nil || e.tokens == nil {
		return Anonymous
	}

	for _, prefix := range e.config.Resolver.PublicPrefixes {
		if strings.HasPrefix(requestPath, prefix) {
			return Anonymous
		}
	}

	tokenStr, ok := bearerToken(authorizationHeader)
	if !ok {
		e.metricInc(MetricResolveAnonymous)
		return Anonymous
	}

	claims, err := e.tokens.ValidateAccess(tokenStr)
	if err != nil {
		e.metricInc(MetricTokenRejected)
		e.metricInc(MetricResolveAnonymous)
		e.auditEmit(AuditEvent{
			EventType: EventTokenRejected,
			Route:     requestPath,
			IP:        ClientIPFromContext(ctx),
			Error:     err.Error(),
		})
		return Anonymous
	}

	// Claims are a stale snapshot; confirm the account is still live before
	// granting an identity.
	account, err := e.lookupAccount(ctx, claims.Subject)
	if err != nil {
		e.metricInc(MetricResolveAnonymous)
		return Anonymous
	}

	e.metricInc(MetricResolveIdentity)
	return AuthContext{
		Subject: claims.Subject,
		Roles:   []string{account.Role},
	}
}

// Refresh exchanges a live refresh token for a fresh pair, re-reading the
// account so new access claims carry a current profile snapshot.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if e == nil || e.tokens == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	claims, err := e.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.auditEmit(AuditEvent{
			EventType: EventRefreshRejected,
			IP:        ClientIPFromContext(ctx),
			Error:     err.Error(),
		})
		return TokenPair{}, ErrRefreshInvalid
	}

	account, err := e.lookupAccount(ctx, claims.Subject)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return TokenPair{}, err
	}

	pair, err := e.issuePair(claims.Subject, account)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return TokenPair{}, err
	}

	e.metricInc(MetricRefreshSuccess)
	return pair, nil
}

// lookupAccount fetches the account within the configured timeout and
// requires it to be active. Timeouts and provider failures surface as
// [ErrAccountUnavailable]; every other non-active state as
// [ErrAccountInactive].
func (e *Engine) lookupAccount(ctx context.Context, subject string) (AccountRecord, error) {
	if e.accounts == nil {
		return AccountRecord{}, ErrAccountUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Resolver.LookupTimeout)
	defer cancel()

	account, err := e.accounts.GetAccountBySubject(ctx, subject)
	if err != nil {
		e.metricInc(MetricAccountLookupFailure)
		e.auditEmit(AuditEvent{
			EventType: EventAccountLookupFailed,
			Subject:   subject,
			Error:     err.Error(),
		})
		return AccountRecord{}, ErrAccountUnavailable
	}

	if account.Status != AccountActive {
		e.auditEmit(AuditEvent{
			EventType: EventAccountInactive,
			Subject:   subject,
		})
		return AccountRecord{}, ErrAccountInactive
	}

	return account, nil
}

func bearerToken(value string) (string, bool) {
	if !strings.HasPrefix(value, bearerPrefix) {
		return "", false
	}

	token := value[len(bearerPrefix):]
	if token == "" {
		return "", false
	}

	return token, true
}
