package admission

import "errors"

var (
	// ErrOtpRateLimited is returned by IssueOtp when the subject has exhausted its
	// code-issue quota for the current window.
	ErrOtpRateLimited = errors.New("otp issue rate limited")
	// ErrOtpInvalid is the single collapsed failure returned by CompleteLogin for a
	// missing, expired, exhausted, or mismatched code.
	ErrOtpInvalid = errors.New("invalid or expired code")
	// ErrOtpUnavailable is returned when the code store cannot be reached.
	ErrOtpUnavailable = errors.New("otp backend unavailable")
	// ErrTokenInvalid covers bad signature, malformed payload, and expiry alike.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrRefreshInvalid is returned by Refresh for anything other than a live,
	// well-signed refresh token.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrAccountInactive is returned when a subject resolves to an account that is
	// not in the active state.
	ErrAccountInactive = errors.New("account inactive")
	// ErrAccountUnavailable is returned when the account provider fails or times out.
	ErrAccountUnavailable = errors.New("account backend unavailable")
	// ErrEngineNotReady is returned by Engine methods before Build has run.
	ErrEngineNotReady = errors.New("engine not initialized")
)
