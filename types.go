package admission

import "context"

// AccountStatus represents the lifecycle state of a Kheti Sahayak account.
type AccountStatus uint8

const (
	// AccountActive is the only status that resolves to an identity.
	AccountActive AccountStatus = iota
	// AccountPendingVerification marks an account that registered but never
	// completed its first OTP login.
	AccountPendingVerification
	// AccountDisabled marks an account switched off by an administrator.
	AccountDisabled
	// AccountLocked marks an account frozen after abuse reports.
	AccountLocked
	// AccountDeleted marks a soft-deleted account.
	AccountDeleted
)

// AccountRecord is the denormalized account snapshot returned by
// [AccountProvider]. Role, name, district, and locale are copied into
// access-token claims at issue time and go stale until the next issue.
type AccountRecord struct {
	Subject  string
	Name     string
	Role     string
	District string
	Locale   string
	Status   AccountStatus
}

// AccountProvider is the interface callers must implement to connect the
// engine to their user database. Lookups are bounded by
// [ResolverConfig.LookupTimeout]; a slow or failing provider degrades the
// request to anonymous rather than blocking it.
type AccountProvider interface {
	GetAccountBySubject(ctx context.Context, subject string) (AccountRecord, error)
}

// AuthContext is the per-request resolution result: either anonymous or an
// identity with a role set. It is never persisted.
type AuthContext struct {
	Subject string
	Roles   []string
}

// Anonymous is the zero resolution result.
var Anonymous = AuthContext{}

// IsAnonymous reports whether the context carries no verified identity.
func (c AuthContext) IsAnonymous() bool {
	return c.Subject == ""
}

// HasRole reports whether the resolved identity carries the given role.
func (c AuthContext) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenPair is returned by CompleteLogin and Refresh. ExpiresIn is the access
// token lifetime in seconds, matching the login response shape of the HTTP API.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}
