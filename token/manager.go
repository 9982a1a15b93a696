// Package token issues and validates the stateless bearer credentials of the
// Kheti Sahayak API. Tokens are HMAC-signed (HS256), never stored server-side,
// and carry a denormalized profile snapshot so request handling needs no
// database round-trip.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token-use discriminators. Access and refresh tokens share structure and
// signing key; the use claim keeps one from standing in for the other.
const (
	UseAccess  = "access"
	UseRefresh = "refresh"
)

var (
	ErrInvalid     = errors.New("invalid token")
	ErrUseMismatch = errors.New("token use mismatch")
)

// Config defines the manager's signing key, lifetimes, and clock. Configure
// once at startup and treat as immutable.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	SigningKey []byte
	Issuer     string
	Leeway     time.Duration

	// Now overrides the validation and issuance clock; nil means time.Now.
	Now func() time.Time
}

// Profile is the point-in-time account snapshot denormalized into access
// claims. Callers must expect it to go stale relative to the account store.
type Profile struct {
	Role     string
	Name     string
	District string
	Locale   string
	// Ext is the small open-extension escape hatch; everything with a known
	// meaning gets a named field instead.
	Ext map[string]string
}

// Claims is the closed claim schema for both token classes.
type Claims struct {
	Role     string            `json:"role,omitempty"`
	Name     string            `json:"name,omitempty"`
	District string            `json:"district,omitempty"`
	Locale   string            `json:"locale,omitempty"`
	Ext      map[string]string `json:"ext,omitempty"`
	Use      string            `json:"use"`
	jwt.RegisteredClaims
}

// Manager issues and validates tokens. Stateless beyond its config; safe for
// unlimited concurrent use.
type Manager struct {
	config Config
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("refresh TTL shorter than access TTL")
	}
	if len(cfg.SigningKey) < 32 {
		return nil, errors.New("hs256 signing key too short")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Manager{config: cfg}, nil
}

// IssueAccess signs a short-lived access token carrying the profile snapshot.
func (m *Manager) IssueAccess(subject string, profile Profile) (string, error) {
	claims := Claims{
		Role:     profile.Role,
		Name:     profile.Name,
		District: profile.District,
		Locale:   profile.Locale,
		Ext:      profile.Ext,
		Use:      UseAccess,
	}
	return m.sign(subject, claims, m.config.AccessTTL)
}

// IssueRefresh signs a longer-lived refresh token carrying only the subject.
func (m *Manager) IssueRefresh(subject string) (string, error) {
	return m.sign(subject, Claims{Use: UseRefresh}, m.config.RefreshTTL)
}

func (m *Manager) sign(subject string, claims Claims, ttl time.Duration) (string, error) {
	now := m.config.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    m.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.SigningKey)
}

// ValidateAccess parses and verifies an access token.
func (m *Manager) ValidateAccess(tokenStr string) (*Claims, error) {
	return m.validate(tokenStr, UseAccess)
}

// ValidateRefresh parses and verifies a refresh token.
func (m *Manager) ValidateRefresh(tokenStr string) (*Claims, error) {
	return m.validate(tokenStr, UseRefresh)
}

func (m *Manager) validate(tokenStr, use string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.config.Now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.SigningKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.Use != use {
		return nil, ErrUseMismatch
	}
	if claims.Subject == "" {
		return nil, ErrInvalid
	}

	return claims, nil
}

// ExtractSubject decodes the subject claim without verifying the signature.
// For routing and logging only; never an authorization input.
func (m *Manager) ExtractSubject(tokenStr string) (string, error) {
	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(tokenStr, &Claims{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalid
	}
	return claims.Subject, nil
}
