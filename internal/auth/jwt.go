// internal/auth/jwt.go
//
// Bearer-credential issuing and verification.
//
// Context
// -------
// Atrium identifies a caller by a signed HS256 token whose claims carry
// the tenant code, the username, and a role marker.  The core only ever
// needs "given a verified credential, extract a tenant code string"; all
// tenant isolation downstream keys off that claim.
//
// Revocation lives in the control registry's credential blacklist, not
// here: middleware consults the blacklist before signature verification,
// so a revoked token is dead even while its signature is valid.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL applies when the config leaves auth.token_ttl unset.
const DefaultTokenTTL = 24 * time.Hour

// Errors surfaced to the middleware layer.
var (
	ErrInvalidToken = errors.New("invalid credential")
	ErrExpiredToken = errors.New("expired credential")
)

// Claims is the verified payload of one bearer credential.
type Claims struct {
	CompanyCode string `json:"company_code"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies credentials.  Safe for concurrent use.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager builds a Manager from the resolved signing secret.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Generate issues a credential for one user of one tenant.
func (m *Manager) Generate(companyCode, username, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		CompanyCode: companyCode,
		Username:    username,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "atrium",
			Subject:   username,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses and validates a credential, rejecting any signing method
// other than HMAC.
func (m *Manager) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return m.secret, nil
		})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.CompanyCode == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TTL reports the configured credential lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }
