package memberauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType tags a signed token with its intended use. A token of one type
// must never be accepted where another type is required.
type TokenType = string

const (
	// TokenTypeAccess authenticates API requests
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh can only be exchanged for a new access token
	TokenTypeRefresh TokenType = "refresh"
	// TokenTypeVerifyEmail proves ownership of an email address
	TokenTypeVerifyEmail TokenType = "verify_email"
)

// IsValidTokenType checks the type against the known set.
func IsValidTokenType(t TokenType) bool {
	switch t {
	case TokenTypeAccess, TokenTypeRefresh, TokenTypeVerifyEmail:
		return true
	default:
		return false
	}
}

// TokenClaims is the signed token payload: registered claims plus the type
// tag and the principal flags carried by access tokens.
type TokenClaims struct {
	jwt.RegisteredClaims
	TokenType TokenType      `json:"type"`
	Username  string         `json:"username,omitempty"`
	Email     string         `json:"email,omitempty"`
	Tier      MembershipTier `json:"tier,omitempty"`
	Staff     bool           `json:"is_staff,omitempty"`
	Superuser bool           `json:"is_superuser,omitempty"`
}

// UserID returns the subject claim.
func (c *TokenClaims) UserID() string {
	return c.RegisteredClaims.Subject
}

// Type returns the token type claim.
func (c *TokenClaims) Type() TokenType {
	return c.TokenType
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// Principal builds a request principal from access token claims.
func (c *TokenClaims) Principal() *Principal {
	return &Principal{
		UserID:      c.UserID(),
		Username:    c.Username,
		Email:       c.Email,
		IsStaff:     c.Staff,
		IsSuperuser: c.Superuser,
		Tier:        c.Tier,
	}
}
