package memberauth

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-router"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// SessionStore maps opaque session identifiers to user identities in an
// external key-value store. Store unavailability surfaces as a distinct
// error, never as an absent session.
type SessionStore interface {
	Create(ctx context.Context, userID string) (string, error)
	Resolve(ctx context.Context, sessionID string) (string, error)
	Refresh(ctx context.Context, sessionID string) (bool, error)
	Destroy(ctx context.Context, sessionID string) (bool, error)
}

// TokenIssuer mints and validates signed, time-limited tokens carrying an
// explicit type claim.
type TokenIssuer interface {
	Issue(subject string, tokenType TokenType, ttl time.Duration) (string, error)
	IssueForUser(user *User, tokenType TokenType, ttl time.Duration) (string, error)
	Validate(raw string) (*TokenClaims, error)
	VerifyType(claims *TokenClaims, expected TokenType) error
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string, opts ...LoginOption) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	IssueTokenPair(ctx context.Context, identifier, password string) (*TokenPair, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
}

// HTTPAuthenticator is the browser-facing login surface, handling the
// session cookie alongside the credential exchange.
type HTTPAuthenticator interface {
	Login(c router.Context, payload LoginPayload) error
	Logout(c router.Context) error
	SetRedirect(c router.Context)
	GetRedirect(c router.Context, def ...string) string
	GetRedirectOrDefault(c router.Context) string
}

// UserFinder is the read-only user lookup surface the middleware consumes.
type UserFinder interface {
	GetActiveByID(ctx context.Context, id string) (*User, error)
}

type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
	GetExtendedSession() bool
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetVerifyTokenTTL() time.Duration
	GetSessionCookieName() string
	GetSessionTTL() time.Duration
	GetExtendedSessionTTL() time.Duration
	GetStoreTimeout() time.Duration
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
}

// Mailer consumes verification tokens to build outbound links. The email
// transport itself lives outside this package.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, user *User, token string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
