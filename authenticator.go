package memberauth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// UserTracker is a store we can use to retrieve users
type UserTracker interface {
	GetByLoginIdentifier(ctx context.Context, identifier string) (*User, error)
	GetActiveByID(ctx context.Context, id string) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// MaxLoginAttempts is the maximun number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// Auther authenticates credentials against the user store and exchanges them
// for sessions (browser clients) or token pairs (API clients).
type Auther struct {
	store       UserTracker
	sessions    SessionStore
	tokens      TokenIssuer
	accessTTL   time.Duration
	refreshTTL  time.Duration
	extendedTTL time.Duration
	logger      Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store UserTracker, sessions SessionStore, tokens TokenIssuer, opts Config) *Auther {
	return &Auther{
		store:       store,
		sessions:    sessions,
		tokens:      tokens,
		accessTTL:   opts.GetAccessTokenTTL(),
		refreshTTL:  opts.GetRefreshTokenTTL(),
		extendedTTL: opts.GetExtendedSessionTTL(),
		logger:      defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// TokenIssuer returns the TokenIssuer instance used by this Authenticator
func (s *Auther) TokenIssuer() TokenIssuer {
	return s.tokens
}

type loginSettings struct {
	extended bool
}

// LoginOption tweaks a single login call.
type LoginOption func(*loginSettings)

// WithExtendedSession requests the long lived session TTL, for
// "remember me" logins.
func WithExtendedSession() LoginOption {
	return func(o *loginSettings) {
		o.extended = true
	}
}

// Login verifies the credentials and creates a server side session for the
// user. The opaque session id goes back to the caller, never the user id.
func (s *Auther) Login(ctx context.Context, identifier, password string, opts ...LoginOption) (*LoginResult, error) {
	settings := &loginSettings{}
	for _, opt := range opts {
		if opt != nil {
			opt(settings)
		}
	}

	user, err := s.verifyCredentials(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify credentials error", "error", err)
		return nil, err
	}

	sessionID, err := s.createSession(ctx, user.ID.String(), settings.extended)
	if err != nil {
		s.logger.Error("Login session create error", "error", err)
		return nil, err
	}

	return &LoginResult{
		SessionID: sessionID,
		User:      user,
	}, nil
}

// Logout destroys the session. Destroying a session that already expired is
// not an error.
func (s *Auther) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if _, err := s.sessions.Destroy(ctx, sessionID); err != nil {
		s.logger.Error("Logout session destroy error", "error", err)
		return err
	}

	return nil
}

// IssueTokenPair verifies the credentials and mints an access plus refresh
// token pair for API clients.
func (s *Auther) IssueTokenPair(ctx context.Context, identifier, password string) (*TokenPair, error) {
	user, err := s.verifyCredentials(ctx, identifier, password)
	if err != nil {
		s.logger.Error("IssueTokenPair verify credentials error", "error", err)
		return nil, err
	}

	access, err := s.tokens.IssueForUser(user, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.Issue(user.ID.String(), TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// RefreshAccessToken exchanges a valid refresh token for a fresh access
// token. The subject must still resolve to an active user.
func (s *Auther) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Validate(refreshToken)
	if err != nil {
		s.logger.Error("RefreshAccessToken validation failed", "error", err)
		return "", err
	}

	if err := s.tokens.VerifyType(claims, TokenTypeRefresh); err != nil {
		s.logger.Error("RefreshAccessToken wrong token type", "type", claims.Type())
		return "", err
	}

	user, err := s.store.GetActiveByID(ctx, claims.UserID())
	if err != nil {
		if errors.IsNotFound(err) {
			return "", ErrAccountInactive
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during refresh")
	}

	return s.tokens.IssueForUser(user, TokenTypeAccess, s.accessTTL)
}

func (s *Auther) createSession(ctx context.Context, userID string, extended bool) (string, error) {
	type ttlCreator interface {
		CreateWithTTL(ctx context.Context, userID string, ttl time.Duration) (string, error)
	}

	if extended && s.extendedTTL > 0 {
		if store, ok := s.sessions.(ttlCreator); ok {
			return store.CreateWithTTL(ctx, userID, s.extendedTTL)
		}
	}

	return s.sessions.Create(ctx, userID)
}

// verifyCredentials will find the user, compare the password, and enforce
// the attempt cool down window.
func (s *Auther) verifyCredentials(ctx context.Context, identifier, password string) (*User, error) {
	user, err := s.store.GetByLoginIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ensureAuthenticatableUser(user); err != nil {
		return nil, err
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			user.LoginAttempts = 0
		}
	}

	// if we have too many attempts in the given window, cool off!
	if user.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		// We have to increment the login_attempts counter and login_attempt_at
		if err2 := s.store.TrackAttemptedLogin(ctx, user); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrInvalidCredentials
	}

	// reset the login_attempts counter and login_attempt_at
	if err := s.store.TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Error("failed to track successful login", "error", err)
	}

	return user, nil
}

func ensureAuthenticatableUser(user *User) error {
	if user == nil {
		return ErrIdentityNotFound
	}

	if !user.IsActive {
		return ErrAccountInactive
	}

	return nil
}
