package memberauth

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// DefaultSessionCookieName is used when IdentityConfig does not name one.
var DefaultSessionCookieName = "sid"

// IdentityConfig configures the identity resolution middleware.
type IdentityConfig struct {
	Sessions SessionStore
	Users    UserFinder
	Tokens   TokenIssuer

	// CookieName is the session cookie to check, defaults to
	// DefaultSessionCookieName.
	CookieName string
	// AuthScheme is the Authorization header scheme, defaults to "Bearer".
	AuthScheme string
	// ContextKey is the Locals key the principal is stored under, defaults
	// to PrincipalContextKey.
	ContextKey string
	// Filter skips the middleware for matching requests.
	Filter func(router.Context) bool
	// ErrorHandler receives infrastructure failures. Identity failures never
	// reach it, they resolve to an anonymous request instead.
	ErrorHandler router.ErrorHandler

	Logger Logger
}

// ResolveIdentity builds the middleware that attaches a Principal to every
// request it can identify.
//
// Resolution order:
//   - session cookie, resolved against the session store and the active
//     user record, with a sliding TTL refresh
//   - Authorization header with a bearer access token
//   - otherwise the request proceeds anonymous
//
// A stale cookie or a bad token downgrades the request to anonymous. A
// session store outage does not: that is an infrastructure failure and goes
// to the ErrorHandler, since treating it as a missing session would log
// everyone out.
func ResolveIdentity(config ...IdentityConfig) router.MiddlewareFunc {
	cfg := getIdentityConfig(config...)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			if sessionID := ctx.Cookies(cfg.CookieName); sessionID != "" {
				principal, err := cfg.resolveSession(ctx, sessionID)
				if err != nil {
					return cfg.ErrorHandler(ctx, err)
				}
				if principal != nil {
					attachPrincipal(ctx, cfg.ContextKey, principal)
					return ctx.Next()
				}
			}

			if raw := bearerToken(ctx, cfg.AuthScheme); raw != "" {
				if principal := cfg.resolveAccessToken(raw); principal != nil {
					attachPrincipal(ctx, cfg.ContextKey, principal)
				}
			}

			return ctx.Next()
		}
	}
}

func getIdentityConfig(config ...IdentityConfig) (cfg IdentityConfig) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Sessions == nil || cfg.Users == nil {
		panic("AUTH: identity middleware configuration: Sessions and Users are required.")
	}

	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionCookieName
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = PrincipalContextKey
	}

	if cfg.Logger == nil {
		cfg.Logger = defLogger{}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			var richErr *errors.Error
			if !errors.As(err, &richErr) {
				richErr = errors.Wrap(err, errors.CategoryInternal, "identity resolution failed")
			}
			return c.Status(richErr.Code).SendString(richErr.Message)
		}
	}

	return cfg
}

// resolveSession turns a session cookie into a principal. A nil principal
// with a nil error means the cookie did not resolve and the request should
// continue anonymous.
func (cfg IdentityConfig) resolveSession(ctx router.Context, sessionID string) (*Principal, error) {
	stdCtx := ctx.Context()

	userID, err := cfg.Sessions.Resolve(stdCtx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			cfg.Logger.Debug("session cookie is stale", "session_id", sessionID)
			return nil, nil
		}
		return nil, err
	}

	user, err := cfg.Users.GetActiveByID(stdCtx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			// the account went away or was deactivated, the session should
			// stop resolving with it
			if _, derr := cfg.Sessions.Destroy(stdCtx, sessionID); derr != nil {
				cfg.Logger.Warn("failed to destroy orphaned session", "error", derr)
			}
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load session user")
	}

	if _, err := cfg.Sessions.Refresh(stdCtx, sessionID); err != nil {
		// the identity already resolved, a failed TTL bump is not fatal
		cfg.Logger.Warn("failed to refresh session", "error", err)
	}

	return user.Principal(), nil
}

// resolveAccessToken validates a bearer token and requires the access type.
// Any failure resolves to anonymous.
func (cfg IdentityConfig) resolveAccessToken(raw string) *Principal {
	if cfg.Tokens == nil {
		return nil
	}

	claims, err := cfg.Tokens.Validate(raw)
	if err != nil {
		cfg.Logger.Debug("bearer token rejected", "error", err)
		return nil
	}

	if err := cfg.Tokens.VerifyType(claims, TokenTypeAccess); err != nil {
		cfg.Logger.Debug("bearer token has wrong type", "type", claims.Type())
		return nil
	}

	return claims.Principal()
}

func attachPrincipal(ctx router.Context, contextKey string, principal *Principal) {
	ctx.Locals(contextKey, principal)
	ctx.SetContext(WithPrincipal(ctx.Context(), principal))
}

func bearerToken(ctx router.Context, authScheme string) string {
	header := ctx.GetString(router.HeaderAuthorization, "")
	if header == "" {
		return ""
	}

	l := len(authScheme)
	if len(header) > l+1 && strings.EqualFold(header[:l], authScheme) {
		return strings.TrimSpace(header[l:])
	}

	return ""
}
