package memberauth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes returned alongside structured errors so API clients can branch
// without string matching.
const (
	TextCodeInvalidCreds          = "INVALID_CREDENTIALS"
	TextCodeNotAuthenticated      = "NOT_AUTHENTICATED"
	TextCodeInsufficientPrivilege = "INSUFFICIENT_PRIVILEGE"
	TextCodeTokenExpired          = "TOKEN_EXPIRED"
	TextCodeTokenMalformed        = "TOKEN_MALFORMED"
	TextCodeTokenWrongType        = "TOKEN_WRONG_TYPE"
	TextCodeWeakPassword          = "WEAK_PASSWORD"
	TextCodeSessionNotFound       = "SESSION_NOT_FOUND"
	TextCodeStoreUnavailable      = "SESSION_STORE_UNAVAILABLE"
	TextCodeTooManyAttempts       = "TOO_MANY_ATTEMPTS"
	TextCodeRateLimited           = "RATE_LIMITED"
	TextCodeAccountInactive       = "ACCOUNT_INACTIVE"
	TextCodeSignupDisabled        = "SIGNUP_DISABLED"
)

// ErrIdentityNotFound is returned when a user lookup comes back empty.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidCredentials covers every credential failure (wrong password, bad
// signature); the reason is deliberately not disclosed to the caller.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrNotAuthenticated is the guard rejection for anonymous principals.
var ErrNotAuthenticated = errors.New("authentication required", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeNotAuthenticated)

// ErrInsufficientPrivilege is the guard rejection for authenticated principals
// that lack the required role or tier.
var ErrInsufficientPrivilege = errors.New("insufficient privilege", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodeInsufficientPrivilege)

// ErrTokenExpired is returned for structurally valid but expired tokens.
var ErrTokenExpired = errors.New("authentication token expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed covers signature mismatch and undecodable payloads.
var ErrTokenMalformed = errors.New("invalid authentication token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrTokenWrongType is raised when the type claim does not match the expected
// token type, independent of signature validity.
var ErrTokenWrongType = errors.New("token type not accepted here", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenWrongType)

// ErrSessionNotFound means the opaque identifier resolved to nothing: expired,
// destroyed, or never issued.
var ErrSessionNotFound = errors.New("session not found", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeSessionNotFound)

// ErrSessionStoreUnavailable is a retryable infrastructure failure. It must
// never be collapsed into ErrSessionNotFound.
var ErrSessionStoreUnavailable = errors.New("session store unavailable", errors.CategoryOperation).
	WithCode(errors.CodeInternal).
	WithTextCode(TextCodeStoreUnavailable)

// ErrTooManyLoginAttempts is returned during the login cool-down window.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrRateLimited is returned by the request limiter once the window budget is
// spent.
var ErrRateLimited = errors.New("request rate limit exceeded", errors.CategoryRateLimit).
	WithTextCode(TextCodeRateLimited)

// ErrAccountInactive blocks authentication for deactivated accounts.
var ErrAccountInactive = errors.New("account is not active", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeAccountInactive)

// ErrSignupDisabled is returned when the signup feature gate is off.
var ErrSignupDisabled = errors.New("registration is currently disabled", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodeSignupDisabled)

// IsNotAuthenticated reports whether err is the "no principal" rejection, so
// callers can decide between a re-login redirect and an access-denied page.
func IsNotAuthenticated(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.Category == errors.CategoryAuth
}

// IsForbidden reports whether err is the "insufficient privilege" rejection.
func IsForbidden(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.Category == errors.CategoryAuthz
}

// IsRateLimited reports whether err is a spent rate limit budget, as opposed
// to a counter backend failure.
func IsRateLimited(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeRateLimited
}

// IsStoreUnavailable reports whether err is a retryable session store failure.
func IsStoreUnavailable(err error) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeStoreUnavailable
}

// IsTokenExpiredError will check for expired tokens, including errors coming
// from the underlying JWT library.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for malformed token errors.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
