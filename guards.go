package memberauth

import (
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// Guard is a predicate over the resolved principal. It returns nil to pass
// the request on, ErrNotAuthenticated when no principal is present, or a
// forbidden error when the principal lacks the required flags. The two
// rejection kinds stay distinguishable so callers can choose between a
// re-login redirect and an access-denied page.
type Guard func(p *Principal) error

// Chain composes guards by sequential delegation: the first failing guard
// rejects the request, later guards never run.
func Chain(guards ...Guard) Guard {
	return func(p *Principal) error {
		for _, guard := range guards {
			if guard == nil {
				continue
			}
			if err := guard(p); err != nil {
				return err
			}
		}
		return nil
	}
}

// RequireAuthenticated rejects anonymous principals.
func RequireAuthenticated(p *Principal) error {
	if !p.Authenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// RequireStaff rejects anonymous principals first, then principals without
// the staff flag.
func RequireStaff(p *Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}

	if !p.Staff() {
		return forbidden("staff access required")
	}
	return nil
}

// RequireSuperuser rejects everything but superuser principals.
func RequireSuperuser(p *Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}

	if !p.Superuser() {
		return forbidden("superuser access required")
	}
	return nil
}

// RequireMembership rejects principals without any paid membership tier.
func RequireMembership(p *Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}

	if !p.Member() {
		return forbidden("membership required")
	}
	return nil
}

// RequireMembershipAtLeast delegates to RequireMembership and then checks
// the tier against the hierarchy.
func RequireMembershipAtLeast(minTier MembershipTier) Guard {
	return func(p *Principal) error {
		if err := RequireMembership(p); err != nil {
			return err
		}

		if !p.TierAtLeast(minTier) {
			return forbidden("membership tier " + minTier + " required")
		}
		return nil
	}
}

// Protect adapts a guard chain into route middleware. Rejections are handed
// to the error handler, which maps them to status codes at the boundary.
func Protect(errorHandler router.ErrorHandler, guards ...Guard) router.MiddlewareFunc {
	chain := Chain(guards...)
	if errorHandler == nil {
		errorHandler = defaultGuardErrorHandler
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			principal, _ := PrincipalFromRouter(ctx)
			if err := chain(principal); err != nil {
				return errorHandler(ctx, err)
			}
			return next(ctx)
		}
	}
}

func defaultGuardErrorHandler(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "authentication required").
			WithCode(errors.CodeUnauthorized)
	}

	status := http.StatusUnauthorized
	if IsForbidden(richErr) {
		status = http.StatusForbidden
	}

	return ctx.Status(status).SendString(richErr.Message)
}

func forbidden(message string) error {
	return errors.New(message, errors.CategoryAuthz).
		WithCode(errors.CodeForbidden).
		WithTextCode(TextCodeInsufficientPrivilege)
}
