package memberauth

import (
	"context"
	"fmt"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// PrincipalContextKey is the router Locals key the middleware stores the
// resolved principal under.
const PrincipalContextKey = "principal"

// Principal is the resolved identity of a request: nil means anonymous.
// It is reconstructed per request from a session or token and never
// persisted.
type Principal struct {
	UserID      string
	Username    string
	Email       string
	IsStaff     bool
	IsSuperuser bool
	Tier        MembershipTier
}

// Authenticated reports whether the request carries a resolved identity.
// Safe on a nil receiver, which represents the anonymous principal.
func (p *Principal) Authenticated() bool {
	return p != nil && p.UserID != ""
}

// Staff reports whether the principal carries the staff flag.
func (p *Principal) Staff() bool {
	return p != nil && p.IsStaff
}

// Superuser reports whether the principal carries the superuser flag.
func (p *Principal) Superuser() bool {
	return p != nil && p.IsSuperuser
}

// Member reports whether the principal holds any paid membership.
func (p *Principal) Member() bool {
	return p != nil && p.Tier != "" && p.Tier != TierNone
}

// TierAtLeast reports whether the principal's membership meets minTier.
func (p *Principal) TierAtLeast(minTier MembershipTier) bool {
	if p == nil {
		return false
	}
	return TierAtLeast(p.Tier, minTier)
}

// UserUUID parses the principal's subject into a UUID.
func (p *Principal) UserUUID() (uuid.UUID, error) {
	if p == nil {
		return uuid.Nil, ErrNotAuthenticated
	}
	return uuid.Parse(p.UserID)
}

func (p *Principal) String() string {
	if !p.Authenticated() {
		return "principal=<anonymous>"
	}
	return fmt.Sprintf(
		"principal=%s staff=%t superuser=%t tier=%s",
		p.UserID,
		p.IsStaff,
		p.IsSuperuser,
		p.Tier,
	)
}

var principalCtxKey = &contextKey{"principal"}

type contextKey struct {
	name string
}

// WithPrincipal sets the Principal in the given context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// PrincipalFromContext finds the principal from the standard context. The
// second return is false for requests that never went through the
// authentication middleware.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	raw, ok := ctx.Value(principalCtxKey).(*Principal)
	return raw, ok
}

// PrincipalFromRouter extracts the principal from the router context.
func PrincipalFromRouter(ctx router.Context) (*Principal, bool) {
	raw := ctx.Locals(PrincipalContextKey)
	if raw == nil {
		return nil, false
	}
	p, ok := raw.(*Principal)
	return p, ok
}
