package memberauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MembershipTier is the organizational membership level
type MembershipTier = string

const (
	// TierNone marks accounts without a paid membership
	TierNone MembershipTier = "none"
	// TierCommunity is the entry membership level
	TierCommunity MembershipTier = "community"
	// TierSupporting is the mid membership level
	TierSupporting MembershipTier = "supporting"
	// TierSustaining is the top membership level
	TierSustaining MembershipTier = "sustaining"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string         `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string         `bun:"password_hash" json:"-"`
	Tier           MembershipTier `bun:"membership_tier,notnull" json:"membership_tier,omitempty"`
	IsStaff        bool           `bun:"is_staff" json:"is_staff,omitempty"`
	IsSuperuser    bool           `bun:"is_superuser" json:"is_superuser,omitempty"`
	IsActive       bool           `bun:"is_active" json:"is_active,omitempty"`
	EmailVerified  bool           `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	LoginAttempts  int            `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time     `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time     `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	Metadata       map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// EnsureTier normalizes an empty tier to TierNone.
func (u *User) EnsureTier() {
	if u.Tier == "" {
		u.Tier = TierNone
	}
}

// Principal builds the request principal for this user.
func (u *User) Principal() *Principal {
	if u == nil {
		return nil
	}
	return &Principal{
		UserID:      u.ID.String(),
		Username:    u.Username,
		Email:       u.Email,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		Tier:        u.Tier,
	}
}

// TokenPair bundles the access and refresh tokens minted for API clients.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResult carries the session created by a successful login.
type LoginResult struct {
	SessionID string
	User      *User
}
