package memberauth_test

import (
	"testing"

	auth "github.com/assemblyhub/memberauth"
	"github.com/stretchr/testify/assert"
)

func TestUserAddMetadata(t *testing.T) {
	user := &auth.User{}

	user.AddMetadata("signup_source", "landing").
		AddMetadata("referral", "newsletter")

	assert.Equal(t, "landing", user.Metadata["signup_source"])
	assert.Equal(t, "newsletter", user.Metadata["referral"])
}

func TestUserEnsureTier(t *testing.T) {
	user := &auth.User{}
	user.EnsureTier()
	assert.Equal(t, auth.TierNone, user.Tier)

	member := &auth.User{Tier: auth.TierSustaining}
	member.EnsureTier()
	assert.Equal(t, auth.TierSustaining, member.Tier)
}

func TestIsValidTokenType(t *testing.T) {
	assert.True(t, auth.IsValidTokenType(auth.TokenTypeAccess))
	assert.True(t, auth.IsValidTokenType(auth.TokenTypeRefresh))
	assert.True(t, auth.IsValidTokenType(auth.TokenTypeVerifyEmail))
	assert.False(t, auth.IsValidTokenType(""))
	assert.False(t, auth.IsValidTokenType("session"))
}
