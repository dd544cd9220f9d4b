package memberauth_test

import (
	"testing"

	auth "github.com/assemblyhub/memberauth"
	"github.com/stretchr/testify/assert"
)

func TestIsValidTier(t *testing.T) {
	for _, tier := range auth.AllTiers() {
		assert.True(t, auth.IsValidTier(tier), tier)
	}

	assert.False(t, auth.IsValidTier(""))
	assert.False(t, auth.IsValidTier("platinum"))
}

func TestParseTier(t *testing.T) {
	tier, ok := auth.ParseTier("supporting")
	assert.True(t, ok)
	assert.Equal(t, auth.TierSupporting, tier)

	_, ok = auth.ParseTier("")
	assert.False(t, ok)

	_, ok = auth.ParseTier("platinum")
	assert.False(t, ok)
}

func TestTierAtLeast(t *testing.T) {
	tests := []struct {
		tier     auth.MembershipTier
		min      auth.MembershipTier
		expected bool
	}{
		{auth.TierNone, auth.TierNone, true},
		{auth.TierNone, auth.TierCommunity, false},
		{auth.TierCommunity, auth.TierCommunity, true},
		{auth.TierCommunity, auth.TierSupporting, false},
		{auth.TierSupporting, auth.TierCommunity, true},
		{auth.TierSustaining, auth.TierSupporting, true},
		{auth.TierSustaining, auth.TierSustaining, true},
		{"platinum", auth.TierCommunity, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, auth.TierAtLeast(tt.tier, tt.min),
			"%s at least %s", tt.tier, tt.min)
	}
}
