package memberauth

// IsValidTier checks if the tier is one of the predefined membership levels
func IsValidTier(t MembershipTier) bool {
	switch t {
	case TierNone, TierCommunity, TierSupporting, TierSustaining:
		return true
	default:
		return false
	}
}

// TierAtLeast checks if tier meets the minimum required membership level.
// Unknown tiers never satisfy any requirement.
func TierAtLeast(tier, minTier MembershipTier) bool {
	current, ok := tierHierarchy[tier]
	if !ok {
		return false
	}

	min, ok := tierHierarchy[minTier]
	if !ok {
		return false
	}

	return current >= min
}

// AllTiers returns the membership tiers in hierarchical order
func AllTiers() []MembershipTier {
	return []MembershipTier{
		TierNone,
		TierCommunity,
		TierSupporting,
		TierSustaining,
	}
}

// ParseTier safely parses a string into a MembershipTier
func ParseTier(raw string) (MembershipTier, bool) {
	tier := MembershipTier(raw)
	return tier, IsValidTier(tier)
}

var tierHierarchy = map[MembershipTier]int{
	TierNone:       0,
	TierCommunity:  1,
	TierSupporting: 2,
	TierSustaining: 3,
}
