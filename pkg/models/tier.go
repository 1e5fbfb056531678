package models

// Tier represents a contractor's subscription tier.
type Tier string

const (
	// TierGrowth is the entry subscription. Only the guide agent is included.
	TierGrowth Tier = "growth"
	// TierScale is the premium subscription with access to every agent.
	TierScale Tier = "scale"
)

// Valid returns true if the tier is a known value.
func (t Tier) Valid() bool {
	switch t {
	case TierGrowth, TierScale:
		return true
	default:
		return false
	}
}

// OrDefault returns the tier, or TierGrowth when it is empty or unknown.
func (t Tier) OrDefault() Tier {
	if !t.Valid() {
		return TierGrowth
	}
	return t
}
