package orchestrator

import (
	"fmt"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// AccessResult reports whether a contractor may use an agent.
// A denial is a value for the caller to act on, e.g. by showing an upgrade prompt.
type AccessResult struct {
	HasAccess    bool
	Reason       string
	RequiredTier models.Tier
}

// ValidateAgentAccess checks the agent against the contractor's tier.
// An empty or unknown tier is treated as growth.
func ValidateAgentAccess(agent models.AgentID, tier models.Tier) AccessResult {
	if !agent.Valid() {
		return AccessResult{HasAccess: false, Reason: fmt.Sprintf("unknown agent %q", agent)}
	}
	if !agent.RequiresPremium() {
		return AccessResult{HasAccess: true}
	}

	tier = tier.OrDefault()
	if tier == models.TierScale {
		return AccessResult{HasAccess: true, RequiredTier: models.TierScale}
	}
	return AccessResult{
		HasAccess:    false,
		RequiredTier: models.TierScale,
		Reason:       fmt.Sprintf("%s requires the %s tier (current tier: %s)", agent.Name(), models.TierScale, tier),
	}
}
