package orchestrator

import (
	"strings"
	"testing"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

func TestValidateAgentAccess(t *testing.T) {
	tests := []struct {
		agent models.AgentID
		tier  models.Tier
		want  bool
	}{
		{models.AgentLexi, models.TierGrowth, true},
		{models.AgentLexi, models.TierScale, true},
		{models.AgentLexi, "", true},
		{models.AgentAlex, models.TierGrowth, false},
		{models.AgentAlex, models.TierScale, true},
		{models.AgentAlex, "", false},
		{models.AgentRex, models.TierGrowth, false},
		{models.AgentRex, models.TierScale, true},
		{models.AgentRex, "platinum", false},
		{"bob", models.TierScale, false},
	}

	for _, tt := range tests {
		got := ValidateAgentAccess(tt.agent, tt.tier)
		if got.HasAccess != tt.want {
			t.Errorf("ValidateAgentAccess(%q, %q).HasAccess = %v, want %v", tt.agent, tt.tier, got.HasAccess, tt.want)
		}
		if !got.HasAccess && got.Reason == "" {
			t.Errorf("ValidateAgentAccess(%q, %q) denied without a reason", tt.agent, tt.tier)
		}
	}
}

func TestValidateAgentAccess_ReasonNamesTiers(t *testing.T) {
	got := ValidateAgentAccess(models.AgentRex, models.TierGrowth)
	if got.RequiredTier != models.TierScale {
		t.Errorf("RequiredTier = %q, want %q", got.RequiredTier, models.TierScale)
	}
	if !strings.Contains(got.Reason, "scale") || !strings.Contains(got.Reason, "growth") {
		t.Errorf("Reason = %q, want both required and current tier", got.Reason)
	}
}
