package orchestrator

import (
	"fmt"
	"strings"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/chatctx"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

const notSet = "Not set"

var agentPreambles = map[models.AgentID]string{
	models.AgentLexi: `You are Lexi, the FixItForMe onboarding guide.
Help the contractor set up their profile, understand the platform and get the most out of their plan.
Keep answers short and friendly, and point to the next concrete step.`,
	models.AgentAlex: `You are Alex, the FixItForMe cost analyst.
Break jobs down into labor, materials and overhead, and recommend a competitive bid with a clear margin.
Show your numbers and state every assumption.`,
	models.AgentRex: `You are Rex, the FixItForMe lead scout.
Find and qualify work that matches the contractor's services and service area.
Rank opportunities by fit and explain why each one is worth pursuing.`,
}

// GenerateContextualPrompt renders the system prompt for the decision's target agent.
func GenerateContextualPrompt(d RoutingDecision, req RoutingRequest) string {
	var b strings.Builder

	preamble, ok := agentPreambles[d.Target]
	if !ok {
		preamble = agentPreambles[models.AgentLexi]
	}
	b.WriteString(preamble)
	b.WriteString("\n\n## Contractor\n")

	tier := notSet
	services := notSet
	location := notSet
	if req.Profile != nil {
		if req.Profile.Tier != "" {
			tier = string(req.Profile.Tier)
		}
		if len(req.Profile.ServiceCodes) > 0 {
			services = strings.Join(req.Profile.ServiceCodes, ", ")
		}
		if req.Profile.Location != "" {
			location = req.Profile.Location
		}
	}
	fmt.Fprintf(&b, "- Tier: %s\n", tier)
	fmt.Fprintf(&b, "- Services: %s\n", services)
	fmt.Fprintf(&b, "- Location: %s\n", location)

	b.WriteString("\n## Routing\n")
	fmt.Fprintf(&b, "- Rule: %s\n", d.Rule)
	fmt.Fprintf(&b, "- Reason: %s\n", d.Reason)
	if d.Context != "" {
		fmt.Fprintf(&b, "- Context: %s\n", d.Context)
	}

	if req.ActiveContext != nil && req.ActiveContext.Type != chatctx.TypeMain {
		b.WriteString("\n## Active context\n")
		fmt.Fprintf(&b, "- %s\n", req.ActiveContext.Title)
		fmt.Fprintf(&b, "- %s\n", req.ActiveContext.Label())
	}

	if !d.Access.HasAccess {
		b.WriteString("\n## Access\n")
		fmt.Fprintf(&b, "%s. Explain what the %s tier unlocks instead of doing the work.\n",
			d.Access.Reason, d.Access.RequiredTier)
	}

	return b.String()
}

// HandoffMessage is shown when a conversation moves from one agent to another.
func HandoffMessage(from, to models.AgentID, reason string) string {
	if from == "" || from == to {
		return fmt.Sprintf("%s is taking this one. %s", to.Name(), reason)
	}
	return fmt.Sprintf("%s is handing you over to %s. %s", from.Name(), to.Name(), reason)
}
