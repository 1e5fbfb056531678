package models

import "strings"

// AgentID identifies one of the conversational agents a message can be routed to.
type AgentID string

const (
	// AgentLexi is the onboarding and guide agent. Always accessible.
	AgentLexi AgentID = "lexi"
	// AgentAlex is the cost and bid analysis agent.
	AgentAlex AgentID = "alex"
	// AgentRex is the lead generation agent.
	AgentRex AgentID = "rex"
)

// Valid returns true if the agent is a known value.
func (a AgentID) Valid() bool {
	switch a {
	case AgentLexi, AgentAlex, AgentRex:
		return true
	default:
		return false
	}
}

// AllAgents returns every known agent in display order.
func AllAgents() []AgentID {
	return []AgentID{AgentLexi, AgentAlex, AgentRex}
}

// ParseAgentID parses an agent name case-insensitively, tolerating a leading "@".
func ParseAgentID(s string) (AgentID, bool) {
	a := AgentID(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@")))
	if !a.Valid() {
		return "", false
	}
	return a, true
}

// AgentProfile describes an agent persona.
type AgentProfile struct {
	// ID is the agent identifier.
	ID AgentID `json:"id"`
	// Name is the display name used in prompts and hand-off text.
	Name string `json:"name"`
	// Role is a short description of what the agent does.
	Role string `json:"role"`
	// Premium indicates the agent requires the scale tier.
	Premium bool `json:"premium"`
}

var agentProfiles = map[AgentID]AgentProfile{
	AgentLexi: {ID: AgentLexi, Name: "Lexi", Role: "onboarding guide", Premium: false},
	AgentAlex: {ID: AgentAlex, Name: "Alex", Role: "bid and cost analyst", Premium: true},
	AgentRex:  {ID: AgentRex, Name: "Rex", Role: "lead generation specialist", Premium: true},
}

// Profile returns the persona for the agent. Unknown agents get a profile
// whose name is the raw identifier.
func (a AgentID) Profile() AgentProfile {
	if p, ok := agentProfiles[a]; ok {
		return p
	}
	return AgentProfile{ID: a, Name: string(a)}
}

// Name returns the display name of the agent.
func (a AgentID) Name() string {
	return a.Profile().Name
}

// RequiresPremium returns true if the agent is restricted to the scale tier.
func (a AgentID) RequiresPremium() bool {
	return a.Profile().Premium
}
