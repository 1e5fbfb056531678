package orchestrator

import (
	"time"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/chatctx"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// HistoryEntry is one past message in the conversation.
type HistoryEntry struct {
	Agent     models.AgentID
	Message   string
	Timestamp time.Time
}

// ContractorProfile is the subset of the contractor's profile used for routing and prompts.
type ContractorProfile struct {
	ServiceCodes []string
	Location     string
	Tier         models.Tier
}

// RoutingRequest is the input to Orchestrate.
type RoutingRequest struct {
	// Message is the raw user text.
	Message string
	// CurrentAgent is the agent whose thread is on screen, if any.
	CurrentAgent models.AgentID
	// OpenThreads lists agents that already have a thread.
	OpenThreads []models.AgentID
	// History is the recent conversation, most recent last.
	History []HistoryEntry
	// Profile is optional.
	Profile *ContractorProfile
	// ActiveContext is the lead/bid/project the user is looking at, if any.
	ActiveContext *chatctx.Context
}

// HasThread returns true if the agent has an open thread.
func (r RoutingRequest) HasThread(agent models.AgentID) bool {
	for _, a := range r.OpenThreads {
		if a == agent {
			return true
		}
	}
	return false
}

// Tier returns the contractor tier, defaulting to growth.
func (r RoutingRequest) Tier() models.Tier {
	if r.Profile == nil {
		return models.TierGrowth
	}
	return r.Profile.Tier.OrDefault()
}

// RoutingRule identifies which step of the cascade produced a decision.
type RoutingRule string

const (
	RuleMention    RoutingRule = "mention"
	RuleIntent     RoutingRule = "intent"
	RuleContinuity RoutingRule = "continuity"
	RuleRecency    RoutingRule = "recency"
	RuleDefault    RoutingRule = "default"
)

// RoutingDecision is the output of Orchestrate.
type RoutingDecision struct {
	// Target is the agent that should handle the message.
	Target models.AgentID
	// Reason explains the choice to the user.
	Reason string
	// ShouldOpenNewThread is true iff Target has no open thread.
	ShouldOpenNewThread bool
	// CleanMessage is the message with any mention removed.
	CleanMessage string
	// Context summarizes the decision for the agent's system prompt.
	Context string
	// Rule is the cascade step that fired.
	Rule RoutingRule
	// Intent is the scoring result. Zero when a mention short-circuited scoring.
	Intent Intent
	// Access must be checked before acting on the decision.
	Access AccessResult
}
