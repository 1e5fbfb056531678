package chatctx

import (
	"fmt"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// WelcomeMessage returns the opening line an agent shows when a thread with
// the given context is opened.
func WelcomeMessage(c Context, agent models.AgentID) string {
	name := agent.Name()
	project := c.Metadata.ProjectName
	if project == "" {
		project = "this job"
	}

	switch c.Type {
	case TypeLead:
		return fmt.Sprintf("Hi, I'm %s. Let's look at %s and decide whether it's worth bidding on.", name, project)
	case TypeBid:
		if c.Metadata.ClientName != "" {
			return fmt.Sprintf("Hi, I'm %s. Let's break down the bid for %s with %s.", name, project, c.Metadata.ClientName)
		}
		return fmt.Sprintf("Hi, I'm %s. Let's break down the bid for %s.", name, project)
	case TypeProject:
		return fmt.Sprintf("Hi, I'm %s. %s is active. What do you need to track today?", name, project)
	}

	switch agent {
	case models.AgentAlex:
		return "Hi, I'm Alex. Send me a scope of work and I'll help you price it."
	case models.AgentRex:
		return "Hi, I'm Rex. Tell me your trade and area and I'll find leads for you."
	default:
		return "Hi, I'm Lexi. I can help you set up your profile and get the most out of FixItForMe."
	}
}
