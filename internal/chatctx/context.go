// Package chatctx tags conversation threads with the lead, bid or project
// they concern and renders the text that depends on that tag.
package chatctx

import (
	"fmt"
	"strings"
	"time"
)

// Type is the kind of entity a conversation thread is about.
type Type string

const (
	// TypeMain is the general conversation with no attached entity.
	TypeMain Type = "main"
	// TypeLead is a thread about a discovered lead.
	TypeLead Type = "lead"
	// TypeBid is a thread about a bid under analysis.
	TypeBid Type = "bid"
	// TypeProject is a thread about an accepted, active project.
	TypeProject Type = "project"
)

// Valid returns true if the type is a known value.
func (t Type) Valid() bool {
	switch t {
	case TypeMain, TypeLead, TypeBid, TypeProject:
		return true
	default:
		return false
	}
}

// Metadata carries descriptive fields about the referenced entity.
type Metadata struct {
	ProjectName    string    `json:"project_name,omitempty"`
	ClientName     string    `json:"client_name,omitempty"`
	EstimatedValue float64   `json:"estimated_value,omitempty"`
	Status         string    `json:"status,omitempty"`
	StartDate      time.Time `json:"start_date,omitempty"`
	DueDate        time.Time `json:"due_date,omitempty"`
}

// Context identifies what a conversation thread is about.
// Values are never mutated in place; conversions return a new Context.
type Context struct {
	// Type is the kind of entity.
	Type Type `json:"type"`
	// ID is the external lead/bid/project id. Empty for main.
	ID string `json:"id,omitempty"`
	// Title is the thread title shown to the user.
	Title string `json:"title"`
	// Metadata describes the entity.
	Metadata Metadata `json:"metadata"`
}

// Main returns the default, entity-less context.
func Main() Context {
	return Context{Type: TypeMain, Title: "General"}
}

// FromLead creates a lead context for the given lead id.
func FromLead(leadID string, meta Metadata) Context {
	return Context{
		Type:     TypeLead,
		ID:       leadID,
		Title:    titleFor(TypeLead, meta),
		Metadata: meta,
	}
}

// BidFromLead moves a lead into bid analysis. The new context keeps the lead's id.
func BidFromLead(lead Context) Context {
	meta := lead.Metadata
	meta.Status = "analyzing"
	return Context{
		Type:     TypeBid,
		ID:       lead.ID,
		Title:    titleFor(TypeBid, meta),
		Metadata: meta,
	}
}

// ProjectFromBid turns an accepted bid into an active project.
// The new context references the same underlying id.
func ProjectFromBid(bid Context, start time.Time) Context {
	meta := bid.Metadata
	meta.Status = "active"
	if meta.StartDate.IsZero() {
		meta.StartDate = start
	}
	return Context{
		Type:     TypeProject,
		ID:       bid.ID,
		Title:    titleFor(TypeProject, meta),
		Metadata: meta,
	}
}

func titleFor(t Type, meta Metadata) string {
	name := meta.ProjectName
	if name == "" {
		name = "Untitled"
	}
	switch t {
	case TypeLead:
		return "Lead: " + name
	case TypeBid:
		return "Bid: " + name
	case TypeProject:
		return "Project: " + name
	default:
		return "General"
	}
}

// Label returns a one-line description used in routing context text.
func (c Context) Label() string {
	if c.Type == TypeMain || c.Type == "" {
		return "general conversation"
	}
	var parts []string
	parts = append(parts, fmt.Sprintf("%s %q", c.Type, c.Metadata.ProjectName))
	if c.Metadata.ClientName != "" {
		parts = append(parts, "client "+c.Metadata.ClientName)
	}
	if c.Metadata.EstimatedValue > 0 {
		parts = append(parts, fmt.Sprintf("value $%.0f", c.Metadata.EstimatedValue))
	}
	if c.Metadata.Status != "" {
		parts = append(parts, "status "+c.Metadata.Status)
	}
	return strings.Join(parts, ", ")
}
