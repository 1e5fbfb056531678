package orchestrator

import (
	"testing"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

func TestParseMention(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantOK    bool
		wantAgent models.AgentID
		wantClean string
	}{
		{"leading mention", "@alex what's the labor cost?", true, models.AgentAlex, "what's the labor cost?"},
		{"mid-sentence mention", "hey @Rex find leads", true, models.AgentRex, "hey find leads"},
		{"trailing mention", "thanks @lexi", true, models.AgentLexi, "thanks"},
		{"uppercase", "@LEXI help", true, models.AgentLexi, "help"},
		{"mention only", "@rex", true, models.AgentRex, ""},
		{"punctuation after", "@alex, price this deck", true, models.AgentAlex, ", price this deck"},
		{"first mention wins", "@lexi and @rex", true, models.AgentLexi, "and @rex"},
		{"extra whitespace collapses", "ask   @alex   now", true, models.AgentAlex, "ask now"},
		{"email address", "email me at bob@alex.com", false, "", ""},
		{"longer name", "@alexander can you help", false, "", ""},
		{"unknown agent", "@bob hello", false, "", ""},
		{"no mention", "find me some leads", false, "", ""},
		{"empty", "", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := ParseMention(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ParseMention(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if m.Agent != tt.wantAgent {
				t.Errorf("ParseMention(%q).Agent = %v, want %v", tt.text, m.Agent, tt.wantAgent)
			}
			if m.CleanMessage != tt.wantClean {
				t.Errorf("ParseMention(%q).CleanMessage = %q, want %q", tt.text, m.CleanMessage, tt.wantClean)
			}
		})
	}
}
