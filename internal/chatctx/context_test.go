package chatctx

import (
	"strings"
	"testing"
	"time"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

func TestConversionsKeepID(t *testing.T) {
	lead := FromLead("lead-42", Metadata{ProjectName: "Kitchen remodel", ClientName: "Smith", EstimatedValue: 18000})
	bid := BidFromLead(lead)
	project := ProjectFromBid(bid, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	if bid.ID != "lead-42" || project.ID != "lead-42" {
		t.Fatalf("ids = %q, %q, want lead-42", bid.ID, project.ID)
	}
	if bid.Type != TypeBid {
		t.Errorf("bid.Type = %q, want bid", bid.Type)
	}
	if project.Type != TypeProject {
		t.Errorf("project.Type = %q, want project", project.Type)
	}
	if lead.Type != TypeLead || lead.Metadata.Status != "" {
		t.Errorf("lead was mutated: %+v", lead)
	}
	if project.Metadata.Status != "active" {
		t.Errorf("project status = %q, want active", project.Metadata.Status)
	}
	if project.Metadata.StartDate.IsZero() {
		t.Error("project start date not set")
	}
	if project.Title != "Project: Kitchen remodel" {
		t.Errorf("project.Title = %q", project.Title)
	}
}

func TestLabel(t *testing.T) {
	if got := Main().Label(); got != "general conversation" {
		t.Errorf("Main().Label() = %q", got)
	}

	bid := BidFromLead(FromLead("l1", Metadata{ProjectName: "Deck", ClientName: "Lee", EstimatedValue: 9500}))
	got := bid.Label()
	for _, want := range []string{`bid "Deck"`, "client Lee", "value $9500", "status analyzing"} {
		if !strings.Contains(got, want) {
			t.Errorf("Label() = %q, missing %q", got, want)
		}
	}
}

func TestWelcomeMessage(t *testing.T) {
	tests := []struct {
		name  string
		ctx   Context
		agent models.AgentID
		want  string
	}{
		{"main lexi", Main(), models.AgentLexi, "I'm Lexi"},
		{"main rex", Main(), models.AgentRex, "find leads"},
		{"main alex", Main(), models.AgentAlex, "price it"},
		{"lead", FromLead("l", Metadata{ProjectName: "Roof"}), models.AgentRex, "look at Roof"},
		{"bid with client", BidFromLead(FromLead("l", Metadata{ProjectName: "Roof", ClientName: "Ng"})), models.AgentAlex, "Roof with Ng"},
		{"project", ProjectFromBid(Context{Type: TypeBid, ID: "b"}, time.Now()), models.AgentAlex, "this job is active"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WelcomeMessage(tt.ctx, tt.agent)
			if !strings.Contains(got, tt.want) {
				t.Errorf("WelcomeMessage() = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestGroupThreads(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	threads := []Thread{
		{Agent: models.AgentAlex, Context: Context{Type: TypeBid, ID: "b1"}, LastActivity: base},
		{Agent: models.AgentLexi, Context: Main(), LastActivity: base},
		{Agent: models.AgentAlex, Context: Context{Type: TypeBid, ID: "b2"}, LastActivity: base.Add(time.Hour)},
		{Agent: models.AgentRex, Context: Context{Type: "weird"}, LastActivity: base.Add(time.Minute)},
	}

	groups := GroupThreads(threads)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Type != TypeMain || len(groups[0].Threads) != 2 {
		t.Errorf("group 0 = %+v, want main with 2 threads", groups[0])
	}
	if groups[0].Threads[0].Agent != models.AgentRex {
		t.Errorf("main group not sorted by recency: %+v", groups[0].Threads)
	}
	if groups[1].Type != TypeBid || groups[1].Threads[0].Context.ID != "b2" {
		t.Errorf("bid group = %+v, want b2 first", groups[1])
	}
}
