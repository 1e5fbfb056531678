package orchestrator

import (
	"math"
	"testing"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

func singlePhraseTable(t *testing.T, phrase string, weight float64) *KeywordTable {
	t.Helper()
	table, err := NewKeywordTable([]Category{{
		Intent:   IntentCostAnalysis,
		Agent:    models.AgentAlex,
		Keywords: []Keyword{{Phrase: phrase, Weight: weight}},
	}}, []string{"asap"})
	if err != nil {
		t.Fatalf("NewKeywordTable() error = %v", err)
	}
	return table
}

func TestScore_DefaultTable(t *testing.T) {
	tests := []struct {
		message string
		want    IntentCategory
		agent   models.AgentID
	}{
		{"Hi, can you find me some leads in Oakland?", IntentLeadGeneration, models.AgentRex},
		{"What should I quote for this kitchen remodel?", IntentCostAnalysis, models.AgentAlex},
		{"How do I update my profile?", IntentOnboarding, models.AgentLexi},
		{"ok thanks", IntentGeneral, ""},
		{"", IntentGeneral, ""},
	}

	s := NewScorer(nil, DefaultIntentFloor)
	for _, tt := range tests {
		got := s.Score(tt.message)
		if got.Primary != tt.want {
			t.Errorf("Score(%q).Primary = %v, want %v (scores %v)", tt.message, got.Primary, tt.want, got.Scores)
		}
		if got.Agent != tt.agent {
			t.Errorf("Score(%q).Agent = %v, want %v", tt.message, got.Agent, tt.agent)
		}
	}
}

func TestScore_CappedAtOne(t *testing.T) {
	s := NewScorer(nil, DefaultIntentFloor)
	got := s.Score("find leads, search for new jobs near me")
	if got.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", got.Confidence)
	}
	for cat, score := range got.Scores {
		if score < 0 || score > 1 {
			t.Errorf("Scores[%v] = %v, want within [0,1]", cat, score)
		}
	}
}

func TestScore_FloorIsStrict(t *testing.T) {
	tests := []struct {
		weight float64
		want   IntentCategory
	}{
		{0.3, IntentGeneral},
		{0.31, IntentCostAnalysis},
	}

	for _, tt := range tests {
		s := NewScorer(singlePhraseTable(t, "quote", tt.weight), DefaultIntentFloor)
		got := s.Score("need a quote")
		if got.Primary != tt.want {
			t.Errorf("weight %v: Primary = %v, want %v", tt.weight, got.Primary, tt.want)
		}
		if got.Confidence != tt.weight {
			t.Errorf("weight %v: Confidence = %v, want %v", tt.weight, got.Confidence, tt.weight)
		}
	}
}

func TestScore_PartialMultiWordMatch(t *testing.T) {
	s := NewScorer(singlePhraseTable(t, "kitchen remodel cost", 0.6), DefaultIntentFloor)

	got := s.Score("what about the kitchen")
	want := 0.6 * partialMatchFactor / 3
	if math.Abs(got.Confidence-want) > 1e-9 {
		t.Errorf("Confidence = %v, want %v", got.Confidence, want)
	}
	if len(got.Keywords) != 0 {
		t.Errorf("Keywords = %v, partial matches should not be recorded", got.Keywords)
	}
}

func TestScore_TiesGoToTableOrder(t *testing.T) {
	table, err := NewKeywordTable([]Category{
		{Intent: IntentLeadGeneration, Agent: models.AgentRex, Keywords: []Keyword{{Phrase: "roof", Weight: 0.5}}},
		{Intent: IntentCostAnalysis, Agent: models.AgentAlex, Keywords: []Keyword{{Phrase: "deck", Weight: 0.5}}},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	got := NewScorer(table, DefaultIntentFloor).Score("roof and deck")
	if got.Primary != IntentLeadGeneration {
		t.Errorf("Primary = %v, want %v", got.Primary, IntentLeadGeneration)
	}
	if len(got.Keywords) != 1 || got.Keywords[0] != "roof" {
		t.Errorf("Keywords = %v, want [roof]", got.Keywords)
	}
}

func TestScore_Urgency(t *testing.T) {
	s := NewScorer(nil, DefaultIntentFloor)
	if got := s.Score("I need a quote ASAP"); got.Urgency != UrgencyHigh {
		t.Errorf("Urgency = %v, want %v", got.Urgency, UrgencyHigh)
	}
	if got := s.Score("I need a quote"); got.Urgency != UrgencyMedium {
		t.Errorf("Urgency = %v, want %v", got.Urgency, UrgencyMedium)
	}
}

func TestIntentCategory_Label(t *testing.T) {
	if got := IntentCostAnalysis.Label(); got != "cost analysis" {
		t.Errorf("Label() = %q, want %q", got, "cost analysis")
	}
}
