package orchestrator

import (
	"strings"
	"unicode"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// IntentCategory is the inferred purpose of a message. Each category except
// IntentGeneral is owned by exactly one agent.
type IntentCategory string

const (
	// IntentOnboarding covers profile setup and platform questions.
	IntentOnboarding IntentCategory = "onboarding"
	// IntentCostAnalysis covers pricing, bids and cost breakdowns.
	IntentCostAnalysis IntentCategory = "cost_analysis"
	// IntentLeadGeneration covers finding new work.
	IntentLeadGeneration IntentCategory = "lead_generation"
	// IntentGeneral means no category cleared the confidence floor.
	IntentGeneral IntentCategory = "general"
)

// Label returns the category as human-readable text.
func (c IntentCategory) Label() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// Urgency is an informational flag extracted from the message.
// It never affects routing or queue order.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
)

const (
	// DefaultIntentFloor is the score a category must exceed to become the primary intent.
	DefaultIntentFloor = 0.3
	// partialMatchFactor scales the weight of a multi-word phrase that only partly matched.
	partialMatchFactor = 0.5
)

// Intent is the result of scoring one message.
type Intent struct {
	// Primary is the winning category, or IntentGeneral.
	Primary IntentCategory
	// Agent owns Primary. Empty for IntentGeneral.
	Agent models.AgentID
	// Confidence is the highest category score in [0,1].
	Confidence float64
	// Scores holds every category's score.
	Scores map[IntentCategory]float64
	// Urgency is high when an urgency phrase appears.
	Urgency Urgency
	// Keywords are the phrases matched exactly for Primary, or for all
	// categories when the intent is general.
	Keywords []string
}

// Scorer computes intent scores against a keyword table.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	table *KeywordTable
	floor float64
}

// NewScorer creates a Scorer. A nil table selects DefaultKeywordTable.
func NewScorer(table *KeywordTable, floor float64) *Scorer {
	if table == nil {
		table = DefaultKeywordTable()
	}
	return &Scorer{table: table, floor: floor}
}

// Table returns the scorer's keyword table.
func (s *Scorer) Table() *KeywordTable {
	return s.table
}

// Score classifies a message.
func (s *Scorer) Score(message string) Intent {
	lower := strings.ToLower(message)
	words := wordSet(lower)

	intent := Intent{
		Primary: IntentGeneral,
		Scores:  make(map[IntentCategory]float64, len(s.table.Categories)),
		Urgency: UrgencyMedium,
	}

	var all []string
	matchedBy := make(map[IntentCategory][]string)
	best := -1.0
	var bestCat *Category

	for i := range s.table.Categories {
		cat := &s.table.Categories[i]
		score, matched := scoreCategory(cat, lower, words)
		intent.Scores[cat.Intent] = score
		matchedBy[cat.Intent] = matched
		all = append(all, matched...)

		if score > best {
			best = score
			bestCat = cat
		}
	}

	if best > 0 {
		intent.Confidence = best
	}
	if bestCat != nil && best > s.floor {
		intent.Primary = bestCat.Intent
		intent.Agent = bestCat.Agent
		intent.Keywords = matchedBy[bestCat.Intent]
	} else {
		intent.Keywords = all
	}

	for _, u := range s.table.Urgency {
		if strings.Contains(lower, u) {
			intent.Urgency = UrgencyHigh
			break
		}
	}

	return intent
}

// scoreCategory sums exact phrase weights plus partial credit for multi-word
// phrases, capped at 1.0.
func scoreCategory(cat *Category, lower string, words map[string]bool) (float64, []string) {
	var score float64
	var matched []string

	for _, kw := range cat.Keywords {
		if strings.Contains(lower, kw.Phrase) {
			score += kw.Weight
			matched = append(matched, kw.Phrase)
			continue
		}

		parts := strings.Fields(kw.Phrase)
		if len(parts) < 2 {
			continue
		}
		hits := 0
		for _, p := range parts {
			if words[p] {
				hits++
			}
		}
		if hits > 0 {
			score += kw.Weight * partialMatchFactor * float64(hits) / float64(len(parts))
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, matched
}

// wordSet splits lowercased text into words. Apostrophes stay inside words.
func wordSet(lower string) map[string]bool {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
