package orchestrator

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// DefaultKeywordWeight is the contribution of one exact phrase match.
const DefaultKeywordWeight = 0.8

// ErrInvalidKeywordTable is returned when a keyword table fails validation.
var ErrInvalidKeywordTable = errors.New("invalid keyword table")

// Keyword is a phrase and the score it contributes when found in a message.
type Keyword struct {
	Phrase string  `yaml:"phrase"`
	Weight float64 `yaml:"weight"`
}

// UnmarshalYAML accepts either a bare phrase or a {phrase, weight} mapping.
func (k *Keyword) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		k.Phrase = value.Value
		k.Weight = DefaultKeywordWeight
		return nil
	}

	var raw struct {
		Phrase string  `yaml:"phrase"`
		Weight float64 `yaml:"weight"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	k.Phrase = raw.Phrase
	k.Weight = raw.Weight
	if k.Weight == 0 {
		k.Weight = DefaultKeywordWeight
	}
	return nil
}

// Category maps an intent to the agent that owns it and the phrases that signal it.
type Category struct {
	Intent   IntentCategory `yaml:"intent"`
	Agent    models.AgentID `yaml:"agent"`
	Keywords []Keyword      `yaml:"keywords"`
}

// KeywordTable is the validated set of categories used by the Scorer.
// Category order is significant: ties go to the earlier category.
type KeywordTable struct {
	Categories []Category `yaml:"categories"`
	Urgency    []string   `yaml:"urgency"`
}

// NewKeywordTable normalizes and validates the given categories and urgency
// phrases. Phrases are lowercased and trimmed.
func NewKeywordTable(categories []Category, urgency []string) (*KeywordTable, error) {
	t := &KeywordTable{
		Categories: make([]Category, 0, len(categories)),
		Urgency:    make([]string, 0, len(urgency)),
	}
	for _, c := range categories {
		nc := Category{Intent: c.Intent, Agent: c.Agent, Keywords: make([]Keyword, 0, len(c.Keywords))}
		for _, kw := range c.Keywords {
			nc.Keywords = append(nc.Keywords, Keyword{
				Phrase: strings.ToLower(strings.TrimSpace(kw.Phrase)),
				Weight: kw.Weight,
			})
		}
		t.Categories = append(t.Categories, nc)
	}
	for _, u := range urgency {
		t.Urgency = append(t.Urgency, strings.ToLower(strings.TrimSpace(u)))
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the table's structural rules.
func (t *KeywordTable) Validate() error {
	if t == nil || len(t.Categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrInvalidKeywordTable)
	}

	seenAgents := make(map[models.AgentID]bool)
	seenIntents := make(map[IntentCategory]bool)
	for i, c := range t.Categories {
		if c.Intent == "" || c.Intent == IntentGeneral {
			return fmt.Errorf("%w: category %d has reserved or empty intent %q", ErrInvalidKeywordTable, i, c.Intent)
		}
		if seenIntents[c.Intent] {
			return fmt.Errorf("%w: duplicate intent %q", ErrInvalidKeywordTable, c.Intent)
		}
		seenIntents[c.Intent] = true

		if !c.Agent.Valid() {
			return fmt.Errorf("%w: intent %q maps to unknown agent %q", ErrInvalidKeywordTable, c.Intent, c.Agent)
		}
		if seenAgents[c.Agent] {
			return fmt.Errorf("%w: agent %q owns more than one intent", ErrInvalidKeywordTable, c.Agent)
		}
		seenAgents[c.Agent] = true

		if len(c.Keywords) == 0 {
			return fmt.Errorf("%w: intent %q has no keywords", ErrInvalidKeywordTable, c.Intent)
		}
		seenPhrases := make(map[string]bool)
		for _, kw := range c.Keywords {
			if kw.Phrase == "" {
				return fmt.Errorf("%w: intent %q has an empty phrase", ErrInvalidKeywordTable, c.Intent)
			}
			if kw.Phrase != strings.ToLower(kw.Phrase) {
				return fmt.Errorf("%w: phrase %q is not lowercase", ErrInvalidKeywordTable, kw.Phrase)
			}
			if kw.Weight <= 0 || kw.Weight > 1 {
				return fmt.Errorf("%w: phrase %q has weight %v outside (0,1]", ErrInvalidKeywordTable, kw.Phrase, kw.Weight)
			}
			if seenPhrases[kw.Phrase] {
				return fmt.Errorf("%w: duplicate phrase %q in intent %q", ErrInvalidKeywordTable, kw.Phrase, c.Intent)
			}
			seenPhrases[kw.Phrase] = true
		}
	}

	for _, u := range t.Urgency {
		if u == "" {
			return fmt.Errorf("%w: empty urgency phrase", ErrInvalidKeywordTable)
		}
	}
	return nil
}

// AgentFor returns the agent owning the intent.
func (t *KeywordTable) AgentFor(intent IntentCategory) (models.AgentID, bool) {
	for _, c := range t.Categories {
		if c.Intent == intent {
			return c.Agent, true
		}
	}
	return "", false
}

// ParseKeywordTable decodes and validates a YAML keyword table.
func ParseKeywordTable(data []byte) (*KeywordTable, error) {
	var raw KeywordTable
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode keyword table: %w", err)
	}
	return NewKeywordTable(raw.Categories, raw.Urgency)
}

// LoadKeywordTable reads a YAML keyword table from disk.
func LoadKeywordTable(path string) (*KeywordTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyword table %s: %w", path, err)
	}
	t, err := ParseKeywordTable(data)
	if err != nil {
		return nil, fmt.Errorf("load keyword table %s: %w", path, err)
	}
	return t, nil
}

// Marshal renders the table in the format accepted by ParseKeywordTable.
func (t *KeywordTable) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("encode keyword table: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode keyword table: %w", err)
	}
	return buf.Bytes(), nil
}

func phrases(weight float64, ps ...string) []Keyword {
	out := make([]Keyword, 0, len(ps))
	for _, p := range ps {
		out = append(out, Keyword{Phrase: p, Weight: weight})
	}
	return out
}

// DefaultKeywordTable returns the built-in keyword mappings.
func DefaultKeywordTable() *KeywordTable {
	t, err := NewKeywordTable([]Category{
		{
			Intent: IntentOnboarding,
			Agent:  models.AgentLexi,
			Keywords: phrases(DefaultKeywordWeight,
				"help me get started",
				"get started",
				"getting started",
				"how do i",
				"how does",
				"set up",
				"setup",
				"profile",
				"account",
				"onboarding",
				"tutorial",
				"subscription",
				"upgrade",
				"billing",
				"settings",
				"service area",
				"license",
				"insurance",
			),
		},
		{
			Intent: IntentCostAnalysis,
			Agent:  models.AgentAlex,
			Keywords: phrases(DefaultKeywordWeight,
				"cost",
				"price",
				"pricing",
				"bid",
				"estimate",
				"quote",
				"labor",
				"material",
				"budget",
				"margin",
				"profit",
				"markup",
				"breakdown",
				"how much",
				"analyze",
				"analysis",
			),
		},
		{
			Intent: IntentLeadGeneration,
			Agent:  models.AgentRex,
			Keywords: phrases(DefaultKeywordWeight,
				"lead",
				"find",
				"search",
				"find work",
				"new jobs",
				"jobs near",
				"projects near",
				"opportunities",
				"prospects",
				"homeowners",
				"nearby",
				"in my area",
			),
		},
	}, []string{"urgent", "asap", "emergency", "immediately", "right away", "right now"})
	if err != nil {
		panic(err)
	}
	return t
}
