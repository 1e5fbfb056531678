package orchestrator

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/chatctx"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/logging"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// Orchestrator decides which agent handles a message.
// Every call is an independent decision over the supplied request; the only
// shared state is the keyword table, which can be swapped atomically.
type Orchestrator struct {
	scorer         atomic.Pointer[Scorer]
	highConfidence float64
	intentFloor    float64
	logger         *logging.DebugLogger
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	orch := &Orchestrator{
		highConfidence: o.highConfidence,
		intentFloor:    o.intentFloor,
		logger:         o.logger,
	}
	orch.scorer.Store(NewScorer(o.table, o.intentFloor))
	return orch
}

// SetKeywordTable replaces the keyword table for subsequent calls.
// A nil table restores the default.
func (o *Orchestrator) SetKeywordTable(t *KeywordTable) {
	o.scorer.Store(NewScorer(t, o.intentFloor))
	o.logger.Log("[orchestrator] keyword table replaced (%d categories)", len(o.scorer.Load().Table().Categories))
}

// KeywordTable returns the table in use.
func (o *Orchestrator) KeywordTable() *KeywordTable {
	return o.scorer.Load().Table()
}

// ScoreIntent runs only the intent scorer.
func (o *Orchestrator) ScoreIntent(message string) Intent {
	return o.scorer.Load().Score(message)
}

// Orchestrate routes a message. Rules are applied in order and the first
// that matches decides:
//  1. An explicit @mention
//  2. An intent scoring above the high-confidence threshold
//  3. The current agent, if it has an open thread
//  4. The agent of the most recent history entry, if it has an open thread
//  5. Lexi
func (o *Orchestrator) Orchestrate(req RoutingRequest) RoutingDecision {
	var d RoutingDecision

	if m, ok := ParseMention(req.Message); ok {
		d = RoutingDecision{
			Target:       m.Agent,
			Rule:         RuleMention,
			CleanMessage: m.CleanMessage,
			Reason:       fmt.Sprintf("Explicit mention of @%s", m.Agent),
			Context:      fmt.Sprintf("The contractor addressed %s directly.", m.Agent.Name()),
		}
		return o.finish(d, req)
	}

	d.CleanMessage = strings.TrimSpace(req.Message)
	intent := o.scorer.Load().Score(req.Message)
	d.Intent = intent

	switch {
	case intent.Primary != IntentGeneral && intent.Confidence > o.highConfidence:
		d.Target = intent.Agent
		d.Rule = RuleIntent
		pct := int(math.Round(intent.Confidence * 100))
		d.Reason = fmt.Sprintf("High confidence %s intent (%d%%), matched: %s",
			intent.Primary.Label(), pct, strings.Join(intent.Keywords, ", "))
		d.Context = fmt.Sprintf("Detected %s intent at %d%% confidence (urgency: %s). Keywords: %s.",
			intent.Primary.Label(), pct, intent.Urgency, strings.Join(intent.Keywords, ", "))

	case req.CurrentAgent != "" && req.HasThread(req.CurrentAgent):
		d.Target = req.CurrentAgent
		d.Rule = RuleContinuity
		d.Reason = fmt.Sprintf("Continuing active conversation with %s", req.CurrentAgent.Name())
		d.Context = fmt.Sprintf("The contractor is continuing an open conversation with %s.", req.CurrentAgent.Name())

	case len(req.History) > 0 && req.HasThread(req.History[len(req.History)-1].Agent):
		last := req.History[len(req.History)-1].Agent
		d.Target = last
		d.Rule = RuleRecency
		d.Reason = fmt.Sprintf("Following up on recent conversation with %s", last.Name())
		d.Context = fmt.Sprintf("The contractor's last exchange was with %s.", last.Name())

	default:
		d.Target = models.AgentLexi
		d.Rule = RuleDefault
		d.Reason = "No clear intent, routing to Lexi for general guidance"
		d.Context = "No specific intent detected; offer general guidance."
	}

	return o.finish(d, req)
}

// finish fills the fields common to every rule.
func (o *Orchestrator) finish(d RoutingDecision, req RoutingRequest) RoutingDecision {
	d.ShouldOpenNewThread = !req.HasThread(d.Target)
	d.Access = ValidateAgentAccess(d.Target, req.Tier())

	if req.ActiveContext != nil && req.ActiveContext.Type != chatctx.TypeMain {
		d.Context += " Active context: " + req.ActiveContext.Label() + "."
	}

	o.logger.Log("[orchestrator] rule=%s target=%s new_thread=%v access=%v confidence=%.2f",
		d.Rule, d.Target, d.ShouldOpenNewThread, d.Access.HasAccess, d.Intent.Confidence)
	return d
}
