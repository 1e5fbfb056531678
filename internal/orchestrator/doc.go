// Package orchestrator decides which FixItForMe agent handles a contractor's message.
//
// Routing is a strict cascade evaluated per message:
//   - An explicit @lexi, @alex or @rex mention
//   - A keyword-scored intent above the high-confidence threshold
//   - The agent whose thread is currently open
//   - The agent of the most recent message, if its thread is still open
//   - Lexi, as the general-purpose fallback
//
// Every decision carries an AccessResult. Alex and Rex need the scale tier;
// the caller decides what to do with a denial.
//
// Example usage:
//
//	orch := orchestrator.New(orchestrator.WithLogger(logger))
//	req := orchestrator.RoutingRequest{Message: "find me leads in Oakland"}
//	d := orch.Orchestrate(req)
//	prompt := orchestrator.GenerateContextualPrompt(d, req)
package orchestrator
