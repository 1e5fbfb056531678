package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/config"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/orchestrator"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

var (
	routeAgent        string
	routeOpen         []string
	routeTier         string
	routeLast         string
	routeKeywords     string
	routePrompt       bool
	routeDumpKeywords bool
)

var routeCmd = &cobra.Command{
	Use:   "route [message]",
	Short: "Show which agent would handle a message",
	Long: `Route a single message and print the decision.

Examples:
  fixit route "find me some leads in Oakland"
  fixit route --agent alex --open alex "ok thanks"
  fixit route --tier scale --prompt "@alex what's the labor cost?"
  fixit route --dump-keywords > keywords.yaml`,
	RunE: runRoute,
}

func init() {
	routeCmd.Flags().StringVar(&routeAgent, "agent", "", "Agent whose thread is currently open (lexi, alex, rex)")
	routeCmd.Flags().StringSliceVar(&routeOpen, "open", nil, "Agents with an open thread")
	routeCmd.Flags().StringVar(&routeTier, "tier", "", "Contractor tier (growth, scale); default from config")
	routeCmd.Flags().StringVar(&routeLast, "last", "", "Agent of the most recent message")
	routeCmd.Flags().StringVar(&routeKeywords, "keywords", "", "Keyword table YAML file")
	routeCmd.Flags().BoolVar(&routePrompt, "prompt", false, "Also print the generated system prompt")
	routeCmd.Flags().BoolVar(&routeDumpKeywords, "dump-keywords", false, "Print the keyword table in use as YAML and exit")
}

func runRoute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	orch, _, err := buildOrchestrator(cfg, routeKeywords, newLogger())
	if err != nil {
		return err
	}

	if routeDumpKeywords {
		data, err := orch.KeywordTable().Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	if len(args) == 0 {
		return fmt.Errorf("a message is required")
	}

	req, err := buildRouteRequest(cfg, strings.Join(args, " "), routeAgent, routeOpen, routeLast, routeTier)
	if err != nil {
		return err
	}

	d := orch.Orchestrate(req)
	renderDecision(os.Stdout, d)
	if routePrompt {
		fmt.Println()
		fmt.Print(orchestrator.GenerateContextualPrompt(d, req))
	}
	return nil
}

// buildRouteRequest assembles a request from flag values.
func buildRouteRequest(cfg *config.Config, message, current string, open []string, last, tier string) (orchestrator.RoutingRequest, error) {
	req := orchestrator.RoutingRequest{
		Message: message,
		Profile: &orchestrator.ContractorProfile{
			ServiceCodes: cfg.Contractor.Services,
			Location:     cfg.Contractor.Location,
			Tier:         cfg.ContractorTier(),
		},
	}

	if tier != "" {
		t := models.Tier(tier)
		if !t.Valid() {
			return req, fmt.Errorf("invalid tier %q (want growth or scale)", tier)
		}
		req.Profile.Tier = t
	}

	if current != "" {
		a, ok := models.ParseAgentID(current)
		if !ok {
			return req, fmt.Errorf("unknown agent %q", current)
		}
		req.CurrentAgent = a
	}

	for _, name := range open {
		a, ok := models.ParseAgentID(name)
		if !ok {
			return req, fmt.Errorf("unknown agent %q in --open", name)
		}
		req.OpenThreads = append(req.OpenThreads, a)
	}

	if last != "" {
		a, ok := models.ParseAgentID(last)
		if !ok {
			return req, fmt.Errorf("unknown agent %q in --last", last)
		}
		req.History = append(req.History, orchestrator.HistoryEntry{Agent: a, Timestamp: time.Now()})
	}

	return req, nil
}

// renderDecision prints a decision in human-readable form.
func renderDecision(w io.Writer, d orchestrator.RoutingDecision) {
	agent := color.New(agentColor(d.Target), color.Bold)
	label := color.New(color.FgHiBlack)

	fmt.Fprintf(w, "%s %s\n", label.Sprint("Agent:  "), agent.Sprint(d.Target.Name()))
	fmt.Fprintf(w, "%s %s\n", label.Sprint("Rule:   "), d.Rule)
	fmt.Fprintf(w, "%s %s\n", label.Sprint("Reason: "), d.Reason)
	if d.CleanMessage != "" {
		fmt.Fprintf(w, "%s %s\n", label.Sprint("Message:"), d.CleanMessage)
	}
	if d.Intent.Primary != "" {
		fmt.Fprintf(w, "%s %s (%.0f%%, urgency %s)\n", label.Sprint("Intent: "), d.Intent.Primary.Label(), d.Intent.Confidence*100, d.Intent.Urgency)
	}
	if d.ShouldOpenNewThread {
		fmt.Fprintf(w, "%s new thread\n", label.Sprint("Thread: "))
	} else {
		fmt.Fprintf(w, "%s existing thread\n", label.Sprint("Thread: "))
	}
	if d.Access.HasAccess {
		fmt.Fprintf(w, "%s %s\n", label.Sprint("Access: "), color.GreenString("granted"))
	} else {
		fmt.Fprintf(w, "%s %s\n", label.Sprint("Access: "), color.YellowString("denied: %s", d.Access.Reason))
	}
}

// agentColor returns the display color of an agent.
func agentColor(a models.AgentID) color.Attribute {
	switch a {
	case models.AgentLexi:
		return color.FgCyan
	case models.AgentAlex:
		return color.FgGreen
	case models.AgentRex:
		return color.FgMagenta
	default:
		return color.FgWhite
	}
}
