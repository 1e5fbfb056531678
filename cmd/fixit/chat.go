package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/chatctx"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/config"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/logging"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/orchestrator"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/state"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

var (
	chatKeywords string
	chatTier     string
	chatWatch    bool
	chatRecord   bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive routing session",
	Long: `Start an interactive session that routes each line you type.

Commands:
  /lead <id> <name>   Attach the conversation to a lead
  /bid                Move the current lead into bid analysis
  /project            Turn the current bid into an active project
  /main               Return to the general conversation
  /threads            List open threads grouped by context
  /quit               Exit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatKeywords, "keywords", "", "Keyword table YAML file")
	chatCmd.Flags().BoolVar(&chatWatch, "watch", false, "Reload the keyword table when the file changes")
	chatCmd.Flags().StringVar(&chatTier, "tier", "", "Contractor tier (growth, scale); default from config")
	chatCmd.Flags().BoolVar(&chatRecord, "db", false, "Record routing decisions in the state database")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if chatTier != "" {
		if !models.Tier(chatTier).Valid() {
			return fmt.Errorf("invalid tier %q (want growth or scale)", chatTier)
		}
		cfg.Contractor.Tier = chatTier
	}
	logger := newLogger()
	orch, keywordsFile, err := buildOrchestrator(cfg, chatKeywords, logger)
	if err != nil {
		return err
	}

	if chatWatch {
		if keywordsFile == "" {
			return fmt.Errorf("--watch needs a keyword file (--keywords or routing.keywords_file)")
		}
		watcher, err := orchestrator.WatchKeywordFile(keywordsFile,
			func(t *orchestrator.KeywordTable) {
				orch.SetKeywordTable(t)
				printStatus("↻", "Reloaded keyword table from "+keywordsFile, color.FgCyan)
			},
			func(err error) {
				printStatus("!", "Keyword reload failed: "+err.Error(), color.FgYellow)
			})
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	session := newChatSession(orch, cfg, cmd.OutOrStdout(), logger)

	if chatRecord {
		db, err := state.OpenAndMigrate(cfg.ResolveDBPath())
		if err != nil {
			return err
		}
		defer db.Close()
		session.decisions = db
	}

	fmt.Fprintln(session.out, chatctx.WelcomeMessage(chatctx.Main(), models.AgentLexi))
	return session.run(cmd.InOrStdin())
}

// historyWindow is how many recent exchanges are sent with each request.
const historyWindow = 20

// decisionRecorder stores routing outcomes.
type decisionRecorder interface {
	RecordDecision(d *state.Decision) error
}

// chatSession holds the conversation state between lines.
type chatSession struct {
	orch      *orchestrator.Orchestrator
	profile   *orchestrator.ContractorProfile
	out       io.Writer
	logger    *logging.DebugLogger
	decisions decisionRecorder
	now       func() time.Time

	current models.AgentID
	threads map[models.AgentID]*chatctx.Thread
	history []orchestrator.HistoryEntry
	active  chatctx.Context
}

func newChatSession(orch *orchestrator.Orchestrator, cfg *config.Config, out io.Writer, logger *logging.DebugLogger) *chatSession {
	return &chatSession{
		orch: orch,
		profile: &orchestrator.ContractorProfile{
			ServiceCodes: cfg.Contractor.Services,
			Location:     cfg.Contractor.Location,
			Tier:         cfg.ContractorTier(),
		},
		out:     out,
		logger:  logger,
		now:     time.Now,
		current: models.AgentLexi,
		threads: map[models.AgentID]*chatctx.Thread{
			models.AgentLexi: {Agent: models.AgentLexi, Context: chatctx.Main(), LastActivity: time.Now()},
		},
		active: chatctx.Main(),
	}
}

func (s *chatSession) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	s.prompt()
	for scanner.Scan() {
		if quit := s.handleLine(scanner.Text()); quit {
			return nil
		}
		s.prompt()
	}
	return scanner.Err()
}

func (s *chatSession) prompt() {
	fmt.Fprintf(s.out, "%s> ", color.New(agentColor(s.current)).Sprint(s.current))
}

// handleLine processes one input line. It returns true when the user quits.
func (s *chatSession) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, "/") {
		return s.handleCommand(line)
	}
	s.route(line)
	return false
}

func (s *chatSession) handleCommand(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/main":
		s.active = chatctx.Main()
		fmt.Fprintln(s.out, "Back to the general conversation.")
	case "/lead":
		if len(fields) < 2 {
			fmt.Fprintln(s.out, "usage: /lead <id> <name>")
			return false
		}
		name := strings.Join(fields[2:], " ")
		s.active = chatctx.FromLead(fields[1], chatctx.Metadata{ProjectName: name})
		fmt.Fprintf(s.out, "Context: %s\n", s.active.Title)
	case "/bid":
		if s.active.Type != chatctx.TypeLead {
			fmt.Fprintln(s.out, "Attach a lead with /lead first.")
			return false
		}
		s.active = chatctx.BidFromLead(s.active)
		fmt.Fprintf(s.out, "Context: %s\n", s.active.Title)
	case "/project":
		if s.active.Type != chatctx.TypeBid {
			fmt.Fprintln(s.out, "Move a lead into bid analysis with /bid first.")
			return false
		}
		s.active = chatctx.ProjectFromBid(s.active, s.now())
		fmt.Fprintf(s.out, "Context: %s\n", s.active.Title)
	case "/threads":
		s.printThreads()
	default:
		fmt.Fprintf(s.out, "Unknown command %s\n", fields[0])
	}
	return false
}

func (s *chatSession) request(message string) orchestrator.RoutingRequest {
	open := make([]models.AgentID, 0, len(s.threads))
	for _, a := range models.AllAgents() {
		if _, ok := s.threads[a]; ok {
			open = append(open, a)
		}
	}
	req := orchestrator.RoutingRequest{
		Message:      message,
		CurrentAgent: s.current,
		OpenThreads:  open,
		History:      s.history,
		Profile:      s.profile,
	}
	if s.active.Type != chatctx.TypeMain {
		active := s.active
		req.ActiveContext = &active
	}
	return req
}

func (s *chatSession) route(message string) {
	req := s.request(message)
	d := s.orch.Orchestrate(req)
	s.record(d)

	if !d.Access.HasAccess {
		printTo(s.out, "✗", d.Access.Reason, color.FgYellow)
		return
	}

	if d.Target != s.current {
		fmt.Fprintln(s.out, orchestrator.HandoffMessage(s.current, d.Target, d.Reason))
	}

	now := s.now()
	if d.ShouldOpenNewThread {
		s.threads[d.Target] = &chatctx.Thread{Agent: d.Target, Context: s.active, LastActivity: now}
		fmt.Fprintln(s.out, color.New(agentColor(d.Target)).Sprint(chatctx.WelcomeMessage(s.active, d.Target)))
	} else if th, ok := s.threads[d.Target]; ok {
		th.LastActivity = now
	}

	s.current = d.Target
	s.history = append(s.history, orchestrator.HistoryEntry{Agent: d.Target, Message: d.CleanMessage, Timestamp: now})
	if len(s.history) > historyWindow {
		s.history = append([]orchestrator.HistoryEntry(nil), s.history[len(s.history)-historyWindow:]...)
	}
}

func (s *chatSession) record(d orchestrator.RoutingDecision) {
	if s.decisions == nil {
		return
	}
	err := s.decisions.RecordDecision(&state.Decision{
		Target:     d.Target,
		Rule:       string(d.Rule),
		Reason:     d.Reason,
		Intent:     string(d.Intent.Primary),
		Confidence: d.Intent.Confidence,
		NewThread:  d.ShouldOpenNewThread,
		HasAccess:  d.Access.HasAccess,
		CreatedAt:  s.now(),
	})
	if err != nil {
		s.logger.Log("[chat] record decision: %v", err)
	}
}

func (s *chatSession) printThreads() {
	threads := make([]chatctx.Thread, 0, len(s.threads))
	for _, th := range s.threads {
		threads = append(threads, *th)
	}
	for _, g := range chatctx.GroupThreads(threads) {
		fmt.Fprintf(s.out, "%s\n", color.New(color.Bold).Sprint(g.Type))
		for _, th := range g.Threads {
			marker := " "
			if th.Agent == s.current {
				marker = "*"
			}
			fmt.Fprintf(s.out, " %s %-5s %s\n", marker, th.Agent.Name(), th.Context.Title)
		}
	}
}

// printTo is printStatus for an arbitrary writer.
func printTo(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	fmt.Fprintf(w, "%s %s\n", color.New(colorAttr).Sprint(symbol), message)
}
