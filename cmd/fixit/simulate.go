package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/config"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/execution"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/state"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/tui"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

var (
	simTasks       int
	simStep        time.Duration
	simCancelEvery int
	simTUI         bool
	simNoDB        bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a synthetic agent workload through the execution manager",
	Long: `Start a number of fake agent tasks for the configured contractor and
watch the execution manager admit, queue and finish them.

Examples:
  fixit simulate --tasks 5
  fixit simulate --tasks 8 --step 500ms --cancel-every 3 --tui`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simTasks, "tasks", 4, "Number of tasks to start")
	simulateCmd.Flags().DurationVar(&simStep, "step", 300*time.Millisecond, "Time between progress updates")
	simulateCmd.Flags().IntVar(&simCancelEvery, "cancel-every", 0, "Cancel every Nth task half way (0 disables)")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Show the interactive execution monitor")
	simulateCmd.Flags().BoolVar(&simNoDB, "no-db", false, "Do not record sessions in the state database")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simTasks < 1 {
		return fmt.Errorf("--tasks must be at least 1")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	opts := []execution.Option{
		execution.WithConfig(executionConfig(cfg)),
		execution.WithLogger(logger),
	}
	if !simNoDB {
		db, err := state.OpenAndMigrate(cfg.ResolveDBPath())
		if err != nil {
			return err
		}
		defer db.Close()
		if n, err := db.RecoverInterrupted(time.Now()); err != nil {
			return err
		} else if n > 0 {
			printStatus("!", fmt.Sprintf("Marked %d interrupted session(s) as failed", n), color.FgYellow)
		}
		opts = append(opts, execution.WithRecorder(db))
	}

	user := cfg.Contractor.UserID
	if user == "" {
		user = "simulator"
	}
	mgr := execution.NewManager(execution.StaticIdentity(user), opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	swept := make(chan struct{})
	go func() {
		defer close(swept)
		mgr.Run(ctx)
	}()
	// The sweeper records through db, so it must stop before db closes.
	defer func() {
		stop()
		<-swept
	}()

	plan := simulationPlan{Tasks: simTasks, Step: simStep, CancelEvery: simCancelEvery}

	if simTUI {
		return runSimulationTUI(ctx, mgr, plan, cfg.TUI.RefreshRate)
	}

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range mgr.Events() {
			printEvent(cmd.OutOrStdout(), ev)
		}
	}()

	err = plan.run(ctx, mgr)
	mgr.Close()
	<-printed

	if dropped := mgr.DroppedEvents(); dropped > 0 {
		printStatus("!", fmt.Sprintf("%d event(s) dropped", dropped), color.FgYellow)
	}
	if err != nil {
		return err
	}
	printStatus("✓", fmt.Sprintf("Simulation finished: %d task(s)", plan.Tasks), color.FgGreen)
	return nil
}

// runSimulationTUI shows the monitor while plan runs. It returns only after
// every task has stopped, so nothing records once the caller closes its store.
func runSimulationTUI(ctx context.Context, mgr *execution.Manager, plan simulationPlan, refresh time.Duration, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(tui.NewMonitor(mgr, mgr.Events(), refresh), opts...)

	planDone := make(chan struct{})
	go func() {
		defer close(planDone)
		err := plan.run(ctx, mgr)
		p.Send(tui.SimulationDoneMsg{Err: err})
	}()

	_, err := p.Run()
	cancel()
	<-planDone
	mgr.Close()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// executionConfig maps file config onto manager limits.
func executionConfig(cfg *config.Config) execution.Config {
	return execution.Config{
		MaxConcurrent:   cfg.Execution.MaxConcurrent,
		Timeout:         cfg.Execution.Timeout,
		SweepInterval:   cfg.Execution.SweepInterval,
		CompletionGrace: cfg.Execution.CompletionGrace,
		DefaultEstimate: cfg.Execution.DefaultEstimate,
	}
}

// simulationPlan is a synthetic workload.
type simulationPlan struct {
	Tasks       int
	Step        time.Duration
	CancelEvery int
}

// agentFor cycles through the agents by task index.
func (p simulationPlan) agentFor(i int) models.AgentID {
	agents := models.AllAgents()
	return agents[i%len(agents)]
}

// cancels reports whether task i (zero based) is cancelled half way.
func (p simulationPlan) cancels(i int) bool {
	return p.CancelEvery > 0 && (i+1)%p.CancelEvery == 0
}

var simulatedSteps = []string{
	"Reading request",
	"Gathering data",
	"Analyzing",
	"Drafting response",
	"Reviewing",
}

// run starts every task concurrently and drives each through its steps.
// Tasks beyond the manager's limit wait in its queue.
func (p simulationPlan) run(ctx context.Context, mgr *execution.Manager) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.Tasks; i++ {
		g.Go(func() error { return p.runTask(ctx, mgr, i) })
	}
	return g.Wait()
}

func (p simulationPlan) runTask(ctx context.Context, mgr *execution.Manager, i int) error {
	agent := p.agentFor(i)
	estimate := time.Duration(len(simulatedSteps)) * p.Step
	id, err := mgr.StartExecution(ctx, agent, estimate)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("task %d: %w", i+1, err)
	}

	ticker := time.NewTicker(p.Step)
	defer ticker.Stop()

	for n, task := range simulatedSteps {
		select {
		case <-ctx.Done():
			mgr.CancelExecution(id)
			return nil
		case <-ticker.C:
		}

		progress := (n + 1) * 100 / (len(simulatedSteps) + 1)
		mgr.UpdateExecution(id, execution.ExecutionUpdate{Progress: &progress, CurrentTask: &task})

		if p.cancels(i) && n == len(simulatedSteps)/2 {
			mgr.CancelExecution(id)
			return nil
		}
	}
	mgr.CompleteExecution(id)
	return nil
}

// printEvent writes one manager event as a colored line.
func printEvent(w io.Writer, ev execution.Event) {
	ts := ev.Timestamp.Format("15:04:05")
	name := color.New(agentColor(ev.Agent)).Sprintf("%-4s", ev.Agent.Name())
	var detail string
	switch ev.Type {
	case execution.EventStarted, execution.EventPromoted:
		detail = color.GreenString("%s %s", ev.Type, ev.Session.ID)
	case execution.EventQueued:
		detail = color.YellowString("queued (%d waiting)", ev.QueueLength)
	case execution.EventUpdated:
		detail = fmt.Sprintf("%3d%% %s", ev.Session.Progress, ev.Session.CurrentTask)
	case execution.EventCompleted:
		detail = color.GreenString("completed")
	case execution.EventCancelled:
		detail = color.YellowString("cancelled")
	case execution.EventFailed:
		detail = color.RedString("failed: %s", ev.Session.CurrentTask)
	default:
		detail = color.HiBlackString(string(ev.Type))
	}
	fmt.Fprintf(w, "%s %s %s\n", color.HiBlackString(ts), name, detail)
}
