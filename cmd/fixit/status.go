package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/state"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

var (
	statusLimit int
	statusPurge time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recorded sessions and routing decisions",
	Long: `Display what the state database has recorded.

Shows:
  - Session counts by status
  - The most recent execution sessions
  - Routing decision counts by agent
  - The most recent routing decisions`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Number of recent rows to show")
	statusCmd.Flags().DurationVar(&statusPurge, "purge", 0, "Delete finished sessions older than this first (e.g. 720h)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dbPath := cfg.ResolveDBPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No state database yet. Run 'fixit simulate' or 'fixit chat --db' to create one.")
		return nil
	}

	db, err := state.OpenAndMigrate(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if statusPurge > 0 {
		purged, err := db.PurgeOldSessions(statusPurge)
		if err != nil {
			return fmt.Errorf("purge old sessions: %w", err)
		}
		printStatus("✓", fmt.Sprintf("Purged %d session(s) older than %s", purged, statusPurge), color.FgGreen)
	}

	return renderStatus(cmd.OutOrStdout(), db, statusLimit, time.Now())
}

// renderStatus writes the state summary to w.
func renderStatus(w io.Writer, db state.StateStore, limit int, now time.Time) error {
	header := color.New(color.Bold)

	counts, err := db.SessionCounts()
	if err != nil {
		return err
	}
	sessions, err := db.ListSessions(nil, limit)
	if err != nil {
		return err
	}

	header.Fprintln(w, "Sessions")
	fmt.Fprintf(w, "  running %d  completed %d  cancelled %d  failed %d\n",
		counts[models.ExecutionRunning], counts[models.ExecutionCompleted],
		counts[models.ExecutionCancelled], counts[models.ExecutionFailed])
	if len(sessions) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, s := range sessions {
		fmt.Fprintf(w, "  %s %-4s %-9s %3d%% %s ago  %s\n",
			s.ID, s.Agent.Name(), statusText(s.Status), s.Progress,
			now.Sub(s.StartedAt).Round(time.Second), s.CurrentTask)
	}

	decisionCounts, err := db.DecisionCounts()
	if err != nil {
		return err
	}
	decisions, err := db.ListDecisions(limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	header.Fprintln(w, "Routing decisions")
	agents := make([]models.AgentID, 0, len(decisionCounts))
	for a := range decisionCounts {
		agents = append(agents, a)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i] < agents[j] })
	for _, a := range agents {
		fmt.Fprintf(w, "  %-4s %d\n", a.Name(), decisionCounts[a])
	}
	if len(decisions) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, d := range decisions {
		access := ""
		if !d.HasAccess {
			access = " [denied]"
		}
		fmt.Fprintf(w, "  #%d %s %-4s %-10s %s%s\n",
			d.ID, d.CreatedAt.Format("2006-01-02 15:04"), d.Target.Name(), d.Rule, d.Reason, access)
	}
	return nil
}

func statusText(s models.ExecutionStatus) string {
	switch s {
	case models.ExecutionRunning:
		return color.CyanString("%-9s", s)
	case models.ExecutionCompleted:
		return color.GreenString("%-9s", s)
	case models.ExecutionCancelled:
		return color.YellowString("%-9s", s)
	default:
		return color.RedString("%-9s", s)
	}
}
