package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/config"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/logging"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/orchestrator"
)

var (
	configPath string
	verbose    bool
	debugLog   bool

	logger *logging.DebugLogger
)

var rootCmd = &cobra.Command{
	Use:   "fixit",
	Short: "Contractor agent router and execution monitor",
	Long: `fixit routes contractor messages to the FixItForMe agents and
limits how many agent tasks run at once.

Agents:
- Lexi: onboarding and platform guidance (every tier)
- Alex: bid and cost analysis (scale tier)
- Rex: lead generation (scale tier)

Messages are routed by explicit @mention first, then by keyword intent,
then by the conversation already in progress.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/fixit/config.yaml + .fixit.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write debug logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug-log", false, "Append debug logs to .fixit/logs/debug.log in the current directory")

	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and validates configuration, honouring --config.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger returns the command's debug logger: stderr with --verbose, a
// project log file with --debug-log, otherwise a no-op logger.
func newLogger() *logging.DebugLogger {
	if logger != nil {
		return logger
	}
	switch {
	case verbose:
		logger = logging.NewWriterLogger(os.Stderr)
	case debugLog:
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}
		logger = logging.NewDebugLoggerForProject(cwd)
	default:
		logger = logging.NopLogger()
	}
	return logger
}

// buildOrchestrator creates an orchestrator from config. keywordsFile, when
// set, overrides routing.keywords_file.
func buildOrchestrator(cfg *config.Config, keywordsFile string, logger *logging.DebugLogger) (*orchestrator.Orchestrator, string, error) {
	if keywordsFile == "" {
		keywordsFile = cfg.Routing.KeywordsFile
	}

	opts := []orchestrator.Option{
		orchestrator.WithThresholds(cfg.Routing.HighConfidence, cfg.Routing.IntentFloor),
		orchestrator.WithLogger(logger),
	}
	if keywordsFile != "" {
		table, err := orchestrator.LoadKeywordTable(keywordsFile)
		if err != nil {
			return nil, "", err
		}
		opts = append(opts, orchestrator.WithKeywordTable(table))
	}
	return orchestrator.New(opts...), keywordsFile, nil
}

// printStatus prints a colored symbol followed by a message.
func printStatus(symbol, message string, colorAttr color.Attribute) {
	printTo(os.Stdout, symbol, message, colorAttr)
}
