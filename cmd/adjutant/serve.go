package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbayswater/adjutant/internal/config"
	iexec "github.com/mbayswater/adjutant/internal/exec"
	"github.com/mbayswater/adjutant/internal/executor"
	"github.com/mbayswater/adjutant/internal/handler"
	"github.com/mbayswater/adjutant/internal/scheduler"
	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/internal/tool"
	"github.com/mbayswater/adjutant/pkg/models"
)

var (
	serveInterval      time.Duration
	serveMaxConcurrent int
	serveWorkDir       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler daemon",
	Long: `Run the Adjutant scheduler until interrupted.

The scheduler polls the store for pending work items, dispatches
clarifications to the analysis handler and feedbacks to the planning and
execution handler, and expires awaiting clarifications that were never
confirmed.

While serving, signal files under the data directory steer the daemon:
  adjutant signal pause   # suspend polling (resume removes it)
  adjutant signal poll    # force an immediate poll
  adjutant signal kill    # stop the daemon

Ctrl+C drains in-flight items before exiting.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 0, "Override the poll interval (e.g. 10s)")
	serveCmd.Flags().IntVar(&serveMaxConcurrent, "max-concurrent", 0, "Override the concurrent item budget")
	serveCmd.Flags().StringVar(&serveWorkDir, "workdir", "", "Working directory for CLI tool invocations (default: current directory)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	adapter, err := buildAdapter(cfg, db)
	if err != nil {
		return err
	}

	workDir := serveWorkDir
	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
	}

	exec := executor.New(adapter, db, workDir)
	clarify := handler.NewClarification(adapter, db, cfg.Tools.Timeout)
	feedback := handler.NewFeedback(adapter, db, db, exec, cfg.BriefingsDir(), cfg.Tools.Timeout)

	schedCfg := scheduler.Config{
		PollInterval:  cfg.Scheduler.PollInterval,
		MaxConcurrent: cfg.Scheduler.MaxConcurrent,
		ExpiryAfter:   cfg.ExpiryAfter(),
	}
	if serveInterval > 0 {
		schedCfg.PollInterval = serveInterval
	}
	if serveMaxConcurrent > 0 {
		schedCfg.MaxConcurrent = serveMaxConcurrent
	}

	sched := scheduler.New(db, clarify, feedback, schedCfg)

	if logger, err := scheduler.NewDebugLogger(cfg.SchedulerLogPath()); err != nil {
		fmt.Printf("Warning: scheduler log unavailable: %v\n", err)
	} else {
		sched.SetDebugLogger(logger)
	}

	if err := sched.WatchSignals(cfg.SignalsDir()); err != nil {
		fmt.Printf("Warning: signal watcher unavailable: %v\n", err)
	}

	sched.Start()
	fmt.Printf("Adjutant serving\n")
	fmt.Printf("  Database: %s\n", cfg.DBPath())
	fmt.Printf("  Poll interval: %s\n", schedCfg.PollInterval)
	fmt.Printf("  Budget: %d concurrent items\n", schedCfg.MaxConcurrent)
	if schedCfg.ExpiryAfter > 0 {
		fmt.Printf("  Awaiting expiry: %s\n", schedCfg.ExpiryAfter)
	}
	fmt.Println("Press Ctrl+C to stop.")

	// Exit on interrupt, or when a kill signal file stops the scheduler.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for sched.IsRunning() {
		select {
		case <-sigCh:
			fmt.Println("\nReceived interrupt, draining active items...")
			sched.Stop()
		case <-ticker.C:
		}
	}

	sched.Close()
	fmt.Println("Stopped.")
	return nil
}

// buildAdapter assembles the tool pool: CLI runners always, the API runner
// only when its credentials resolve.
func buildAdapter(cfg *config.Config, db *store.DB) (*tool.Adapter, error) {
	toolCfg, err := store.LoadToolConfig(cfg.ToolsConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load tool config: %w", err)
	}

	runners := map[models.ToolKind]tool.Runner{
		models.ToolKindCLI: tool.NewCLIRunner(iexec.NewRunner()),
	}

	apiRunner, err := tool.NewAPIRunner(tool.APIConfig{
		APIKey:        cfg.API.APIKey,
		Model:         cfg.API.Model,
		UseAWSBedrock: cfg.API.UseBedrock,
		AWSRegion:     cfg.API.AWSRegion,
		AWSProfile:    cfg.API.AWSProfile,
	})
	if err != nil {
		fmt.Printf("Warning: API backend unavailable: %v\n", err)
	} else {
		runners[models.ToolKindAPI] = apiRunner
	}

	return tool.New(toolCfg, db, runners), nil
}
