package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mbayswater/adjutant/internal/config"
	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/internal/tool"
	"github.com/mbayswater/adjutant/pkg/models"
)

var (
	toolsRunTool    string
	toolsRunWorkDir string
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect and exercise the execution backend pool",
	Long: `Manage the execution backend pool.

The pool is defined in tools.yaml under the data directory. Each backend
is a CLI command or an API model; the engine invokes them in priority
order and fails over when a backend runs out of quota.`,
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the pool in selection order with health",
	RunE:  runToolsList,
}

var toolsRunCmd = &cobra.Command{
	Use:   "run <prompt>",
	Short: "Invoke the pool once and print the output",
	Long: `Send a single prompt through the backend pool and print the result.

Uses the same selection and failover path as the scheduler, so this is
the quickest way to verify the pool works end to end.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runToolsRun,
}

var toolsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default tools.yaml",
	RunE:  runToolsInit,
}

func init() {
	toolsRunCmd.Flags().StringVar(&toolsRunTool, "tool", "", "Backend to prefer (skips higher-ranked backends)")
	toolsRunCmd.Flags().StringVar(&toolsRunWorkDir, "workdir", "", "Working directory for CLI backends (default: current directory)")

	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsRunCmd)
	toolsCmd.AddCommand(toolsInitCmd)
}

func runToolsList(cmd *cobra.Command, args []string) error {
	cfg, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	toolCfg, err := store.LoadToolConfig(cfg.ToolsConfigPath())
	if err != nil {
		return fmt.Errorf("load tool config: %w", err)
	}
	records, err := db.LoadToolRecords()
	if err != nil {
		return fmt.Errorf("load tool records: %w", err)
	}

	adapter := tool.New(toolCfg, db, nil)
	pool, err := adapter.SelectPool()
	if err != nil {
		return err
	}

	if len(pool) == 0 {
		fmt.Println("No eligible backends. Check tools.yaml or wait out the cooldown.")
	} else {
		fmt.Println("Selection order:")
		for i, spec := range pool {
			fmt.Printf("  %d. %s %-12s %-4s %s\n",
				i+1, color.GreenString("✓"), spec.Name, spec.EffectiveKind(),
				describeRecord(records[spec.Name]))
		}
	}

	// Everything configured but not selectable, with the reason.
	selected := make(map[string]bool, len(pool))
	for _, spec := range pool {
		selected[spec.Name] = true
	}
	var excluded []string
	for _, spec := range toolCfg.Tools {
		if selected[spec.Name] {
			continue
		}
		symbol, reason := excludeReason(spec, records[spec.Name], toolCfg.Cooldown())
		excluded = append(excluded, fmt.Sprintf("  %s %-12s %-4s %s",
			symbol, spec.Name, spec.EffectiveKind(), reason))
	}
	if len(excluded) > 0 {
		fmt.Println("\nExcluded:")
		for _, line := range excluded {
			fmt.Println(line)
		}
	}

	fmt.Printf("\nCooldown %s, timeout %s (%s)\n",
		toolCfg.Cooldown(), toolCfg.Timeout(), cfg.ToolsConfigPath())
	return nil
}

func describeRecord(rec *models.ToolRecord) string {
	if rec == nil {
		return "no history"
	}
	var parts []string
	if rec.AverageResponseMs > 0 {
		parts = append(parts, fmt.Sprintf("avg %dms", rec.AverageResponseMs))
	}
	if rec.FailureCount > 0 {
		parts = append(parts, fmt.Sprintf("%d failure(s)", rec.FailureCount))
	}
	if rec.LastSuccessAt != nil {
		parts = append(parts, fmt.Sprintf("last success %s ago", formatDuration(time.Since(*rec.LastSuccessAt))))
	}
	if len(parts) == 0 {
		return "no history"
	}
	return strings.Join(parts, ", ")
}

func excludeReason(spec models.ToolSpec, rec *models.ToolRecord, cooldown time.Duration) (string, string) {
	if !spec.Enabled {
		return "○", "disabled in config"
	}
	if rec != nil && !rec.Available {
		return color.RedString("✗"), "unavailable (quota exhausted)"
	}
	if rec != nil && rec.LastFailureAt != nil {
		if remaining := cooldown - time.Since(*rec.LastFailureAt); remaining > 0 {
			return color.YellowString("⚠"), fmt.Sprintf("cooling down (%s left)", formatDuration(remaining))
		}
	}
	return color.YellowString("⚠"), "excluded"
}

func runToolsRun(cmd *cobra.Command, args []string) error {
	cfg, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	adapter, err := buildAdapter(cfg, db)
	if err != nil {
		return err
	}

	workDir := toolsRunWorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	prompt := strings.Join(args, " ")
	result, err := adapter.Execute(ctx, prompt, tool.Options{
		PreferredTool: toolsRunTool,
		WorkDir:       workDir,
		Timeout:       cfg.Tools.Timeout,
	})
	if err != nil {
		return err
	}

	fmt.Print(result.Output)
	if result.Output != "" && !strings.HasSuffix(result.Output, "\n") {
		fmt.Println()
	}
	fmt.Printf("\n%s via %s in %s\n",
		color.GreenString("✓"), result.ToolName, formatDuration(time.Duration(result.DurationMs)*time.Millisecond))
	return nil
}

func runToolsInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	path := cfg.ToolsConfigPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists; edit it instead", path)
	}
	if err := store.SaveToolConfig(path, store.DefaultToolConfig()); err != nil {
		return fmt.Errorf("write tool config: %w", err)
	}
	printStatus("✓", fmt.Sprintf("Wrote default pool to %s", path), color.FgGreen)
	return nil
}
