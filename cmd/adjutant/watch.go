package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard over the work queue",
	Long: `Open a full-screen dashboard that polls the store.

Tabs show recent work items, task batch progress, and tool pool health.
The dashboard is read-only; control a running scheduler with
'adjutant signal' and answer clarifications with 'adjutant confirm'.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	toolCfg, err := store.LoadToolConfig(cfg.ToolsConfigPath())
	if err != nil {
		return fmt.Errorf("load tool config: %w", err)
	}

	m := tui.NewWatch(db, toolCfg, cfg.TUI.RefreshRate)
	if _, err := tui.NewWatchProgram(m).Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
