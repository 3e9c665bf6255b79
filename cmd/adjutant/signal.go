package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mbayswater/adjutant/internal/config"
	"github.com/mbayswater/adjutant/internal/scheduler"
)

var signalCmd = &cobra.Command{
	Use:   "signal <pause|resume|poll|kill>",
	Short: "Control a running scheduler through signal files",
	Long: `Drop or remove a signal file that a running 'adjutant serve' watches.

  pause   suspend polling until resumed
  resume  remove the pause file and continue polling
  poll    trigger an immediate poll (the file is consumed)
  kill    stop the scheduler after draining in-flight items

Signal files live in the signals directory under the data directory, so
they work across terminals and over remote mounts.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"pause", "resume", "poll", "kill"},
	RunE:      runSignal,
}

func runSignal(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dir := cfg.SignalsDir()

	switch args[0] {
	case "pause":
		if err := scheduler.WriteSignal(dir, scheduler.SignalPause); err != nil {
			return err
		}
		printStatus("✓", "Scheduler paused. Resume with 'adjutant signal resume'.", color.FgGreen)
	case "resume":
		if err := scheduler.RemoveSignal(dir, scheduler.SignalPause); err != nil {
			return err
		}
		printStatus("✓", "Scheduler resumed.", color.FgGreen)
	case "poll":
		if err := scheduler.WriteSignal(dir, scheduler.SignalPoll); err != nil {
			return err
		}
		printStatus("✓", "Poll requested.", color.FgGreen)
	case "kill":
		if err := scheduler.WriteSignal(dir, scheduler.SignalKill); err != nil {
			return err
		}
		printStatus("✓", "Stop requested. The scheduler drains in-flight items first.", color.FgGreen)
	default:
		return fmt.Errorf("unknown signal %q: want pause, resume, poll, or kill", args[0])
	}
	return nil
}
