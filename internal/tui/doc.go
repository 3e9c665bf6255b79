// Package tui provides the terminal dashboard for the adjutant watch command.
//
// This package contains a read-only TUI that polls the store on a fixed
// interval and displays:
//   - Recent work items with their lifecycle status
//   - Task batches for feedback items that reached planning
//   - Tool pool health (availability, cooldowns, response times)
//
// The TUI never writes to the store and has no control path into the
// scheduler. Users switch tabs with tab/shift+tab or 1-3 and quit with
// 'q' or Ctrl+C.
//
// Usage:
//
//	model := tui.NewWatch(reader, toolCfg, 500*time.Millisecond)
//	program := tui.NewWatchProgram(model)
//	if _, err := program.Run(); err != nil {
//	    ...
//	}
package tui
