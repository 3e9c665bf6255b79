package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mbayswater/adjutant/internal/config"
	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status [id]",
	Short: "Show work-item state",
	Long: `Display work-item state from the store.

Without arguments, lists items that need attention (awaiting answers or
failed) followed by the most recent items. With an id, shows the full
record: summary, questions and answers, task progress, and the log tail.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Opening the store would create an empty database, so check first.
	if _, err := os.Stat(cfg.DBPath()); os.IsNotExist(err) {
		fmt.Println("No work items yet. Run 'adjutant submit <request>' to get started.")
		return nil
	}

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	if len(args) == 1 {
		return displayItem(db, args[0])
	}
	return displayOverview(db)
}

func displayOverview(db *store.DB) error {
	items, err := db.ListRecent(20)
	if err != nil {
		return fmt.Errorf("list work items: %w", err)
	}
	if len(items) == 0 {
		fmt.Println("No work items yet. Run 'adjutant submit <request>' to get started.")
		return nil
	}

	var attention, rest []*models.WorkItem
	for _, item := range items {
		if item.Status == models.StatusAwaiting || item.Status == models.StatusFailed {
			attention = append(attention, item)
		} else {
			rest = append(rest, item)
		}
	}

	if len(attention) > 0 {
		fmt.Println("Needs attention:")
		for _, item := range attention {
			displayItemLine(item)
		}
		fmt.Println()
	}

	if len(rest) > 0 {
		fmt.Println("Recent work items:")
		for _, item := range rest {
			displayItemLine(item)
		}
	}
	return nil
}

func displayItemLine(item *models.WorkItem) {
	symbol, attr := statusSymbol(item.Status)
	age := formatDuration(time.Since(item.UpdatedAt))
	note := ""
	if item.Status == models.StatusAwaiting {
		if open := item.OpenQuestions(); len(open) > 0 {
			note = fmt.Sprintf("  %d open question(s)", len(open))
		}
	}
	fmt.Printf("  %s %s  %-13s %-10s (%s ago)%s\n",
		color.New(attr).Sprint(symbol), item.ID, item.Kind, item.Status, age, note)
	fmt.Printf("      %s\n", truncateLine(item.RawInput, 72))
}

func displayItem(db *store.DB, id string) error {
	item, err := db.LoadWorkItem(id)
	if err != nil {
		return fmt.Errorf("load work item %s: %w", id, err)
	}
	if item == nil {
		return fmt.Errorf("work item %s not found", id)
	}

	symbol, attr := statusSymbol(item.Status)
	fmt.Printf("Work item: %s\n", item.ID)
	fmt.Printf("  Kind:    %s\n", item.Kind)
	fmt.Printf("  Status:  %s %s\n", color.New(attr).Sprint(symbol), item.Status)
	fmt.Printf("  Scope:   %s\n", item.ProjectScope)
	fmt.Printf("  Created: %s ago\n", formatDuration(time.Since(item.CreatedAt)))
	fmt.Printf("  Updated: %s ago\n", formatDuration(time.Since(item.UpdatedAt)))
	if item.OriginClarificationID != "" {
		fmt.Printf("  Origin:  %s\n", item.OriginClarificationID)
	}

	fmt.Println("\nRequest:")
	for _, line := range strings.Split(strings.TrimSpace(item.RawInput), "\n") {
		fmt.Printf("  %s\n", line)
	}

	if item.Summary != nil {
		fmt.Println("\nSummary:")
		fmt.Printf("  %s\n", item.Summary.Synopsis)
		displayBullets("Goals", item.Summary.Goals)
		displayBullets("Acceptance criteria", item.Summary.AcceptanceCriteria)
		displayBullets("Ambiguities", item.Summary.Ambiguities)
	}

	if len(item.Questions) > 0 {
		fmt.Println("\nQuestions:")
		for _, q := range item.Questions {
			displayQuestion(q)
		}
		if item.Status == models.StatusAwaiting {
			fmt.Printf("\nAnswer with 'adjutant confirm %s <question-id>=<answer> ...'\n", item.ID)
		}
	}

	if item.Kind == models.KindFeedback {
		if err := displayTasks(db, item); err != nil {
			return err
		}
	}

	return displayLogTail(db, item.ID)
}

func displayBullets(label string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Printf("  %s:\n", label)
	for _, line := range lines {
		fmt.Printf("    - %s\n", line)
	}
}

func displayQuestion(q models.Question) {
	switch {
	case q.Answer != "":
		fmt.Printf("  %s %s: %s\n", color.GreenString("✓"), q.ID, q.Text)
		fmt.Printf("      answer: %s\n", q.Answer)
	case q.Required:
		fmt.Printf("  %s %s: %s\n", color.YellowString("⚠"), q.ID, q.Text)
		if len(q.Options) > 0 {
			fmt.Printf("      options: %s\n", strings.Join(q.Options, ", "))
		}
	default:
		fmt.Printf("  ○ %s: %s\n", q.ID, q.Text)
		if len(q.Options) > 0 {
			fmt.Printf("      options: %s\n", strings.Join(q.Options, ", "))
		}
	}
}

func displayTasks(db *store.DB, item *models.WorkItem) error {
	// Snapshots carry live execution state; the plan copy can lag behind.
	tasks, err := db.LoadTaskSnapshots(item.ID)
	if err != nil {
		return fmt.Errorf("load task snapshots: %w", err)
	}
	if len(tasks) == 0 && item.Plan != nil {
		tasks = item.Plan.Tasks
	}
	if len(tasks) == 0 {
		return nil
	}

	done, failed := 0, 0
	for _, t := range tasks {
		switch t.Status {
		case models.StatusCompleted:
			done++
		case models.StatusFailed:
			failed++
		}
	}

	fmt.Printf("\nTasks (%d/%d done, %d failed):\n", done, len(tasks), failed)
	for _, t := range tasks {
		symbol, attr := statusSymbol(t.Status)
		timing := ""
		if t.StartedAt != nil && t.CompletedAt != nil {
			timing = fmt.Sprintf(" (%s)", formatDuration(t.CompletedAt.Sub(*t.StartedAt)))
		}
		fmt.Printf("  %s %-4s [%s] %s%s\n",
			color.New(attr).Sprint(symbol), t.ID, t.Project, t.Title, timing)
		if t.Status == models.StatusFailed && t.Result != nil && t.Result.Error != "" {
			fmt.Printf("       %s\n", truncateLine(t.Result.Error, 68))
		}
	}
	return nil
}

func displayLogTail(db *store.DB, id string) error {
	logs, err := db.ListLogs(id)
	if err != nil {
		return fmt.Errorf("list logs: %w", err)
	}
	if len(logs) == 0 {
		return nil
	}
	if len(logs) > 8 {
		logs = logs[len(logs)-8:]
	}

	fmt.Println("\nRecent log:")
	for _, entry := range logs {
		fmt.Printf("  %s %-5s %s\n",
			entry.CreatedAt.Local().Format("15:04:05"), entry.Level, entry.Message)
	}
	return nil
}

// statusSymbol maps a lifecycle status to a display symbol and color.
func statusSymbol(s models.Status) (string, color.Attribute) {
	switch s {
	case models.StatusConfirmed, models.StatusCompleted:
		return "✓", color.FgGreen
	case models.StatusFailed, models.StatusCancelled, models.StatusExpired:
		return "✗", color.FgRed
	case models.StatusAwaiting:
		return "⚠", color.FgYellow
	case models.StatusProcessing, models.StatusAnalyzing,
		models.StatusExecuting, models.StatusInProgress:
		return "●", color.FgCyan
	default:
		return "○", color.FgHiBlack
	}
}

// truncateLine collapses a value to its first line and caps its length.
func truncateLine(s string, maxLen int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		maxLen = 4
	}
	return s[:maxLen-3] + "..."
}
