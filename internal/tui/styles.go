package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mbayswater/adjutant/pkg/models"
)

// Status icons shared across tabs.
const (
	iconRunning = "[●]"
	iconWaiting = "[◐]"
	iconDone    = "[✓]"
	iconFailed  = "[✗]"
	iconPending = "[○]"
)

// Shared styles.
var (
	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")) // Gray

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")) // Green

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")). // Dark green
			Bold(true)

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	waitingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Orange

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("236"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)
)

// statusIcon returns the styled icon for a work-item or task status.
func statusIcon(status models.Status) string {
	switch status {
	case models.StatusProcessing, models.StatusAnalyzing, models.StatusExecuting, models.StatusInProgress:
		return runningStyle.Render(iconRunning)
	case models.StatusAwaiting:
		return waitingStyle.Render(iconWaiting)
	case models.StatusConfirmed, models.StatusCompleted:
		return doneStyle.Render(iconDone)
	case models.StatusFailed, models.StatusCancelled, models.StatusExpired:
		return failedStyle.Render(iconFailed)
	default:
		return pendingStyle.Render(iconPending)
	}
}

// statusStyle returns the style matching a status icon. Callers pad the text
// before styling so column alignment survives the ANSI escapes.
func statusStyle(status models.Status) lipgloss.Style {
	switch status {
	case models.StatusProcessing, models.StatusAnalyzing, models.StatusExecuting, models.StatusInProgress:
		return runningStyle
	case models.StatusAwaiting:
		return waitingStyle
	case models.StatusConfirmed, models.StatusCompleted:
		return doneStyle
	case models.StatusFailed, models.StatusCancelled, models.StatusExpired:
		return failedStyle
	default:
		return pendingStyle
	}
}

// truncate shortens s to fit maxLen, appending "..." when it had to cut.
func truncate(s string, maxLen int) string {
	if maxLen < 4 {
		maxLen = 4
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatAge renders the distance from t to now in the largest useful unit.
func formatAge(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
