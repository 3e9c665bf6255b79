package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// ItemCounts holds the count of work items in each broad state.
type ItemCounts struct {
	Done    int
	Failed  int
	Running int
	Waiting int
}

// Footer renders the status bar and keyboard hints.
type Footer struct {
	width  int
	counts ItemCounts

	// Styles
	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
}

// NewFooter creates a new Footer instance.
func NewFooter() *Footer {
	return &Footer{
		successStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")).
			Bold(true),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
	}
}

// SetWidth sets the footer width.
func (f *Footer) SetWidth(width int) {
	f.width = width
}

// SetCounts updates the work-item counts for display.
func (f *Footer) SetCounts(counts ItemCounts) {
	f.counts = counts
}

// View renders the footer.
func (f *Footer) View() string {
	var left string

	total := f.counts.Done + f.counts.Failed + f.counts.Running + f.counts.Waiting
	if total > 0 {
		left = f.successStyle.Render(fmt.Sprintf("✓%d", f.counts.Done))
		if f.counts.Failed > 0 {
			left += f.errorStyle.Render(fmt.Sprintf(" ✗%d", f.counts.Failed))
		}
		if f.counts.Running > 0 {
			left += fmt.Sprintf(" ⏳%d", f.counts.Running)
		}
		if f.counts.Waiting > 0 {
			left += fmt.Sprintf(" ◐%d", f.counts.Waiting)
		}
	}

	right := hintStyle.Render("tab/1-3 views │ ↑/↓ scroll │ q quit")

	sep := separatorStyle.Render(" │ ")

	if left != "" {
		return left + sep + right
	}
	return right
}
