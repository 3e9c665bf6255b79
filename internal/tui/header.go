package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Header renders the adjutant title bar with refresh status.
type Header struct {
	width       int
	lastRefresh time.Time
	spinner     string
	err         error
}

// NewHeader creates a new Header.
func NewHeader() *Header {
	return &Header{
		width: 80,
	}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// SetRefresh records the time of the last successful poll.
func (h *Header) SetRefresh(t time.Time) {
	h.lastRefresh = t
	h.err = nil
}

// SetSpinner sets the spinner frame shown while a poll is in flight.
// An empty frame hides it.
func (h *Header) SetSpinner(frame string) {
	h.spinner = frame
}

// SetError records a poll failure to surface in the title bar.
func (h *Header) SetError(err error) {
	h.err = err
}

// View renders the header.
func (h *Header) View() string {
	title := titleStyle.Render("ADJUTANT")
	subtitle := dimStyle.Render("work-request watch")

	var status string
	switch {
	case h.err != nil:
		status = failedStyle.Render("✗ " + truncate(h.err.Error(), 48))
	case h.lastRefresh.IsZero():
		status = dimStyle.Render("loading...")
	default:
		status = dimStyle.Render("updated " + h.lastRefresh.Format("15:04:05"))
	}

	left := lipgloss.JoinHorizontal(lipgloss.Center, title, " ", subtitle)
	right := status
	if h.spinner != "" {
		right = h.spinner + " " + right
	}

	gap := h.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Center, left, spacer, right)
}

// Height returns the header height in lines.
func (h *Header) Height() int {
	return 1
}
