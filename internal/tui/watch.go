package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/pkg/models"
)

// recentLimit is how many work items one poll pulls from the store.
const recentLimit = 20

// batchLimit caps how many feedback batches the Tasks tab loads per poll.
const batchLimit = 5

// StatusReader is the read-only store surface the dashboard polls.
type StatusReader interface {
	ListRecent(limit int) ([]*models.WorkItem, error)
	LoadTaskSnapshots(batchID string) ([]*models.Task, error)
	LoadToolRecords() (map[string]*models.ToolRecord, error)
}

var _ StatusReader = (*store.DB)(nil)

// taskBatch is the task snapshot set for one feedback item.
type taskBatch struct {
	itemID string
	tasks  []*models.Task
}

// snapshot is one round of data pulled from the store.
type snapshot struct {
	items   []*models.WorkItem
	batches []taskBatch
	records map[string]*models.ToolRecord
	taken   time.Time
}

// Message types.
type tickMsg time.Time
type snapshotMsg snapshot
type snapshotErrMsg struct{ err error }

// Watch is the dashboard model. It polls the store on a fixed interval and
// renders the latest snapshot; it never writes anything back.
type Watch struct {
	reader   StatusReader
	toolCfg  *models.ToolConfig
	interval time.Duration

	tabs   TabBar
	header *Header
	footer *Footer
	spin   spinner.Model
	body   viewport.Model

	snap     snapshot
	fetching bool
	width    int
	height   int
	quitting bool
}

// NewWatch creates a dashboard over the given store surface. The tool config
// orders the Tools tab; it may be nil when no pool is configured.
func NewWatch(reader StatusReader, toolCfg *models.ToolConfig, interval time.Duration) Watch {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Watch{
		reader:   reader,
		toolCfg:  toolCfg,
		interval: interval,
		tabs:     NewTabBar(),
		header:   NewHeader(),
		footer:   NewFooter(),
		spin:     s,
		body:     viewport.New(80, 20),
	}
}

// NewWatchProgram creates a bubbletea program running the dashboard on the
// alternate screen.
func NewWatchProgram(m Watch) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}

// Init starts the spinner, the first poll and the refresh ticker.
func (m Watch) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, fetchSnapshot(m.reader), tick(m.interval))
}

// tick creates a tick command for auto-refresh.
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchSnapshot pulls one snapshot from the store off the UI loop.
func fetchSnapshot(reader StatusReader) tea.Cmd {
	return func() tea.Msg {
		snap, err := takeSnapshot(reader)
		if err != nil {
			return snapshotErrMsg{err}
		}
		return snapshotMsg(snap)
	}
}

// takeSnapshot reads recent items, their task batches and tool health.
func takeSnapshot(reader StatusReader) (snapshot, error) {
	items, err := reader.ListRecent(recentLimit)
	if err != nil {
		return snapshot{}, fmt.Errorf("list work items: %w", err)
	}

	var batches []taskBatch
	for _, item := range items {
		if item.Kind != models.KindFeedback {
			continue
		}
		if len(batches) >= batchLimit {
			break
		}
		tasks, err := reader.LoadTaskSnapshots(item.ID)
		if err != nil {
			return snapshot{}, fmt.Errorf("load task snapshots for %s: %w", item.ID, err)
		}
		if len(tasks) == 0 {
			continue
		}
		batches = append(batches, taskBatch{itemID: item.ID, tasks: tasks})
	}

	records, err := reader.LoadToolRecords()
	if err != nil {
		return snapshot{}, fmt.Errorf("load tool records: %w", err)
	}

	return snapshot{items: items, batches: batches, records: records, taken: time.Now()}, nil
}

// Update handles messages.
func (m Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if m.fetching {
				return m, nil
			}
			m.fetching = true
			return m, fetchSnapshot(m.reader)
		}
		prev := m.tabs.Active()
		var cmd tea.Cmd
		m.tabs, cmd = m.tabs.Update(msg)
		if m.tabs.Active() != prev {
			m.body.GotoTop()
			m.syncBody()
			return m, cmd
		}
		// Anything left over scrolls the body.
		m.body, cmd = m.body.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.header.SetWidth(msg.Width)
		m.footer.SetWidth(msg.Width)
		m.body.Width = msg.Width
		chrome := lipgloss.Height(m.header.View()) +
			lipgloss.Height(m.tabs.View()) +
			lipgloss.Height(m.footer.View())
		m.body.Height = msg.Height - chrome
		if m.body.Height < 3 {
			m.body.Height = 3
		}
		m.syncBody()
		return m, nil

	case tickMsg:
		// Skip the poll when the previous one has not returned yet.
		if m.fetching {
			return m, tick(m.interval)
		}
		m.fetching = true
		return m, tea.Batch(tick(m.interval), fetchSnapshot(m.reader))

	case snapshotMsg:
		m.fetching = false
		m.snap = snapshot(msg)
		m.header.SetRefresh(m.snap.taken)
		m.header.SetSpinner("")
		m.footer.SetCounts(countItems(m.snap.items))
		m.syncBody()
		return m, nil

	case snapshotErrMsg:
		m.fetching = false
		m.header.SetError(msg.err)
		m.header.SetSpinner("")
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.fetching {
			m.header.SetSpinner(m.spin.View())
		}
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Watch) View() string {
	if m.quitting {
		return ""
	}

	// Refresh content so the body always reflects current state.
	m.body.SetContent(m.activeBody())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		m.tabs.View(),
		m.body.View(),
		m.footer.View(),
	)
}

// activeBody renders the content for the active tab.
func (m Watch) activeBody() string {
	switch m.tabs.Active() {
	case TabIndexTasks:
		return m.viewTasks()
	case TabIndexTools:
		return m.viewTools()
	default:
		return m.viewItems()
	}
}

// syncBody reloads the viewport so its scroll range tracks the content.
func (m *Watch) syncBody() {
	m.body.SetContent(m.activeBody())
}

// viewItems renders the recent work-item list.
func (m Watch) viewItems() string {
	if len(m.snap.items) == 0 {
		return normalStyle.Render("  No work items")
	}

	var b strings.Builder
	b.WriteString(sectionStyle.Render(fmt.Sprintf(" Recent work items (%d)", len(m.snap.items))))
	b.WriteString("\n")

	now := time.Now()
	for i, item := range m.snap.items {
		status := statusStyle(item.Status).Render(fmt.Sprintf("%-10s", string(item.Status)))
		line := fmt.Sprintf(" %s %-24s %-13s %s %4s  %s",
			statusIcon(item.Status),
			item.ID,
			string(item.Kind),
			status,
			formatAge(item.UpdatedAt, now),
			normalStyle.Render(truncate(firstLine(item.RawInput), 40)),
		)
		b.WriteString(line)
		if i < len(m.snap.items)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// viewTasks renders task batches grouped under their feedback item.
func (m Watch) viewTasks() string {
	if len(m.snap.batches) == 0 {
		return normalStyle.Render("  No task batches")
	}

	var b strings.Builder
	for bi, batch := range m.snap.batches {
		done, failed := 0, 0
		for _, t := range batch.tasks {
			switch t.Status {
			case models.StatusCompleted:
				done++
			case models.StatusFailed:
				failed++
			}
		}

		b.WriteString(sectionStyle.Render(fmt.Sprintf(" Batch %s (%d/%d done, %d failed)",
			batch.itemID, done, len(batch.tasks), failed)))
		b.WriteString("\n")

		for _, t := range batch.tasks {
			b.WriteString(fmt.Sprintf("   └─ %s %-4s %s %s",
				statusIcon(t.Status),
				t.ID,
				normalStyle.Render(truncate(t.Title, 44)),
				dimStyle.Render("["+t.Project+"]"),
			))
			b.WriteString("\n")
			if t.Status == models.StatusFailed && t.Result != nil && t.Result.Error != "" {
				b.WriteString("       " + failedStyle.Render(truncate(t.Result.Error, 60)))
				b.WriteString("\n")
			}
		}

		if bi < len(m.snap.batches)-1 {
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// viewTools renders the tool pool with health overlay.
func (m Watch) viewTools() string {
	specs := m.poolSpecs()
	if len(specs) == 0 && len(m.snap.records) == 0 {
		return normalStyle.Render("  No tools configured")
	}

	var b strings.Builder
	b.WriteString(sectionStyle.Render(" Tool pool (priority order)"))
	b.WriteString("\n")

	now := time.Now()
	seen := make(map[string]bool)
	for _, spec := range specs {
		seen[spec.Name] = true
		b.WriteString(m.renderToolLine(spec.Name, spec.Enabled, m.snap.records[spec.Name], now))
		b.WriteString("\n")
	}

	// Records for backends no longer configured still carry history.
	var orphans []string
	for name := range m.snap.records {
		if !seen[name] {
			orphans = append(orphans, name)
		}
	}
	sort.Strings(orphans)
	for _, name := range orphans {
		b.WriteString(m.renderToolLine(name, false, m.snap.records[name], now))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// poolSpecs returns the configured backends ordered by priority.
func (m Watch) poolSpecs() []models.ToolSpec {
	if m.toolCfg == nil {
		return nil
	}
	specs := make([]models.ToolSpec, len(m.toolCfg.Tools))
	copy(specs, m.toolCfg.Tools)
	sort.SliceStable(specs, func(i, j int) bool {
		return specs[i].Priority < specs[j].Priority
	})
	return specs
}

// renderToolLine renders one backend with its health state and stats.
func (m Watch) renderToolLine(name string, enabled bool, rec *models.ToolRecord, now time.Time) string {
	icon := doneStyle.Render(iconDone)
	state := "available"
	switch {
	case !enabled:
		icon = pendingStyle.Render(iconPending)
		state = "disabled"
	case rec != nil && !rec.Available:
		icon = failedStyle.Render(iconFailed)
		state = "unavailable"
	case rec != nil && rec.LastFailureAt != nil && m.toolCfg != nil &&
		now.Sub(*rec.LastFailureAt) < m.toolCfg.Cooldown():
		icon = waitingStyle.Render(iconWaiting)
		state = "cooling down"
	}

	detail := dimStyle.Render("no history")
	if rec != nil {
		var parts []string
		if rec.AverageResponseMs > 0 {
			parts = append(parts, fmt.Sprintf("avg %dms", rec.AverageResponseMs))
		}
		if rec.FailureCount > 0 {
			parts = append(parts, fmt.Sprintf("%d failures", rec.FailureCount))
		}
		if rec.LastFailureAt != nil {
			parts = append(parts, "last failure "+formatAge(*rec.LastFailureAt, now)+" ago")
		} else if rec.LastSuccessAt != nil {
			parts = append(parts, "last success "+formatAge(*rec.LastSuccessAt, now)+" ago")
		}
		if len(parts) > 0 {
			detail = dimStyle.Render(strings.Join(parts, "  "))
		}
	}

	return fmt.Sprintf(" %s %-12s %-12s %s", icon, name, state, detail)
}

// countItems tallies work items into the footer's broad states.
func countItems(items []*models.WorkItem) ItemCounts {
	var c ItemCounts
	for _, item := range items {
		switch item.Status {
		case models.StatusConfirmed, models.StatusCompleted:
			c.Done++
		case models.StatusFailed, models.StatusCancelled, models.StatusExpired:
			c.Failed++
		case models.StatusProcessing, models.StatusAnalyzing, models.StatusExecuting:
			c.Running++
		case models.StatusAwaiting:
			c.Waiting++
		}
	}
	return c
}

// firstLine returns s up to its first newline.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
