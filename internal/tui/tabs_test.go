package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewTabBar(t *testing.T) {
	bar := NewTabBar()

	if bar.Active() != TabIndexItems {
		t.Errorf("initial active = %d, want %d", bar.Active(), TabIndexItems)
	}
	if len(bar.Tabs()) != 3 {
		t.Errorf("tab count = %d, want 3", len(bar.Tabs()))
	}
}

func TestTabBarCycling(t *testing.T) {
	bar := NewTabBar()

	bar, _ = bar.Update(tea.KeyMsg{Type: tea.KeyTab})
	if bar.Active() != TabIndexTasks {
		t.Errorf("after tab: active = %d, want %d", bar.Active(), TabIndexTasks)
	}

	bar, _ = bar.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	bar, _ = bar.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if bar.Active() != TabIndexTools {
		t.Errorf("shift+tab should wrap backwards to %d, got %d", TabIndexTools, bar.Active())
	}
}

func TestTabBarNumberKeys(t *testing.T) {
	bar := NewTabBar()

	bar, _ = bar.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	if bar.Active() != TabIndexTools {
		t.Errorf("after '3': active = %d, want %d", bar.Active(), TabIndexTools)
	}

	bar, _ = bar.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	if bar.Active() != TabIndexItems {
		t.Errorf("after '1': active = %d, want %d", bar.Active(), TabIndexItems)
	}
}

func TestTabBarSetActiveClamps(t *testing.T) {
	bar := NewTabBar()

	bar.SetActive(-5)
	if bar.Active() != 0 {
		t.Errorf("negative index should clamp to 0, got %d", bar.Active())
	}

	bar.SetActive(99)
	if bar.Active() != len(bar.Tabs())-1 {
		t.Errorf("oversized index should clamp to last tab, got %d", bar.Active())
	}
}

func TestTabBarView(t *testing.T) {
	bar := NewTabBar()

	view := bar.View()
	for _, label := range []string{"Items", "Tasks", "Tools"} {
		if !strings.Contains(view, label) {
			t.Errorf("view should contain tab label %q", label)
		}
	}
}
