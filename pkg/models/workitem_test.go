package models

import (
	"strings"
	"testing"
	"time"
)

func TestNewWorkItemIDSortsChronologically(t *testing.T) {
	earlier := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	later := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	a := NewWorkItemID(earlier)
	b := NewWorkItemID(later)

	if !(a < b) {
		t.Errorf("expected id %q to sort before %q", a, b)
	}
}

func TestNewWorkItemIDEmbedsPartition(t *testing.T) {
	created := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)
	id := NewWorkItemID(created)

	if got := PartitionOf(id); got != "20260301" {
		t.Errorf("expected partition 20260301, got %q", got)
	}
	if got := Partition(created); got != "20260301" {
		t.Errorf("expected Partition to return 20260301, got %q", got)
	}
}

func TestNewWorkItemIDUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	local := time.Date(2026, 3, 2, 5, 0, 0, 0, loc) // 2026-03-01 19:00 UTC

	id := NewWorkItemID(local)
	if got := PartitionOf(id); got != "20260301" {
		t.Errorf("expected UTC partition 20260301, got %q", got)
	}
}

func TestNewWorkItemIDsAreUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := NewWorkItemID(now)
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestPartitionOfShortID(t *testing.T) {
	if got := PartitionOf("abc"); got != "" {
		t.Errorf("expected empty partition for short id, got %q", got)
	}
}

func TestStatusValidFor(t *testing.T) {
	cases := []struct {
		status Status
		kind   Kind
		want   bool
	}{
		{StatusPending, KindClarification, true},
		{StatusAwaiting, KindClarification, true},
		{StatusExpired, KindClarification, true},
		{StatusAnalyzing, KindClarification, false},
		{StatusAnalyzing, KindFeedback, true},
		{StatusExecuting, KindFeedback, true},
		{StatusAwaiting, KindFeedback, false},
		{StatusInProgress, KindFeedback, false},
		{Status("bogus"), KindClarification, false},
	}

	for _, tc := range cases {
		if got := tc.status.ValidFor(tc.kind); got != tc.want {
			t.Errorf("ValidFor(%s, %s) = %v, want %v", tc.status, tc.kind, got, tc.want)
		}
	}
}

func TestOpenQuestions(t *testing.T) {
	item := &WorkItem{
		Kind: KindClarification,
		Questions: []Question{
			{ID: "q1", Text: "Which database?", Required: true},
			{ID: "q2", Text: "Which region?", Required: true, Answer: "us-east-1"},
			{ID: "q3", Text: "Anything else?", Required: false},
		},
	}

	open := item.OpenQuestions()
	if len(open) != 1 {
		t.Fatalf("expected 1 open question, got %d", len(open))
	}
	if open[0].ID != "q1" {
		t.Errorf("expected q1 to be open, got %s", open[0].ID)
	}
}

func TestNewWorkItemIDShape(t *testing.T) {
	id := NewWorkItemID(time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC))
	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 {
		t.Fatalf("expected timestamp-suffix shape, got %q", id)
	}
	if len(parts[0]) != 15 {
		t.Errorf("expected 15-char timestamp prefix, got %q", parts[0])
	}
	if len(parts[1]) != 8 {
		t.Errorf("expected 8-char suffix, got %q", parts[1])
	}
}
