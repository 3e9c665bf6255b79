package store

import (
	"testing"
	"time"

	"github.com/mbayswater/adjutant/pkg/models"
)

func TestSaveAndLoadTaskSnapshots(t *testing.T) {
	db := setupTestDB(t)

	started := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	tasks := []*models.Task{
		{
			ID:        "T1",
			Title:     "Add session table",
			Project:   models.ProjectBackend,
			Files:     []string{"internal/session/store.go"},
			Status:    models.StatusCompleted,
			StartedAt: &started,
			Result:    &models.ExecutionResult{ExitCode: 0, Output: "done", ToolName: "claude", DurationMs: 1200},
		},
		{
			ID:        "T2",
			Title:     "Expire idle sessions",
			Project:   models.ProjectBackend,
			DependsOn: []string{"T1"},
			Status:    models.StatusPending,
		},
	}
	for _, task := range tasks {
		if err := db.SaveTaskSnapshot("batch-1", task); err != nil {
			t.Fatalf("SaveTaskSnapshot failed: %v", err)
		}
	}

	got, err := db.LoadTaskSnapshots("batch-1")
	if err != nil {
		t.Fatalf("LoadTaskSnapshots failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d tasks, want 2", len(got))
	}

	if got[0].ID != "T1" || got[1].ID != "T2" {
		t.Errorf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].Result == nil || got[0].Result.ToolName != "claude" {
		t.Errorf("result mismatch: %+v", got[0].Result)
	}
	if got[0].StartedAt == nil || !got[0].StartedAt.Equal(started) {
		t.Errorf("StartedAt mismatch: %v", got[0].StartedAt)
	}
	if len(got[1].DependsOn) != 1 || got[1].DependsOn[0] != "T1" {
		t.Errorf("DependsOn mismatch: %+v", got[1].DependsOn)
	}
	if got[1].Result != nil {
		t.Errorf("expected nil result, got %+v", got[1].Result)
	}
}

func TestSaveTaskSnapshot_UpsertByBatchAndTask(t *testing.T) {
	db := setupTestDB(t)

	task := &models.Task{ID: "T1", Title: "Initial", Project: models.ProjectBackend, Status: models.StatusPending}
	if err := db.SaveTaskSnapshot("batch-1", task); err != nil {
		t.Fatalf("SaveTaskSnapshot failed: %v", err)
	}

	// Same task ID in a different batch is a distinct row
	if err := db.SaveTaskSnapshot("batch-2", task); err != nil {
		t.Fatalf("SaveTaskSnapshot failed: %v", err)
	}

	// Re-saving within the same batch replaces the row
	task.Status = models.StatusCompleted
	if err := db.SaveTaskSnapshot("batch-1", task); err != nil {
		t.Fatalf("SaveTaskSnapshot failed: %v", err)
	}

	batch1, err := db.LoadTaskSnapshots("batch-1")
	if err != nil {
		t.Fatalf("LoadTaskSnapshots failed: %v", err)
	}
	if len(batch1) != 1 {
		t.Fatalf("batch-1 has %d tasks, want 1", len(batch1))
	}
	if batch1[0].Status != models.StatusCompleted {
		t.Errorf("Status = %s, want %s", batch1[0].Status, models.StatusCompleted)
	}

	batch2, err := db.LoadTaskSnapshots("batch-2")
	if err != nil {
		t.Fatalf("LoadTaskSnapshots failed: %v", err)
	}
	if len(batch2) != 1 || batch2[0].Status != models.StatusPending {
		t.Errorf("batch-2 should be untouched: %+v", batch2)
	}
}

func TestLoadTaskSnapshots_EmptyBatch(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.LoadTaskSnapshots("no-such-batch")
	if err != nil {
		t.Fatalf("LoadTaskSnapshots failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d tasks, want 0", len(got))
	}
}
