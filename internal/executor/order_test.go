package executor

import (
	"strings"
	"testing"

	"github.com/mbayswater/adjutant/pkg/models"
)

func orderedIDs(tasks []*models.Task) string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return strings.Join(ids, ",")
}

func depTask(id string, deps ...string) *models.Task {
	return &models.Task{
		ID:        id,
		Title:     id,
		Project:   models.ProjectBackend,
		Status:    models.StatusPending,
		DependsOn: deps,
	}
}

func TestOrderTasksPlacesDependenciesFirst(t *testing.T) {
	tasks := []*models.Task{
		depTask("b", "a"),
		depTask("c", "a"),
		depTask("a"),
	}

	if got := orderedIDs(orderTasks(tasks)); got != "a,b,c" {
		t.Errorf("orderTasks() = %s, want a,b,c", got)
	}
}

func TestOrderTasksChain(t *testing.T) {
	tasks := []*models.Task{
		depTask("c", "b"),
		depTask("b", "a"),
		depTask("a"),
	}

	if got := orderedIDs(orderTasks(tasks)); got != "a,b,c" {
		t.Errorf("orderTasks() = %s, want a,b,c", got)
	}
}

func TestOrderTasksPreservesOrderWithoutDependencies(t *testing.T) {
	tasks := []*models.Task{depTask("x"), depTask("y"), depTask("z")}

	if got := orderedIDs(orderTasks(tasks)); got != "x,y,z" {
		t.Errorf("orderTasks() = %s, want x,y,z", got)
	}
}

func TestOrderTasksCycleFallsThrough(t *testing.T) {
	tasks := []*models.Task{
		depTask("a", "b"),
		depTask("b", "a"),
		depTask("c"),
	}

	// The cycle members never become placeable; they are appended after the
	// bound in their original relative order.
	if got := orderedIDs(orderTasks(tasks)); got != "c,a,b" {
		t.Errorf("orderTasks() = %s, want c,a,b", got)
	}
}

func TestOrderTasksUnknownDependencyFallsThrough(t *testing.T) {
	tasks := []*models.Task{
		depTask("b", "zz"),
		depTask("a"),
	}

	if got := orderedIDs(orderTasks(tasks)); got != "a,b" {
		t.Errorf("orderTasks() = %s, want a,b", got)
	}
}

func TestOrderTasksEmpty(t *testing.T) {
	if got := orderTasks(nil); len(got) != 0 {
		t.Errorf("orderTasks(nil) returned %d tasks, want 0", len(got))
	}
}
