package executor

import "github.com/mbayswater/adjutant/pkg/models"

// orderTasks sorts one bucket's tasks so dependencies come before dependents.
// It repeatedly scans for tasks whose dependsOn entries are all already
// placed, bounding the passes at twice the task count so cyclic or
// unsatisfiable graphs terminate. Tasks still unplaced at the bound are
// appended in their original relative order and run anyway.
func orderTasks(tasks []*models.Task) []*models.Task {
	ordered := make([]*models.Task, 0, len(tasks))
	placed := make(map[string]bool, len(tasks))

	remaining := make([]*models.Task, len(tasks))
	copy(remaining, tasks)

	maxPasses := 2 * len(tasks)
	for pass := 0; pass < maxPasses && len(remaining) > 0; pass++ {
		var next []*models.Task
		for _, t := range remaining {
			if depsPlaced(t, placed) {
				ordered = append(ordered, t)
				placed[t.ID] = true
			} else {
				next = append(next, t)
			}
		}
		remaining = next
	}

	return append(ordered, remaining...)
}

// depsPlaced reports whether every dependency of t is already in the output.
func depsPlaced(t *models.Task, placed map[string]bool) bool {
	for _, dep := range t.DependsOn {
		if !placed[dep] {
			return false
		}
	}
	return true
}
