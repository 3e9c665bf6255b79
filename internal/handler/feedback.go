package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/mbayswater/adjutant/internal/docgen"
	"github.com/mbayswater/adjutant/internal/executor"
	"github.com/mbayswater/adjutant/internal/lifecycle"
	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/internal/tool"
	"github.com/mbayswater/adjutant/pkg/models"
)

// BatchRunner executes a planned task list under a batch id and reports
// whether every bucket succeeded.
type BatchRunner interface {
	Execute(ctx context.Context, batchID string, tasks []*models.Task) bool
}

var _ BatchRunner = (*executor.Executor)(nil)

// Feedback plans a work request into tasks and runs them. The scheduler hands
// items over already persisted as analyzing; Handle carries them through
// executing to completed or failed.
type Feedback struct {
	invoker      Invoker
	items        store.WorkItemStore
	snapshots    store.TaskSnapshotStore
	runner       BatchRunner
	briefingsDir string
	timeout      time.Duration
}

// NewFeedback creates the planning handler. Briefing documents are written
// under briefingsDir per work item; an empty dir disables briefings.
func NewFeedback(invoker Invoker, items store.WorkItemStore, snapshots store.TaskSnapshotStore, runner BatchRunner, briefingsDir string, timeout time.Duration) *Feedback {
	return &Feedback{
		invoker:      invoker,
		items:        items,
		snapshots:    snapshots,
		runner:       runner,
		briefingsDir: briefingsDir,
		timeout:      timeout,
	}
}

// Handle plans the feedback item, persists the plan and its briefing
// documents, then executes the task list. Task failures land the item on
// failed through the ordinary table edge, so Handle only returns an error
// when planning itself breaks.
func (f *Feedback) Handle(ctx context.Context, item *models.WorkItem) error {
	logItem(f.items, item.ID, store.LogInfo, "planning started")

	origin := f.loadOrigin(item)
	result, err := f.invoker.Execute(ctx, docgen.PlanningPrompt(item, origin), tool.Options{Timeout: f.timeout})
	if err != nil {
		return fmt.Errorf("planning invocation: %w", err)
	}

	plan, err := parsePlan(result.Output)
	if err != nil {
		return fmt.Errorf("parse planning response: %w", err)
	}
	item.Plan = plan

	if f.briefingsDir != "" {
		if written, err := docgen.WriteBriefing(f.briefingsDir, item); err != nil {
			logItem(f.items, item.ID, store.LogWarn, fmt.Sprintf("briefing not written: %v", err))
		} else if len(written) > 0 {
			logItem(f.items, item.ID, store.LogInfo, fmt.Sprintf("briefing written: %d documents", len(written)))
		}
	}

	if err := f.snapshots.SaveTaskSnapshots(item.ID, plan.Tasks); err != nil {
		return fmt.Errorf("save task snapshots: %w", err)
	}

	machine := lifecycle.NewMachine(lifecycle.DomainFeedback, item.Status)
	if err := machine.Transition(models.StatusExecuting); err != nil {
		return fmt.Errorf("advance feedback: %w", err)
	}
	item.Status = machine.Current()
	if err := f.items.SaveWorkItem(item); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	logItem(f.items, item.ID, store.LogInfo,
		fmt.Sprintf("plan ready via %s: executing %d tasks", result.ToolName, len(plan.Tasks)))

	ok := f.runner.Execute(ctx, item.ID, plan.Tasks)

	next := models.StatusCompleted
	if !ok {
		next = models.StatusFailed
	}
	if err := machine.Transition(next); err != nil {
		return fmt.Errorf("finish feedback: %w", err)
	}
	item.Status = machine.Current()
	// The executor mutates the task list in place, so this save also records
	// each task's final status and result inside the plan.
	if err := f.items.SaveWorkItem(item); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}

	if ok {
		logItem(f.items, item.ID, store.LogInfo, "completed: all task buckets succeeded")
	} else {
		logItem(f.items, item.ID, store.LogError, "failed: one or more tasks did not complete")
	}
	return nil
}

// loadOrigin fetches the clarification a feedback item descends from, if any.
// A missing or unreadable origin degrades to planning without prior context.
func (f *Feedback) loadOrigin(item *models.WorkItem) *models.WorkItem {
	if item.OriginClarificationID == "" {
		return nil
	}
	origin, err := f.items.LoadWorkItem(item.OriginClarificationID)
	if err != nil {
		logItem(f.items, item.ID, store.LogWarn,
			fmt.Sprintf("origin clarification %s unavailable: %v", item.OriginClarificationID, err))
		return nil
	}
	return origin
}
