// Package executor runs plan tasks through tool backends, split into backend
// and frontend buckets that execute concurrently.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mbayswater/adjutant/internal/docgen"
	"github.com/mbayswater/adjutant/internal/lifecycle"
	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/internal/tool"
	"github.com/mbayswater/adjutant/pkg/models"
)

// ErrDependencyUnsatisfied marks a task whose dependencies did not resolve to
// completed tasks within its bucket. The task is skipped, not failed.
var ErrDependencyUnsatisfied = errors.New("task dependency unsatisfied")

// Invoker is the slice of the tool adapter the executor invokes tasks through.
type Invoker interface {
	Execute(ctx context.Context, prompt string, opts tool.Options) (*models.ExecutionResult, error)
}

var _ Invoker = (*tool.Adapter)(nil)

// Recorder is the slice of the store the executor persists through.
type Recorder interface {
	SaveTaskSnapshot(batchID string, t *models.Task) error
	AppendLog(itemID string, level store.LogLevel, message string) error
}

var _ Recorder = (*store.DB)(nil)

// Executor drives batches of plan tasks to terminal status.
type Executor struct {
	invoker  Invoker
	recorder Recorder
	workDir  string
	now      func() time.Time
}

// New creates an Executor that invokes tasks through the given adapter and
// persists snapshots and logs through the given store.
func New(invoker Invoker, recorder Recorder, workDir string) *Executor {
	return &Executor{
		invoker:  invoker,
		recorder: recorder,
		workDir:  workDir,
		now:      time.Now,
	}
}

// Execute partitions a batch's tasks into backend and frontend buckets, runs
// both buckets concurrently, and reports the AND of their outcomes. A failure
// in one bucket never cancels the other.
func (e *Executor) Execute(ctx context.Context, batchID string, tasks []*models.Task) bool {
	frontend, backend := partition(tasks)

	var wg sync.WaitGroup
	var backendOK, frontendOK bool

	wg.Add(2)
	go func() {
		defer wg.Done()
		backendOK = e.runGroup(ctx, batchID, models.ProjectBackend, backend)
	}()
	go func() {
		defer wg.Done()
		frontendOK = e.runGroup(ctx, batchID, models.ProjectFrontend, frontend)
	}()
	wg.Wait()

	return backendOK && frontendOK
}

// partition splits tasks by project. Frontend tasks form one bucket;
// everything else, including blank or unknown projects, goes to backend.
func partition(tasks []*models.Task) (frontend, backend []*models.Task) {
	for _, t := range tasks {
		if t.Project == models.ProjectFrontend {
			frontend = append(frontend, t)
		} else {
			backend = append(backend, t)
		}
	}
	return frontend, backend
}

// runGroup executes one bucket's tasks in dependency order. Tasks that are
// not pending, or whose dependencies do not resolve to completed tasks inside
// this bucket, are skipped without failing the bucket. The first task failure
// aborts the remainder of the bucket. A bucket where nothing runs succeeds
// vacuously.
func (e *Executor) runGroup(ctx context.Context, batchID, group string, tasks []*models.Task) bool {
	if len(tasks) == 0 {
		return true
	}

	ordered := orderTasks(tasks)
	bucket := make(map[string]*models.Task, len(ordered))
	for _, t := range ordered {
		bucket[t.ID] = t
	}

	for _, t := range ordered {
		machine := lifecycle.NewMachine(lifecycle.DomainTask, t.Status)
		if !lifecycle.CanTransition(lifecycle.DomainTask, machine.Current(), models.StatusInProgress) {
			e.logItem(batchID, store.LogInfo, fmt.Sprintf("%s task %s skipped: status %s", group, t.ID, t.Status))
			continue
		}

		if dep := unmetDependency(t, bucket); dep != "" {
			e.logItem(batchID, store.LogWarn, fmt.Sprintf("%s task %s skipped: %v (%s)", group, t.ID, ErrDependencyUnsatisfied, dep))
			continue
		}

		if !e.runTask(ctx, batchID, group, machine, t) {
			return false
		}
	}

	return true
}

// unmetDependency returns the first dependency id that does not resolve to a
// completed task within the bucket. Ids pointing outside the bucket can never
// resolve here.
func unmetDependency(t *models.Task, bucket map[string]*models.Task) string {
	for _, dep := range t.DependsOn {
		d, ok := bucket[dep]
		if !ok || d.Status != models.StatusCompleted {
			return dep
		}
	}
	return ""
}

// runTask drives one pending task to a terminal status, persisting after
// every change.
func (e *Executor) runTask(ctx context.Context, batchID, group string, machine *lifecycle.Machine, t *models.Task) bool {
	if err := machine.Transition(models.StatusInProgress); err != nil {
		e.logItem(batchID, store.LogError, fmt.Sprintf("%s task %s: %v", group, t.ID, err))
		return false
	}
	t.Status = machine.Current()
	started := e.now().UTC()
	t.StartedAt = &started
	e.persist(batchID, t)

	result, invErr := e.invoker.Execute(ctx, docgen.TaskPrompt(t), tool.Options{WorkDir: e.workDir})

	if invErr == nil && result.Success() {
		if err := machine.Transition(models.StatusCompleted); err != nil {
			e.logItem(batchID, store.LogError, fmt.Sprintf("%s task %s: %v", group, t.ID, err))
			return false
		}
		t.Status = machine.Current()
		completed := e.now().UTC()
		t.CompletedAt = &completed
		t.Result = result
		e.persist(batchID, t)
		e.logItem(batchID, store.LogInfo, fmt.Sprintf("%s task %s completed via %s in %dms", group, t.ID, result.ToolName, result.DurationMs))
		return true
	}

	if result == nil {
		result = &models.ExecutionResult{ExitCode: -1}
	}
	if invErr != nil && result.Error == "" {
		result.Error = invErr.Error()
	}
	if err := machine.Transition(models.StatusFailed); err != nil {
		e.logItem(batchID, store.LogError, fmt.Sprintf("%s task %s: %v", group, t.ID, err))
	}
	t.Status = machine.Current()
	t.Result = result
	e.persist(batchID, t)

	detail := result.Error
	if detail == "" {
		detail = fmt.Sprintf("exit code %d", result.ExitCode)
	}
	e.logItem(batchID, store.LogError, fmt.Sprintf("%s task %s failed: %s", group, t.ID, detail))
	return false
}

// persist writes the task snapshot, logging rather than failing when the
// write does not stick.
func (e *Executor) persist(batchID string, t *models.Task) {
	if err := e.recorder.SaveTaskSnapshot(batchID, t); err != nil {
		log.Printf("[executor] warning: failed to save snapshot for task %s: %v", t.ID, err)
	}
}

func (e *Executor) logItem(batchID string, level store.LogLevel, message string) {
	if err := e.recorder.AppendLog(batchID, level, message); err != nil {
		log.Printf("[executor] warning: failed to append log for %s: %v", batchID, err)
	}
}
