package handler

import (
	"context"
	"sync"
	"time"

	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/internal/tool"
	"github.com/mbayswater/adjutant/pkg/models"
)

// fakeStore is an in-memory stand-in for the work-item and snapshot stores.
type fakeStore struct {
	mu        sync.Mutex
	items     map[string]*models.WorkItem
	logs      map[string][]store.ItemLog
	snapshots map[string][]*models.Task
}

var (
	_ store.WorkItemStore     = (*fakeStore)(nil)
	_ store.TaskSnapshotStore = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:     make(map[string]*models.WorkItem),
		logs:      make(map[string][]store.ItemLog),
		snapshots: make(map[string][]*models.Task),
	}
}

func (f *fakeStore) put(w *models.WorkItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *w
	f.items[w.ID] = &cp
}

func (f *fakeStore) SaveWorkItem(w *models.WorkItem) error {
	f.put(w)
	return nil
}

func (f *fakeStore) LoadWorkItem(id string) (*models.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (f *fakeStore) ListPendingByPartition(partition string) ([]*models.WorkItem, error) {
	return nil, nil
}

func (f *fakeStore) ListByStatus(kind models.Kind, status models.Status) ([]*models.WorkItem, error) {
	return nil, nil
}

func (f *fakeStore) ListRecent(limit int) ([]*models.WorkItem, error) {
	return nil, nil
}

func (f *fakeStore) UpdateStatus(id string, status models.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.items[id]; ok {
		w.Status = status
	}
	return nil
}

func (f *fakeStore) AppendLog(itemID string, level store.LogLevel, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs[itemID] = append(f.logs[itemID], store.ItemLog{ItemID: itemID, Level: level, Message: message})
	return nil
}

func (f *fakeStore) ListLogs(itemID string) ([]store.ItemLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logs[itemID], nil
}

func (f *fakeStore) SaveTaskSnapshot(batchID string, t *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[batchID] = append(f.snapshots[batchID], t)
	return nil
}

func (f *fakeStore) SaveTaskSnapshots(batchID string, tasks []*models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[batchID] = append(f.snapshots[batchID], tasks...)
	return nil
}

func (f *fakeStore) LoadTaskSnapshots(batchID string) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshots[batchID], nil
}

func (f *fakeStore) statusOf(id string) models.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.items[id]; ok {
		return w.Status
	}
	return ""
}

func (f *fakeStore) logMessages(id string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, l := range f.logs[id] {
		out = append(out, l.Message)
	}
	return out
}

// scriptedInvoker returns a canned tool response and records every prompt.
type scriptedInvoker struct {
	mu      sync.Mutex
	output  string
	err     error
	prompts []string
}

func (s *scriptedInvoker) Execute(ctx context.Context, prompt string, opts tool.Options) (*models.ExecutionResult, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &models.ExecutionResult{ExitCode: 0, Output: s.output, DurationMs: 12, ToolName: "claude"}, nil
}

func (s *scriptedInvoker) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.prompts) == 0 {
		return ""
	}
	return s.prompts[len(s.prompts)-1]
}

// fakeRunner records the batch it was asked to execute and returns a fixed
// outcome.
type fakeRunner struct {
	ok      bool
	batchID string
	tasks   []*models.Task
}

func (r *fakeRunner) Execute(ctx context.Context, batchID string, tasks []*models.Task) bool {
	r.batchID = batchID
	r.tasks = tasks
	return r.ok
}

const analysisWithQuestions = `{
  "summary": {
    "synopsis": "Add payment processing to the checkout flow",
    "goals": ["Accept card payments"],
    "acceptance_criteria": ["A test-mode charge succeeds end to end"],
    "ambiguities": ["Payment provider not specified"]
  },
  "questions": [
    {"id": "q1", "text": "Which payment provider?", "options": ["stripe", "adyen"], "required": true}
  ]
}`

const analysisNoQuestions = `{
  "summary": {
    "synopsis": "Fix the typo on the pricing page",
    "goals": ["Correct the headline"],
    "acceptance_criteria": ["Page renders the fixed copy"],
    "ambiguities": []
  },
  "questions": []
}`

const planTwoTasks = `{
  "spec_text": "# Payment integration\n\nCharge cards via the provider API.",
  "plan_text": "# Plan\n\nClient first, then the endpoint.",
  "tasks": [
    {"id": "t1", "title": "Add payment client", "description": "Wrap the provider SDK.", "files": ["internal/pay/client.go"], "project": "backend", "depends_on": []},
    {"id": "t2", "title": "Expose checkout endpoint", "project": "backend", "depends_on": ["t1"]}
  ]
}`

func processingClarification(id, raw string) *models.WorkItem {
	now := time.Now().UTC()
	return &models.WorkItem{
		ID:           id,
		Kind:         models.KindClarification,
		Status:       models.StatusProcessing,
		RawInput:     raw,
		ProjectScope: models.ScopeBackend,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func analyzingFeedback(id, raw string) *models.WorkItem {
	now := time.Now().UTC()
	return &models.WorkItem{
		ID:           id,
		Kind:         models.KindFeedback,
		Status:       models.StatusAnalyzing,
		RawInput:     raw,
		ProjectScope: models.ScopeBackend,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
