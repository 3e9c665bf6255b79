package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/pkg/models"
)

// handlerFunc adapts a function to the Handler interface.
type handlerFunc func(ctx context.Context, item *models.WorkItem) error

func (f handlerFunc) Handle(ctx context.Context, item *models.WorkItem) error {
	return f(ctx, item)
}

// fakeItemStore is an in-memory WorkItemStore that records every save.
type fakeItemStore struct {
	mu    sync.Mutex
	order []string
	items map[string]*models.WorkItem
	logs  map[string][]store.ItemLog
	saves map[string][]models.Status
}

var _ store.WorkItemStore = (*fakeItemStore)(nil)

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{
		items: make(map[string]*models.WorkItem),
		logs:  make(map[string][]store.ItemLog),
		saves: make(map[string][]models.Status),
	}
}

func (f *fakeItemStore) SaveWorkItem(w *models.WorkItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[w.ID]; !ok {
		f.order = append(f.order, w.ID)
	}
	cp := *w
	f.items[w.ID] = &cp
	f.saves[w.ID] = append(f.saves[w.ID], w.Status)
	return nil
}

func (f *fakeItemStore) LoadWorkItem(id string) (*models.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (f *fakeItemStore) ListPendingByPartition(partition string) ([]*models.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.WorkItem
	for _, id := range f.order {
		w := f.items[id]
		if w.Status == models.StatusPending && models.PartitionOf(id) == partition {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeItemStore) ListByStatus(kind models.Kind, status models.Status) ([]*models.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.WorkItem
	for _, id := range f.order {
		w := f.items[id]
		if w.Kind == kind && w.Status == status {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeItemStore) ListRecent(limit int) ([]*models.WorkItem, error) {
	return nil, nil
}

func (f *fakeItemStore) UpdateStatus(id string, status models.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.items[id]; ok {
		w.Status = status
		f.saves[id] = append(f.saves[id], status)
	}
	return nil
}

func (f *fakeItemStore) AppendLog(itemID string, level store.LogLevel, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs[itemID] = append(f.logs[itemID], store.ItemLog{ItemID: itemID, Level: level, Message: message})
	return nil
}

func (f *fakeItemStore) ListLogs(itemID string) ([]store.ItemLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logs[itemID], nil
}

func (f *fakeItemStore) statusOf(id string) models.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.items[id]; ok {
		return w.Status
	}
	return ""
}

func (f *fakeItemStore) savesOf(id string) []models.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves[id]
}

func (f *fakeItemStore) logContaining(id, substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.logs[id] {
		if strings.Contains(l.Message, substr) {
			return true
		}
	}
	return false
}

func testItemID(suffix string) string {
	return models.Partition(time.Now()) + "T100000-" + suffix
}

func seedItem(st *fakeItemStore, kind models.Kind, suffix string, status models.Status, updated time.Time) string {
	id := testItemID(suffix)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.order = append(st.order, id)
	st.items[id] = &models.WorkItem{
		ID:           id,
		Kind:         kind,
		Status:       status,
		RawInput:     "request " + suffix,
		ProjectScope: models.ScopeBackend,
		CreatedAt:    updated,
		UpdatedAt:    updated,
	}
	return id
}

func seedPending(st *fakeItemStore, kind models.Kind, suffix string) string {
	return seedItem(st, kind, suffix, models.StatusPending, time.Now().UTC())
}

func TestPollDispatchesPendingItems(t *testing.T) {
	st := newFakeItemStore()
	clarID := seedPending(st, models.KindClarification, "aaaa1111")
	fbID := seedPending(st, models.KindFeedback, "bbbb2222")

	var mu sync.Mutex
	handled := make(map[string]models.Status)
	record := handlerFunc(func(ctx context.Context, item *models.WorkItem) error {
		mu.Lock()
		defer mu.Unlock()
		handled[item.ID] = item.Status
		return nil
	})

	s := New(st, record, record, Config{PollInterval: time.Hour, MaxConcurrent: 4})
	s.running = true

	s.Poll()

	mu.Lock()
	defer mu.Unlock()
	if got := handled[clarID]; got != models.StatusProcessing {
		t.Errorf("clarification handled with status %s, want processing", got)
	}
	if got := handled[fbID]; got != models.StatusAnalyzing {
		t.Errorf("feedback handled with status %s, want analyzing", got)
	}
	if s.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d after poll, want 0", s.ActiveCount())
	}
}

func TestPollPersistsTransitionBeforeHandler(t *testing.T) {
	st := newFakeItemStore()
	id := seedPending(st, models.KindClarification, "aaaa1111")

	var seen models.Status
	check := handlerFunc(func(ctx context.Context, item *models.WorkItem) error {
		// The store must already hold the new status when the handler runs.
		seen = st.statusOf(item.ID)
		return nil
	})

	s := New(st, check, check, Config{PollInterval: time.Hour, MaxConcurrent: 2})
	s.running = true

	s.Poll()

	if seen != models.StatusProcessing {
		t.Errorf("persisted status at handler time = %s, want processing", seen)
	}
	if got := st.savesOf(id); len(got) == 0 || got[0] != models.StatusProcessing {
		t.Errorf("saves = %v, want processing first", got)
	}
}

func TestPollHandlerFailureForcesFailed(t *testing.T) {
	st := newFakeItemStore()
	badID := seedPending(st, models.KindClarification, "aaaa1111")
	goodID := seedPending(st, models.KindClarification, "bbbb2222")

	h := handlerFunc(func(ctx context.Context, item *models.WorkItem) error {
		if item.ID == badID {
			return fmt.Errorf("analysis blew up")
		}
		return nil
	})

	s := New(st, h, h, Config{PollInterval: time.Hour, MaxConcurrent: 4})
	s.running = true

	s.Poll()

	if got := st.statusOf(badID); got != models.StatusFailed {
		t.Errorf("failed item status = %s, want failed", got)
	}
	if !st.logContaining(badID, "handler failed") {
		t.Error("expected a persisted error log for the failed item")
	}
	// One item failing never blocks the rest of the poll.
	if got := st.statusOf(goodID); got != models.StatusProcessing {
		t.Errorf("second item status = %s, want processing", got)
	}
}

func TestPollStopsDispatchingWhenBudgetFull(t *testing.T) {
	st := newFakeItemStore()
	seedPending(st, models.KindClarification, "aaaa1111")
	seedPending(st, models.KindClarification, "bbbb2222")

	blocker := make(chan struct{})
	started := make(chan string, 2)
	h := handlerFunc(func(ctx context.Context, item *models.WorkItem) error {
		started <- item.ID
		<-blocker
		return nil
	})

	s := New(st, h, h, Config{PollInterval: time.Hour, MaxConcurrent: 1})
	s.running = true

	go s.Poll()
	first := <-started

	// A second overlapping poll finds the budget exhausted and dispatches
	// nothing.
	done := make(chan struct{})
	go func() {
		s.Poll()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("overlapping poll did not return")
	}
	select {
	case id := <-started:
		t.Fatalf("second poll dispatched %s while budget was full", id)
	default:
	}

	close(blocker)
	second := <-started
	if first == second {
		t.Errorf("first poll dispatched %s twice", first)
	}
}

func TestPollSkipsAlreadyActiveItem(t *testing.T) {
	st := newFakeItemStore()
	activeID := seedPending(st, models.KindClarification, "aaaa1111")
	otherID := seedPending(st, models.KindClarification, "bbbb2222")

	var mu sync.Mutex
	var handled []string
	h := handlerFunc(func(ctx context.Context, item *models.WorkItem) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, item.ID)
		return nil
	})

	s := New(st, h, h, Config{PollInterval: time.Hour, MaxConcurrent: 4})
	s.running = true
	s.active[activeID] = struct{}{}

	s.Poll()

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || handled[0] != otherID {
		t.Errorf("handled = %v, want only %s", handled, otherID)
	}
	// The poll must not release a claim it never took.
	if s.ActiveCount() != 1 {
		t.Errorf("ActiveCount() = %d, want 1", s.ActiveCount())
	}
}

func TestPollHandlesItemsSequentially(t *testing.T) {
	st := newFakeItemStore()
	seedPending(st, models.KindClarification, "aaaa1111")
	seedPending(st, models.KindClarification, "bbbb2222")
	seedPending(st, models.KindFeedback, "cccc3333")

	var mu sync.Mutex
	inFlight, peak := 0, 0
	h := handlerFunc(func(ctx context.Context, item *models.WorkItem) error {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil
	})

	s := New(st, h, h, Config{PollInterval: time.Hour, MaxConcurrent: 8})
	s.running = true

	s.Poll()

	mu.Lock()
	defer mu.Unlock()
	if peak != 1 {
		t.Errorf("peak concurrent handlers within one poll = %d, want 1", peak)
	}
}

func TestPollSkipsUnknownKind(t *testing.T) {
	st := newFakeItemStore()
	id := seedItem(st, models.Kind("mystery"), "aaaa1111", models.StatusPending, time.Now().UTC())

	called := false
	h := handlerFunc(func(ctx context.Context, item *models.WorkItem) error {
		called = true
		return nil
	})

	s := New(st, h, h, Config{PollInterval: time.Hour, MaxConcurrent: 2})
	s.running = true

	s.Poll()

	if called {
		t.Error("handler should not run for an unknown kind")
	}
	if got := st.savesOf(id); len(got) != 0 {
		t.Errorf("saves = %v, want none", got)
	}
}

func TestStartStopDrainsActiveItems(t *testing.T) {
	st := newFakeItemStore()
	seedPending(st, models.KindClarification, "aaaa1111")

	blocker := make(chan struct{})
	started := make(chan string, 1)
	h := handlerFunc(func(ctx context.Context, item *models.WorkItem) error {
		started <- item.ID
		<-blocker
		return nil
	})

	s := New(st, h, h, Config{PollInterval: time.Hour, MaxConcurrent: 2})
	s.Start()
	<-started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while an item was still in flight")
	case <-time.After(200 * time.Millisecond):
	}

	close(blocker)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after items drained")
	}

	if s.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	if s.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d after drain, want 0", s.ActiveCount())
	}
}

func TestStartTwiceIsNoOp(t *testing.T) {
	st := newFakeItemStore()
	h := handlerFunc(func(ctx context.Context, item *models.WorkItem) error { return nil })

	s := New(st, h, h, Config{PollInterval: time.Hour, MaxConcurrent: 2})
	s.Start()
	s.Start()

	if !s.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	s.Stop()
	if s.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	// The scheduler restarts cleanly after a stop.
	s.Start()
	if !s.IsRunning() {
		t.Error("IsRunning() = false after restart")
	}
	s.Stop()
}

func TestPollExpiresStaleAwaiting(t *testing.T) {
	st := newFakeItemStore()
	oldID := seedItem(st, models.KindClarification, "aaaa1111", models.StatusAwaiting, time.Now().Add(-3*time.Hour))
	freshID := seedItem(st, models.KindClarification, "bbbb2222", models.StatusAwaiting, time.Now().Add(-10*time.Minute))

	s := New(st, nil, nil, Config{PollInterval: time.Hour, MaxConcurrent: 2, ExpiryAfter: time.Hour})
	s.running = true

	s.Poll()

	if got := st.statusOf(oldID); got != models.StatusExpired {
		t.Errorf("stale item status = %s, want expired", got)
	}
	if got := st.statusOf(freshID); got != models.StatusAwaiting {
		t.Errorf("fresh item status = %s, want awaiting", got)
	}
	if !st.logContaining(oldID, "expired") {
		t.Error("expected an expiry log for the stale item")
	}
}

func TestPollSkipsWhilePaused(t *testing.T) {
	st := newFakeItemStore()
	seedPending(st, models.KindClarification, "aaaa1111")

	called := false
	h := handlerFunc(func(ctx context.Context, item *models.WorkItem) error {
		called = true
		return nil
	})

	s := New(st, h, h, Config{PollInterval: time.Hour, MaxConcurrent: 2})
	s.running = true

	dir := t.TempDir()
	if err := s.WatchSignals(dir); err != nil {
		t.Fatalf("WatchSignals() error = %v", err)
	}
	defer s.signals.Close()

	if err := WriteSignal(dir, SignalPause); err != nil {
		t.Fatalf("WriteSignal() error = %v", err)
	}
	s.Poll()
	if called {
		t.Error("poll dispatched work while paused")
	}

	if err := RemoveSignal(dir, SignalPause); err != nil {
		t.Fatalf("RemoveSignal() error = %v", err)
	}
	s.Poll()
	if !called {
		t.Error("poll did not resume after the pause signal was removed")
	}
}

func TestKillSignalStopsScheduler(t *testing.T) {
	st := newFakeItemStore()
	h := handlerFunc(func(ctx context.Context, item *models.WorkItem) error { return nil })

	s := New(st, h, h, Config{PollInterval: 10 * time.Millisecond, MaxConcurrent: 2})
	dir := t.TempDir()
	if err := s.WatchSignals(dir); err != nil {
		t.Fatalf("WatchSignals() error = %v", err)
	}
	defer s.signals.Close()

	s.Start()
	if err := WriteSignal(dir, SignalKill); err != nil {
		t.Fatalf("WriteSignal() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Fatal("scheduler still running after kill signal")
	}
}

func TestSignalWatcherPollCallback(t *testing.T) {
	dir := t.TempDir()

	polled := make(chan struct{}, 1)
	sw, err := NewSignalWatcher(dir, func() {
		select {
		case polled <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewSignalWatcher() error = %v", err)
	}
	defer sw.Close()

	if err := WriteSignal(dir, SignalPoll); err != nil {
		t.Fatalf("WriteSignal() error = %v", err)
	}

	select {
	case <-polled:
	case <-time.After(2 * time.Second):
		t.Fatal("poll signal did not trigger the callback")
	}
}

func TestWriteAndRemoveSignal(t *testing.T) {
	dir := t.TempDir()

	if err := WriteSignal(dir, SignalPause); err != nil {
		t.Fatalf("WriteSignal() error = %v", err)
	}
	sw, err := NewSignalWatcher(dir, nil)
	if err != nil {
		t.Fatalf("NewSignalWatcher() error = %v", err)
	}
	defer sw.Close()

	if !sw.ShouldPause() {
		t.Error("ShouldPause() = false with pause file present")
	}
	if sw.ShouldStop() {
		t.Error("ShouldStop() = true without a kill file")
	}

	if err := RemoveSignal(dir, SignalPause); err != nil {
		t.Fatalf("RemoveSignal() error = %v", err)
	}
	if sw.ShouldPause() {
		t.Error("ShouldPause() = true after removal")
	}

	// Removing an absent signal is not an error.
	if err := RemoveSignal(dir, SignalKill); err != nil {
		t.Errorf("RemoveSignal() on missing file = %v, want nil", err)
	}
}
