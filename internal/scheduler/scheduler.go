package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mbayswater/adjutant/internal/lifecycle"
	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/pkg/models"
)

const (
	defaultPollInterval  = 30 * time.Second
	defaultMaxConcurrent = 2
	drainCheckInterval   = 100 * time.Millisecond
)

// Handler processes one work item to completion. The scheduler has already
// moved the item out of pending and persisted that before calling Handle; a
// returned error forces the item to failed.
type Handler interface {
	Handle(ctx context.Context, item *models.WorkItem) error
}

// Config controls poll cadence, the concurrency budget, and expiry.
type Config struct {
	// PollInterval is the time between polls.
	PollInterval time.Duration
	// MaxConcurrent bounds how many distinct items may be in flight across
	// all overlapping polls.
	MaxConcurrent int
	// ExpiryAfter ages out awaiting clarifications that saw no confirmation.
	// Zero disables expiry.
	ExpiryAfter time.Duration
}

// claimResult says what happened when a poll tried to take an item.
type claimResult int

const (
	claimOK claimResult = iota
	claimDuplicate
	claimBudgetFull
)

// Scheduler polls for pending work items and dispatches them to the handler
// for their kind. Polls may overlap; the active set is the only bound on
// concurrent work.
type Scheduler struct {
	items    store.WorkItemStore
	clarify  Handler
	feedback Handler
	cfg      Config

	mu      sync.Mutex
	running bool
	active  map[string]struct{}
	ticker  *time.Ticker
	done    chan struct{}

	signals *SignalWatcher
	logger  *DebugLogger
	now     func() time.Time
}

// New creates a Scheduler. Poll interval and budget fall back to defaults
// when unset.
func New(items store.WorkItemStore, clarify, feedback Handler, cfg Config) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	return &Scheduler{
		items:    items,
		clarify:  clarify,
		feedback: feedback,
		cfg:      cfg,
		active:   make(map[string]struct{}),
		logger:   NopLogger(),
		now:      time.Now,
	}
}

// SetDebugLogger routes verbose scheduling events to the given logger.
func (s *Scheduler) SetDebugLogger(l *DebugLogger) {
	s.logger = l
}

// WatchSignals starts reacting to signal files under dir: kill stops the
// scheduler, pause suspends polling, poll forces an immediate poll.
func (s *Scheduler) WatchSignals(dir string) error {
	sw, err := NewSignalWatcher(dir, func() { go s.Poll() })
	if err != nil {
		return err
	}
	s.signals = sw
	return nil
}

// Start begins polling. Starting an already running scheduler is a logged
// no-op. The first poll runs immediately rather than waiting one interval.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Printf("[scheduler] warning: already running")
		return
	}
	s.running = true
	s.ticker = time.NewTicker(s.cfg.PollInterval)
	s.done = make(chan struct{})
	s.mu.Unlock()

	log.Printf("[scheduler] started: poll every %s, budget %d", s.cfg.PollInterval, s.cfg.MaxConcurrent)
	s.logger.Log("started: interval=%s budget=%d expiry=%s", s.cfg.PollInterval, s.cfg.MaxConcurrent, s.cfg.ExpiryAfter)

	go s.Poll()
	go s.loop()
}

// loop fires a poll on every tick. Each poll runs in its own goroutine, so a
// slow handler does not delay the next tick; the active set keeps overlapping
// polls from double-dispatching.
func (s *Scheduler) loop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			go s.Poll()
		}
	}
}

// Stop halts the ticker and waits for in-flight items to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.ticker.Stop()
	close(s.done)
	s.mu.Unlock()

	log.Printf("[scheduler] stopping, draining %d active items", s.ActiveCount())
	for s.ActiveCount() > 0 {
		time.Sleep(drainCheckInterval)
	}

	log.Printf("[scheduler] stopped")
	s.logger.Log("stopped")
}

// Close stops the scheduler and releases the signal watcher and debug log.
func (s *Scheduler) Close() {
	s.Stop()
	if s.signals != nil {
		s.signals.Close()
	}
	s.logger.Close()
}

// IsRunning reports whether the scheduler is accepting polls.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ActiveCount returns the number of items currently in flight.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// ActiveIDs returns the ids currently in flight.
func (s *Scheduler) ActiveIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	return ids
}

// Poll fetches today's pending work items and dispatches them in order,
// clarifications before feedbacks. Items are handled sequentially within a
// poll; once the budget is full the rest of the list waits for a later poll.
func (s *Scheduler) Poll() {
	if !s.IsRunning() {
		return
	}

	if s.signals != nil {
		if s.signals.ShouldStop() {
			log.Printf("[scheduler] kill signal received")
			go s.Stop()
			return
		}
		if s.signals.ShouldPause() {
			s.logger.Log("poll skipped: paused")
			return
		}
	}

	s.expireStale()

	partition := models.Partition(s.now())
	items, err := s.items.ListPendingByPartition(partition)
	if err != nil {
		log.Printf("[scheduler] warning: list pending failed: %v", err)
		return
	}
	if len(items) == 0 {
		return
	}
	s.logger.Log("poll: %d pending items in partition %s", len(items), partition)

	for _, item := range items {
		if !s.IsRunning() {
			return
		}
		switch s.claim(item.ID) {
		case claimBudgetFull:
			s.logger.Log("budget full, deferring %s and the rest of this poll", item.ID)
			return
		case claimDuplicate:
			continue
		}
		s.handle(item)
		s.release(item.ID)
	}
}

// claim reserves an item id against the budget.
func (s *Scheduler) claim(id string) claimResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.active) >= s.cfg.MaxConcurrent {
		return claimBudgetFull
	}
	if _, ok := s.active[id]; ok {
		return claimDuplicate
	}
	s.active[id] = struct{}{}
	return claimOK
}

func (s *Scheduler) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

// handle moves an item out of pending, persists that, and runs the handler
// for its kind. A handler error forces the item to failed; it never stops
// the rest of the poll.
func (s *Scheduler) handle(item *models.WorkItem) {
	var next models.Status
	var h Handler
	switch item.Kind {
	case models.KindClarification:
		next, h = models.StatusProcessing, s.clarify
	case models.KindFeedback:
		next, h = models.StatusAnalyzing, s.feedback
	default:
		log.Printf("[scheduler] warning: item %s has unknown kind %q", item.ID, item.Kind)
		return
	}
	if h == nil {
		log.Printf("[scheduler] warning: no handler for %s items", item.Kind)
		return
	}

	machine := lifecycle.NewMachine(lifecycle.DomainForKind(item.Kind), item.Status)
	if err := machine.Transition(next); err != nil {
		log.Printf("[scheduler] warning: item %s: %v", item.ID, err)
		return
	}
	item.Status = machine.Current()
	if err := s.items.SaveWorkItem(item); err != nil {
		log.Printf("[scheduler] warning: failed to save item %s: %v", item.ID, err)
		return
	}
	s.logger.Log("item %s: dispatched as %s", item.ID, item.Status)

	if err := h.Handle(context.Background(), item); err != nil {
		log.Printf("[scheduler] item %s handler failed: %v", item.ID, err)
		// Whatever status the handler left behind, the item lands in failed,
		// which every domain can retry from.
		machine.ForceTransition(models.StatusFailed)
		item.Status = machine.Current()
		if saveErr := s.items.SaveWorkItem(item); saveErr != nil {
			log.Printf("[scheduler] warning: failed to save item %s: %v", item.ID, saveErr)
		}
		s.appendLog(item.ID, store.LogError, fmt.Sprintf("handler failed: %v", err))
		return
	}
	s.logger.Log("item %s: handled, status %s", item.ID, item.Status)
}

// expireStale ages out awaiting clarifications older than the expiry window.
func (s *Scheduler) expireStale() {
	if s.cfg.ExpiryAfter <= 0 {
		return
	}

	items, err := s.items.ListByStatus(models.KindClarification, models.StatusAwaiting)
	if err != nil {
		log.Printf("[scheduler] warning: list awaiting failed: %v", err)
		return
	}

	cutoff := s.now().Add(-s.cfg.ExpiryAfter)
	for _, item := range items {
		if item.UpdatedAt.After(cutoff) {
			continue
		}
		machine := lifecycle.NewMachine(lifecycle.DomainClarification, item.Status)
		if err := machine.Transition(models.StatusExpired); err != nil {
			continue
		}
		item.Status = machine.Current()
		if err := s.items.SaveWorkItem(item); err != nil {
			log.Printf("[scheduler] warning: failed to expire item %s: %v", item.ID, err)
			continue
		}
		s.appendLog(item.ID, store.LogInfo, "expired: no confirmation within window")
		s.logger.Log("item %s expired", item.ID)
	}
}

func (s *Scheduler) appendLog(itemID string, level store.LogLevel, message string) {
	if err := s.items.AppendLog(itemID, level, message); err != nil {
		log.Printf("[scheduler] warning: failed to append log for %s: %v", itemID, err)
	}
}
