// Package lifecycle implements the status state machine shared by work items
// and tasks. Each domain has a closed transition table; a status may only
// change along a table edge, except through the administrative force path.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/mbayswater/adjutant/pkg/models"
)

// ErrInvalidTransition indicates a status change the domain's transition
// table does not allow. It signals a logic or ordering bug upstream and is
// never retried automatically.
var ErrInvalidTransition = errors.New("invalid status transition")

// Domain selects which transition table governs a machine.
type Domain string

const (
	// DomainClarification governs clarification work items.
	DomainClarification Domain = "clarification"
	// DomainFeedback governs feedback work items.
	DomainFeedback Domain = "feedback"
	// DomainTask governs individual plan tasks.
	DomainTask Domain = "task"
)

// DomainForKind returns the lifecycle domain for a work-item kind.
func DomainForKind(k models.Kind) Domain {
	if k == models.KindFeedback {
		return DomainFeedback
	}
	return DomainClarification
}

// Transition tables. Statuses absent from a table are unknown to the domain;
// terminal statuses are present with empty successor sets. failed is
// retryable back to pending in every domain, which is what lets the
// scheduler re-poll failed work without dedicated retry logic.
var clarificationTransitions = map[models.Status]map[models.Status]bool{
	models.StatusPending:    {models.StatusProcessing: true, models.StatusCancelled: true},
	models.StatusProcessing: {models.StatusAwaiting: true, models.StatusConfirmed: true, models.StatusFailed: true},
	models.StatusAwaiting:   {models.StatusConfirmed: true, models.StatusCancelled: true, models.StatusExpired: true},
	models.StatusConfirmed:  {},
	models.StatusCancelled:  {},
	models.StatusExpired:    {},
	models.StatusFailed:     {models.StatusPending: true},
}

var feedbackTransitions = map[models.Status]map[models.Status]bool{
	models.StatusPending:   {models.StatusAnalyzing: true, models.StatusFailed: true},
	models.StatusAnalyzing: {models.StatusExecuting: true, models.StatusFailed: true},
	models.StatusExecuting: {models.StatusCompleted: true, models.StatusFailed: true},
	models.StatusCompleted: {},
	models.StatusFailed:    {models.StatusPending: true},
}

var taskTransitions = map[models.Status]map[models.Status]bool{
	models.StatusPending:    {models.StatusInProgress: true},
	models.StatusInProgress: {models.StatusCompleted: true, models.StatusFailed: true},
	models.StatusCompleted:  {},
	models.StatusFailed:     {models.StatusPending: true},
}

func tableFor(d Domain) map[models.Status]map[models.Status]bool {
	switch d {
	case DomainClarification:
		return clarificationTransitions
	case DomainFeedback:
		return feedbackTransitions
	case DomainTask:
		return taskTransitions
	default:
		return nil
	}
}

// CanTransition reports whether the domain's table allows from -> to.
func CanTransition(d Domain, from, to models.Status) bool {
	table := tableFor(d)
	if table == nil {
		return false
	}
	targets, ok := table[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Machine holds the current status and an append-only history for one work
// item or task. It is not safe for concurrent use; a machine belongs to the
// single goroutine driving its item through a dispatch cycle.
type Machine struct {
	domain  Domain
	current models.Status
	history []models.StatusChange
}

// NewMachine creates a machine seeded with the given status. The seed is
// recorded as the first history entry.
func NewMachine(domain Domain, initial models.Status) *Machine {
	return &Machine{
		domain:  domain,
		current: initial,
		history: []models.StatusChange{{Status: initial, At: time.Now()}},
	}
}

// Transition moves the machine to target if the domain's table allows it.
// Re-applying the current status succeeds silently without touching history.
// On a table violation the machine is unchanged and the returned error wraps
// ErrInvalidTransition with the offending pair.
func (m *Machine) Transition(target models.Status) error {
	if target == m.current {
		return nil
	}
	targets, ok := tableFor(m.domain)[m.current]
	if !ok || !targets[target] {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, m.current, target)
	}
	m.commit(target)
	return nil
}

// ForceTransition moves the machine to target regardless of the table. This
// is the administrative escape hatch; it always records history.
func (m *Machine) ForceTransition(target models.Status) {
	m.commit(target)
}

func (m *Machine) commit(target models.Status) {
	m.current = target
	m.history = append(m.history, models.StatusChange{Status: target, At: time.Now()})
}

// Current returns the machine's current status.
func (m *Machine) Current() models.Status {
	return m.current
}

// History returns a copy of the recorded status changes, oldest first.
func (m *Machine) History() []models.StatusChange {
	out := make([]models.StatusChange, len(m.history))
	copy(out, m.history)
	return out
}

// IsTerminal reports whether the domain table maps the current status to an
// empty successor set.
func (m *Machine) IsTerminal() bool {
	targets, ok := tableFor(m.domain)[m.current]
	return ok && len(targets) == 0
}

// IsFailed reports whether the current status is failed or expired.
func (m *Machine) IsFailed() bool {
	return m.current == models.StatusFailed || m.current == models.StatusExpired
}
