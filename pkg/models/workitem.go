// Package models defines the shared data types for the adjutant engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status represents a lifecycle status. The full set of values is shared
// across domains; which values are legal for a given domain is defined by
// that domain's transition table.
type Status string

const (
	// StatusPending is the initial status in every domain.
	StatusPending Status = "pending"
	// StatusProcessing indicates a clarification is being analyzed.
	StatusProcessing Status = "processing"
	// StatusAwaiting indicates a clarification is waiting on answers.
	StatusAwaiting Status = "awaiting"
	// StatusConfirmed indicates a clarification was accepted (terminal).
	StatusConfirmed Status = "confirmed"
	// StatusCancelled indicates a work item was withdrawn (terminal).
	StatusCancelled Status = "cancelled"
	// StatusExpired indicates an awaiting clarification aged out (terminal).
	StatusExpired Status = "expired"
	// StatusFailed indicates a failure; always retryable back to pending.
	StatusFailed Status = "failed"
	// StatusAnalyzing indicates a feedback item is being planned.
	StatusAnalyzing Status = "analyzing"
	// StatusExecuting indicates a feedback item's task plan is running.
	StatusExecuting Status = "executing"
	// StatusCompleted indicates a feedback item or task finished (terminal).
	StatusCompleted Status = "completed"
	// StatusInProgress indicates a task is being executed.
	StatusInProgress Status = "in_progress"
)

// Kind discriminates the two work-item domains.
type Kind string

const (
	// KindClarification is a work request that needs analysis and answers.
	KindClarification Kind = "clarification"
	// KindFeedback is a work request that needs planning and execution.
	KindFeedback Kind = "feedback"
)

// ValidKind returns true if the kind is a known value.
func ValidKind(k Kind) bool {
	return k == KindClarification || k == KindFeedback
}

// ValidFor returns true if the status is a known value for the given kind.
func (s Status) ValidFor(k Kind) bool {
	switch k {
	case KindClarification:
		switch s {
		case StatusPending, StatusProcessing, StatusAwaiting, StatusConfirmed,
			StatusCancelled, StatusExpired, StatusFailed:
			return true
		}
	case KindFeedback:
		switch s {
		case StatusPending, StatusAnalyzing, StatusExecuting, StatusCompleted, StatusFailed:
			return true
		}
	}
	return false
}

// ProjectScope describes which part of a project a work item touches.
type ProjectScope string

const (
	// ScopeBackend scopes a work item to backend work.
	ScopeBackend ProjectScope = "backend"
	// ScopeFrontend scopes a work item to frontend work.
	ScopeFrontend ProjectScope = "frontend"
	// ScopeFullstack scopes a work item to both; planning resolves each
	// task to backend or frontend.
	ScopeFullstack ProjectScope = "fullstack"
)

// ValidScope returns true if the scope is a known value.
func ValidScope(s ProjectScope) bool {
	return s == ScopeBackend || s == ScopeFrontend || s == ScopeFullstack
}

// StatusChange is one entry in a lifecycle history.
type StatusChange struct {
	// Status is the status that became current.
	Status Status `json:"status"`
	// At is when the change was recorded.
	At time.Time `json:"at"`
}

// Summary is the structured synopsis produced by analyzing a work request.
type Summary struct {
	// Synopsis is a short free-text restatement of the request.
	Synopsis string `json:"synopsis"`
	// Goals lists the concrete outcomes the request asks for.
	Goals []string `json:"goals,omitempty"`
	// AcceptanceCriteria lists how completion will be judged.
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
	// Ambiguities lists points the request leaves unclear.
	Ambiguities []string `json:"ambiguities,omitempty"`
}

// Question is one clarifying question attached to a clarification.
type Question struct {
	// ID identifies the question within its clarification.
	ID string `json:"id"`
	// Text is the question itself.
	Text string `json:"text"`
	// Options lists suggested answers, if any.
	Options []string `json:"options,omitempty"`
	// Required indicates the question must be answered before confirmation.
	Required bool `json:"required"`
	// Answer holds the chosen answer once provided.
	Answer string `json:"answer,omitempty"`
}

// Plan is the execution plan produced for a feedback item.
type Plan struct {
	// SpecText is the generated specification document body.
	SpecText string `json:"spec_text,omitempty"`
	// PlanText is the generated plan document body.
	PlanText string `json:"plan_text,omitempty"`
	// Tasks is the flat task list executed by the task executor.
	Tasks []*Task `json:"tasks,omitempty"`
}

// WorkItem is a clarification or feedback record tracked through its own
// status lifecycle. The engine holds transient copies only; storage owns the
// authoritative record and every change is written back immediately.
type WorkItem struct {
	// ID is globally unique and lexicographically sortable; it embeds the
	// creation date so the store can partition by day.
	ID string `json:"id"`
	// Kind discriminates clarification from feedback.
	Kind Kind `json:"kind"`
	// Status is the current lifecycle status for the item's domain.
	Status Status `json:"status"`
	// RawInput is the unstructured request text as submitted.
	RawInput string `json:"raw_input"`
	// ProjectScope is the declared scope of the request.
	ProjectScope ProjectScope `json:"project_scope"`
	// Summary is the analysis synopsis, once produced.
	Summary *Summary `json:"summary,omitempty"`
	// Questions holds clarifying questions (clarifications only).
	Questions []Question `json:"questions,omitempty"`
	// Plan holds the execution plan (feedback only).
	Plan *Plan `json:"plan,omitempty"`
	// OriginClarificationID links a feedback item back to the clarification
	// it was confirmed from. Non-owning.
	OriginClarificationID string `json:"origin_clarification_id,omitempty"`
	// CreatedAt is when the item was submitted.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the item was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// OpenQuestions returns the required questions that have no answer yet.
func (w *WorkItem) OpenQuestions() []Question {
	var open []Question
	for _, q := range w.Questions {
		if q.Required && q.Answer == "" {
			open = append(open, q)
		}
	}
	return open
}

// NewWorkItemID returns an id embedding the creation time, so ids sort
// chronologically and share a date prefix with their partition.
func NewWorkItemID(t time.Time) string {
	return t.UTC().Format("20060102T150405") + "-" + uuid.New().String()[:8]
}

// Partition returns the partition key (UTC date) for a point in time.
func Partition(t time.Time) string {
	return t.UTC().Format("20060102")
}

// PartitionOf returns the partition key embedded in a work-item id.
// Returns empty for ids too short to carry one.
func PartitionOf(id string) string {
	if len(id) < 8 {
		return ""
	}
	return id[:8]
}
