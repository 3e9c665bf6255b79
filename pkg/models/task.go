package models

import "time"

// Project bucket values at execution time. There is no fullstack bucket:
// planning resolves fullstack scope to per-task backend or frontend, and the
// executor treats anything that is not frontend as backend.
const (
	// ProjectBackend is the backend execution bucket.
	ProjectBackend = "backend"
	// ProjectFrontend is the frontend execution bucket.
	ProjectFrontend = "frontend"
)

// Task is one unit of plan work, executed through a tool backend. Tasks are
// owned by the feedback item whose plan spawned them and are mutated in place
// by the task executor; every status change is persisted as a snapshot.
type Task struct {
	// ID identifies the task within its batch.
	ID string `json:"id"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed instructions for the task.
	Description string `json:"description,omitempty"`
	// Files lists paths the task is expected to touch. Advisory only.
	Files []string `json:"files,omitempty"`
	// Project selects the execution bucket (backend or frontend).
	Project string `json:"project"`
	// DependsOn lists task ids that must complete first. Only ids within
	// the same bucket's task list can ever be satisfied.
	DependsOn []string `json:"depends_on,omitempty"`
	// Status is the current state of the task.
	Status Status `json:"status"`
	// Result holds the outcome of the task's backend invocation.
	Result *ExecutionResult `json:"result,omitempty"`
	// StartedAt is when execution began, if it has.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when execution finished, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ValidTaskStatus returns true if the status is a known task value.
func ValidTaskStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// ExecutionResult is the outcome of one backend invocation. The same shape
// serves tool adapter returns and Task.Result.
type ExecutionResult struct {
	// ExitCode is the process exit code; zero means success.
	ExitCode int `json:"exit_code"`
	// Output is the combined stdout/stderr (or API response text).
	Output string `json:"output,omitempty"`
	// Error carries failure detail when the invocation did not succeed.
	Error string `json:"error,omitempty"`
	// DurationMs is the wall-clock invocation time in milliseconds.
	DurationMs int64 `json:"duration_ms"`
	// ToolName names the backend that produced this result.
	ToolName string `json:"tool_name,omitempty"`
}

// Success returns true if the invocation exited cleanly.
func (r *ExecutionResult) Success() bool {
	return r != nil && r.ExitCode == 0 && r.Error == ""
}
