package models

import "time"

// ToolKind selects how a backend is invoked.
type ToolKind string

const (
	// ToolKindCLI invokes the backend as an external process.
	ToolKindCLI ToolKind = "cli"
	// ToolKindAPI invokes the backend through the Anthropic API.
	ToolKindAPI ToolKind = "api"
)

// ToolSpec configures one execution backend in the pool.
type ToolSpec struct {
	// Name identifies the backend; tool records are keyed by it.
	Name string `yaml:"name" json:"name"`
	// Kind selects the invocation mechanism. Empty means cli.
	Kind ToolKind `yaml:"kind" json:"kind,omitempty"`
	// Command is the executable to run (cli backends).
	Command string `yaml:"command" json:"command,omitempty"`
	// Args are fixed flags passed before the prompt (cli backends).
	Args []string `yaml:"args" json:"args,omitempty"`
	// Enabled excludes the backend from selection entirely when false.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Priority orders the pool; lower is preferred.
	Priority int `yaml:"priority" json:"priority"`
	// Model overrides the default model (api backends).
	Model string `yaml:"model" json:"model,omitempty"`
}

// EffectiveKind returns the invocation kind, defaulting to cli.
func (s ToolSpec) EffectiveKind() ToolKind {
	if s.Kind == "" {
		return ToolKindCLI
	}
	return s.Kind
}

// ToolConfig is the ordered backend pool plus global invocation policy.
type ToolConfig struct {
	// DefaultTool names the backend one-shot callers prefer when they do
	// not ask for a specific one. It never filters the failover pool.
	DefaultTool string `yaml:"default_tool" json:"default_tool,omitempty"`
	// FailureCooldownMs is how long after a failure a backend is excluded
	// from selection, without altering its persisted availability.
	FailureCooldownMs int64 `yaml:"failure_cooldown_ms" json:"failure_cooldown_ms"`
	// TimeoutMs bounds a single backend invocation. Zero means no limit.
	TimeoutMs int64 `yaml:"timeout_ms" json:"timeout_ms"`
	// Tools is the ordered backend list.
	Tools []ToolSpec `yaml:"tools" json:"tools"`
}

// Cooldown returns the failure cooldown as a duration.
func (c *ToolConfig) Cooldown() time.Duration {
	return time.Duration(c.FailureCooldownMs) * time.Millisecond
}

// Timeout returns the per-invocation timeout as a duration.
func (c *ToolConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ToolRecord tracks the observed health of one execution backend. One record
// exists per configured backend, persisted process-wide and updated on every
// invocation attempt.
type ToolRecord struct {
	// Name matches the ToolSpec this record tracks.
	Name string `json:"name"`
	// Available is false only after a quota-classified failure; it returns
	// to true on the next success. Cooldown windows never change it.
	Available bool `json:"available"`
	// LastSuccessAt is when the backend last returned exit code 0.
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	// LastFailureAt is when the backend last failed; drives the cooldown.
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	// AverageResponseMs is a running blend of successful response times.
	// Zero means unknown.
	AverageResponseMs int64 `json:"average_response_ms"`
	// FailureCount counts failures since the last success.
	FailureCount int `json:"failure_count"`
}

// NewToolRecord returns the default record for a backend with no history:
// available, zero failures, unknown response time.
func NewToolRecord(name string) *ToolRecord {
	return &ToolRecord{Name: name, Available: true}
}
