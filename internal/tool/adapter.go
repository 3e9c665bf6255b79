package tool

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/pkg/models"
)

// Options modify a single Execute call.
type Options struct {
	// PreferredTool restricts the pool to the named backend. Higher-ranked
	// entries are skipped in place, never reordered.
	PreferredTool string
	// WorkDir is the working directory for CLI backends.
	WorkDir string
	// Timeout overrides the pool-wide invocation timeout when positive.
	Timeout time.Duration
}

// Adapter selects among the configured backends, invokes them with
// quota-aware failover, and maintains each backend's persisted health
// record.
type Adapter struct {
	cfg     *models.ToolConfig
	records store.ToolStore
	runners map[models.ToolKind]Runner

	// now is swappable for cooldown tests.
	now func() time.Time

	// mu serializes record read-modify-write cycles. Invocations run
	// unlocked so concurrent buckets can overlap backend execution.
	mu sync.Mutex
}

// New creates an Adapter over the given pool definition and record store.
func New(cfg *models.ToolConfig, records store.ToolStore, runners map[models.ToolKind]Runner) *Adapter {
	return &Adapter{
		cfg:     cfg,
		records: records,
		runners: runners,
		now:     time.Now,
	}
}

// Config returns the pool definition the adapter was built with.
func (a *Adapter) Config() *models.ToolConfig {
	return a.cfg
}

// SelectPool returns the backends eligible for invocation, freshly ranked.
// Disabled backends are dropped. A backend whose record is marked
// unavailable, or whose last failure is inside the cooldown window, is
// excluded for this call only; the persisted record is never altered by
// selection. Survivors sort by ascending priority, then ascending average
// response time with unmeasured backends last.
func (a *Adapter) SelectPool() ([]models.ToolSpec, error) {
	records, err := a.records.LoadToolRecords()
	if err != nil {
		return nil, fmt.Errorf("load tool records: %w", err)
	}
	now := a.now()
	cooldown := a.cfg.Cooldown()

	var pool []models.ToolSpec
	avg := make(map[string]int64)
	for _, spec := range a.cfg.Tools {
		if !spec.Enabled {
			continue
		}
		rec := records[spec.Name]
		if rec == nil {
			rec = models.NewToolRecord(spec.Name)
		}
		if !effectiveAvailable(rec, now, cooldown) {
			continue
		}
		avg[spec.Name] = rec.AverageResponseMs
		pool = append(pool, spec)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Priority != pool[j].Priority {
			return pool[i].Priority < pool[j].Priority
		}
		ai, aj := avg[pool[i].Name], avg[pool[j].Name]
		if ai == 0 {
			return false
		}
		if aj == 0 {
			return true
		}
		return ai < aj
	})
	return pool, nil
}

// IsAvailable reports whether a named backend would be eligible for
// selection right now. Unknown backends default open.
func (a *Adapter) IsAvailable(name string) (bool, error) {
	rec, err := a.records.LoadToolRecord(name)
	if err != nil {
		return false, fmt.Errorf("load tool record: %w", err)
	}
	if rec == nil {
		return true, nil
	}
	return effectiveAvailable(rec, a.now(), a.cfg.Cooldown()), nil
}

// Execute runs the prompt against the pool in ranked order. Exit 0 returns
// immediately. A quota-pattern failure marks the backend unavailable and
// fails over to the next candidate. Hard failures, spawn failures, and
// timeouts stop the iteration. When no candidate succeeds the returned
// error wraps ErrPoolExhausted around the last per-backend error.
func (a *Adapter) Execute(ctx context.Context, prompt string, opts Options) (*models.ExecutionResult, error) {
	pool, err := a.SelectPool()
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = a.cfg.Timeout()
	}

	var lastErr error

	for _, spec := range pool {
		if opts.PreferredTool != "" && spec.Name != opts.PreferredTool {
			continue
		}

		runner := a.runners[spec.EffectiveKind()]
		if runner == nil {
			lastErr = fmt.Errorf("%w: no runner for kind %q", ErrSpawnFailed, spec.EffectiveKind())
			a.recordFailure(spec.Name, true)
			break
		}

		invCtx := ctx
		var cancel context.CancelFunc
		if timeout > 0 {
			invCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		result, invErr := runner.Invoke(invCtx, spec, prompt, opts.WorkDir)
		if cancel != nil {
			cancel()
		}

		if result != nil {
			result.ToolName = spec.Name
		}

		// Spawn failures and timeouts carry no classifiable exit status.
		// Both are hard: record the failure and stop iterating.
		if invErr != nil {
			if result != nil && result.Error == "" {
				result.Error = invErr.Error()
			}
			lastErr = invErr
			a.recordFailure(spec.Name, true)
			break
		}

		if result.ExitCode == 0 {
			a.recordSuccess(spec.Name, result.DurationMs)
			return result, nil
		}

		detail := failureDetail(result)
		if isQuotaError(result.Output, result.Error) {
			lastErr = fmt.Errorf("%w: %s: %s", ErrQuotaExceeded, spec.Name, detail)
			a.recordFailure(spec.Name, false)
			continue
		}

		lastErr = fmt.Errorf("%w: %s exited %d: %s", ErrHardBackend, spec.Name, result.ExitCode, detail)
		a.recordFailure(spec.Name, true)
		break
	}

	if lastErr == nil {
		if opts.PreferredTool != "" {
			return nil, fmt.Errorf("%w: preferred tool %q is not selectable", ErrPoolExhausted, opts.PreferredTool)
		}
		return nil, fmt.Errorf("%w: no eligible backends", ErrPoolExhausted)
	}
	return nil, fmt.Errorf("%w: %w", ErrPoolExhausted, lastErr)
}

// effectiveAvailable applies the cooldown window on top of the persisted
// availability flag without mutating the record.
func effectiveAvailable(rec *models.ToolRecord, now time.Time, cooldown time.Duration) bool {
	if !rec.Available {
		return false
	}
	if rec.LastFailureAt != nil && now.Sub(*rec.LastFailureAt) < cooldown {
		return false
	}
	return true
}

// recordSuccess persists a successful invocation: the backend is available
// again, the failure count resets, and the rolling average blends in the
// new sample.
func (a *Adapter) recordSuccess(name string, durationMs int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := a.loadOrInitRecord(name)
	rec.Available = true
	rec.FailureCount = 0
	now := a.now()
	rec.LastSuccessAt = &now
	if rec.AverageResponseMs == 0 {
		rec.AverageResponseMs = durationMs
	} else {
		rec.AverageResponseMs = (rec.AverageResponseMs + durationMs) / 2
	}
	if err := a.records.SaveToolRecord(rec); err != nil {
		log.Printf("[tool] warning: failed to save record for %s: %v", name, err)
	}
}

// recordFailure persists a failed invocation. Quota failures clear the
// available flag; hard failures leave it set so only the cooldown window
// gates re-selection.
func (a *Adapter) recordFailure(name string, stillAvailable bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec := a.loadOrInitRecord(name)
	rec.Available = stillAvailable
	rec.FailureCount++
	now := a.now()
	rec.LastFailureAt = &now
	if err := a.records.SaveToolRecord(rec); err != nil {
		log.Printf("[tool] warning: failed to save record for %s: %v", name, err)
	}
}

func (a *Adapter) loadOrInitRecord(name string) *models.ToolRecord {
	rec, err := a.records.LoadToolRecord(name)
	if err != nil {
		log.Printf("[tool] warning: failed to load record for %s: %v", name, err)
	}
	if rec == nil {
		rec = models.NewToolRecord(name)
	}
	return rec
}

// failureDetail condenses a failed result into one error line.
func failureDetail(r *models.ExecutionResult) string {
	s := strings.TrimSpace(r.Error)
	if s == "" {
		s = strings.TrimSpace(r.Output)
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	if s == "" {
		s = "no output"
	}
	return s
}
