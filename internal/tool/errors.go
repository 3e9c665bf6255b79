// Package tool pools the configured execution backends, invokes them with
// quota-aware failover, and owns the persisted health bookkeeping for each
// backend.
package tool

import "errors"

var (
	// ErrQuotaExceeded marks a backend failure whose output matches quota,
	// rate-limit, or authentication patterns. The adapter fails over to the
	// next backend instead of surfacing it directly.
	ErrQuotaExceeded = errors.New("tool quota exceeded")

	// ErrHardBackend marks a non-quota, non-zero exit. A broken backend
	// configuration will not be fixed by trying a different backend, so
	// hard failures stop the pool iteration.
	ErrHardBackend = errors.New("tool hard failure")

	// ErrSpawnFailed marks a backend process that could not be started.
	// Treated like a hard failure.
	ErrSpawnFailed = errors.New("tool spawn failed")

	// ErrTimeout marks an invocation that exceeded its deadline and was
	// killed. Treated like a hard failure.
	ErrTimeout = errors.New("tool timed out")

	// ErrPoolExhausted marks an Execute call that ran out of candidates
	// without a success. It wraps the last per-backend error observed.
	ErrPoolExhausted = errors.New("tool pool exhausted")
)
