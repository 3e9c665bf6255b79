package tool

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	iexec "github.com/mbayswater/adjutant/internal/exec"
	"github.com/mbayswater/adjutant/pkg/models"
)

// Runner invokes one kind of backend. The adapter holds one runner per tool
// kind and routes each pool entry to the matching implementation.
type Runner interface {
	// Invoke runs one prompt against the backend described by spec. The
	// returned result carries whatever output was captured. err is non-nil
	// only when no meaningful exit status exists: spawn failures and
	// timeouts. Quota classification of non-zero exits happens in the
	// adapter, not here.
	Invoke(ctx context.Context, spec models.ToolSpec, prompt, workDir string) (*models.ExecutionResult, error)
}

// CLIRunner invokes command-line backends as subprocesses. The prompt is
// appended as the final argument after the spec's fixed args.
type CLIRunner struct {
	runner iexec.CommandRunner
}

// NewCLIRunner creates a CLIRunner on top of the given command runner.
func NewCLIRunner(runner iexec.CommandRunner) *CLIRunner {
	return &CLIRunner{runner: runner}
}

// Invoke runs the backend subprocess, capturing combined output and exit
// code. The context deadline kills the process; that is reported as a
// timeout rather than whatever exit status the kill produced.
func (r *CLIRunner) Invoke(ctx context.Context, spec models.ToolSpec, prompt, workDir string) (*models.ExecutionResult, error) {
	args := append(append([]string{}, spec.Args...), prompt)

	start := time.Now()
	output, err := r.runner.Run(ctx, workDir, spec.Command, args...)
	elapsed := time.Since(start).Milliseconds()

	result := &models.ExecutionResult{
		Output:     string(output),
		DurationMs: elapsed,
	}

	if err == nil {
		return result, nil
	}

	if ctx.Err() != nil {
		result.ExitCode = -1
		return result, fmt.Errorf("%w after %dms: %v", ErrTimeout, elapsed, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	result.ExitCode = -1
	return result, fmt.Errorf("%w: %s: %v", ErrSpawnFailed, spec.Command, err)
}

// Verify CLIRunner implements Runner at compile time.
var _ Runner = (*CLIRunner)(nil)
