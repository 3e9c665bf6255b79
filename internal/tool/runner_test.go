package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	iexec "github.com/mbayswater/adjutant/internal/exec"
	"github.com/mbayswater/adjutant/pkg/models"
)

func TestCLIRunnerInvoke_Success(t *testing.T) {
	r := NewCLIRunner(iexec.NewRunner())
	spec := models.ToolSpec{Name: "echo", Command: "echo", Args: []string{"prefix"}}

	result, err := r.Invoke(context.Background(), spec, "the prompt", "")
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	// The prompt is appended after the fixed args
	if !strings.Contains(result.Output, "prefix the prompt") {
		t.Errorf("Output = %q, want prompt appended after args", result.Output)
	}
}

func TestCLIRunnerInvoke_NonZeroExit(t *testing.T) {
	r := NewCLIRunner(iexec.NewRunner())
	spec := models.ToolSpec{Name: "failer", Command: "sh", Args: []string{"-c", "echo quota exceeded; exit 2"}}

	result, err := r.Invoke(context.Background(), spec, "ignored", "")
	if err != nil {
		t.Fatalf("non-zero exit should not be an invocation error, got %v", err)
	}
	if result.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", result.ExitCode)
	}
	if !strings.Contains(result.Output, "quota exceeded") {
		t.Errorf("Output = %q, want captured output", result.Output)
	}
}

func TestCLIRunnerInvoke_SpawnFailure(t *testing.T) {
	r := NewCLIRunner(iexec.NewRunner())
	spec := models.ToolSpec{Name: "ghost", Command: "adjutant-no-such-binary"}

	result, err := r.Invoke(context.Background(), spec, "ignored", "")
	if !errors.Is(err, ErrSpawnFailed) {
		t.Fatalf("err = %v, want ErrSpawnFailed", err)
	}
	if result == nil || result.ExitCode != -1 {
		t.Errorf("result = %+v, want exit -1", result)
	}
}

func TestCLIRunnerInvoke_Timeout(t *testing.T) {
	r := NewCLIRunner(iexec.NewRunner())
	spec := models.ToolSpec{Name: "sleeper", Command: "sleep", Args: []string{"5"}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := r.Invoke(ctx, spec, "ignored", "")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if result == nil || result.ExitCode != -1 {
		t.Errorf("result = %+v, want exit -1", result)
	}
}
