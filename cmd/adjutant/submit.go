package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/pkg/models"
)

var (
	submitScope string
	submitKind  string
)

var submitCmd = &cobra.Command{
	Use:   "submit <request...>",
	Short: "Submit a work request",
	Long: `Submit a raw work request for the scheduler to pick up.

By default the request becomes a clarification item: the next poll analyzes
it, produces a summary, and raises clarifying questions. Once those are
answered ('adjutant confirm'), a feedback item is spawned, planned, and
executed.

Use --kind feedback to skip the clarification stage and go straight to
planning and execution.

Pass '-' as the request to read it from stdin:
  cat request.md | adjutant submit -

Examples:
  adjutant submit "add rate limiting to the public API"
  adjutant submit --scope frontend "dark mode toggle in settings"
  adjutant submit --kind feedback --scope fullstack "wire checkout flow"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitScope, "scope", "backend", "Project scope: backend, frontend, or fullstack")
	submitCmd.Flags().StringVar(&submitKind, "kind", "clarification", "Item kind: clarification or feedback")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	raw := strings.Join(args, " ")
	if raw == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		raw = string(data)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("empty request")
	}

	scope := models.ProjectScope(submitScope)
	if !models.ValidScope(scope) {
		return fmt.Errorf("invalid scope %q: must be backend, frontend, or fullstack", submitScope)
	}

	kind := models.Kind(submitKind)
	if !models.ValidKind(kind) {
		return fmt.Errorf("invalid kind %q: must be clarification or feedback", submitKind)
	}

	_, db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	now := time.Now().UTC()
	item := &models.WorkItem{
		ID:           models.NewWorkItemID(now),
		Kind:         kind,
		Status:       models.StatusPending,
		RawInput:     raw,
		ProjectScope: scope,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := db.SaveWorkItem(item); err != nil {
		return fmt.Errorf("save work item: %w", err)
	}
	if err := db.AppendLog(item.ID, store.LogInfo, "submitted"); err != nil {
		fmt.Printf("Warning: failed to record submission log: %v\n", err)
	}

	fmt.Printf("Submitted %s %s\n", item.Kind, item.ID)
	fmt.Printf("  Scope: %s\n", item.ProjectScope)
	fmt.Println("The scheduler picks it up on its next poll. Follow it with 'adjutant status'.")
	return nil
}
