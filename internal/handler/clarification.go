package handler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mbayswater/adjutant/internal/docgen"
	"github.com/mbayswater/adjutant/internal/lifecycle"
	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/internal/tool"
	"github.com/mbayswater/adjutant/pkg/models"
)

// Invoker runs a prompt through the tool backend pool.
type Invoker interface {
	Execute(ctx context.Context, prompt string, opts tool.Options) (*models.ExecutionResult, error)
}

var _ Invoker = (*tool.Adapter)(nil)

// logItem appends a persisted log line for a work item. Log writes never fail
// the handler.
func logItem(items store.WorkItemStore, itemID string, level store.LogLevel, message string) {
	if err := items.AppendLog(itemID, level, message); err != nil {
		log.Printf("[handler] warning: failed to append log for %s: %v", itemID, err)
	}
}

// Clarification analyzes raw work requests into a summary plus the questions
// that block planning. The scheduler hands items over already persisted as
// processing; Handle moves them on to awaiting or confirmed.
type Clarification struct {
	invoker Invoker
	items   store.WorkItemStore
	timeout time.Duration
}

// NewClarification creates the analysis handler. A zero timeout falls back to
// the adapter's own default.
func NewClarification(invoker Invoker, items store.WorkItemStore, timeout time.Duration) *Clarification {
	return &Clarification{
		invoker: invoker,
		items:   items,
		timeout: timeout,
	}
}

// Handle runs the analysis prompt for a clarification, records the parsed
// summary and questions, and advances the item to awaiting when required
// questions remain open, or straight to confirmed when none do.
func (c *Clarification) Handle(ctx context.Context, item *models.WorkItem) error {
	logItem(c.items, item.ID, store.LogInfo, "analysis started")

	result, err := c.invoker.Execute(ctx, docgen.AnalysisPrompt(item), tool.Options{Timeout: c.timeout})
	if err != nil {
		return fmt.Errorf("analysis invocation: %w", err)
	}

	parsed, err := parseAnalysis(result.Output)
	if err != nil {
		return fmt.Errorf("parse analysis response: %w", err)
	}
	item.Summary = parsed.Summary
	item.Questions = parsed.Questions

	next := models.StatusConfirmed
	if open := item.OpenQuestions(); len(open) > 0 {
		next = models.StatusAwaiting
	}

	machine := lifecycle.NewMachine(lifecycle.DomainClarification, item.Status)
	if err := machine.Transition(next); err != nil {
		return fmt.Errorf("advance clarification: %w", err)
	}
	item.Status = machine.Current()

	if err := c.items.SaveWorkItem(item); err != nil {
		return fmt.Errorf("save clarification: %w", err)
	}

	if next == models.StatusAwaiting {
		logItem(c.items, item.ID, store.LogInfo,
			fmt.Sprintf("analysis done via %s: %d open questions, awaiting confirmation", result.ToolName, len(item.OpenQuestions())))
	} else {
		logItem(c.items, item.ID, store.LogInfo,
			fmt.Sprintf("analysis done via %s: no open questions, confirmed", result.ToolName))
	}
	return nil
}
