package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/mbayswater/adjutant/internal/lifecycle"
	"github.com/mbayswater/adjutant/internal/store"
	"github.com/mbayswater/adjutant/pkg/models"
)

// Confirm records answers on a clarification, moves it to confirmed, and
// spawns the linked feedback item that will plan and execute the work. The
// answers map is keyed by question id; unanswered optional questions are
// fine, unanswered required ones abort the confirmation.
//
// Confirming an already-confirmed clarification is legal and just spawns the
// feedback, which covers clarifications the analysis confirmed on its own.
func Confirm(items store.WorkItemStore, id string, answers map[string]string) (*models.WorkItem, error) {
	item, err := items.LoadWorkItem(id)
	if err != nil {
		return nil, fmt.Errorf("load clarification %s: %w", id, err)
	}
	if item == nil {
		return nil, fmt.Errorf("clarification %s not found", id)
	}
	if item.Kind != models.KindClarification {
		return nil, fmt.Errorf("%s is a %s, not a clarification", id, item.Kind)
	}

	for i := range item.Questions {
		if answer, ok := answers[item.Questions[i].ID]; ok && answer != "" {
			item.Questions[i].Answer = answer
		}
	}
	if open := item.OpenQuestions(); len(open) > 0 {
		ids := make([]string, len(open))
		for i, q := range open {
			ids[i] = q.ID
		}
		return nil, fmt.Errorf("required questions unanswered: %s", strings.Join(ids, ", "))
	}

	machine := lifecycle.NewMachine(lifecycle.DomainClarification, item.Status)
	if err := machine.Transition(models.StatusConfirmed); err != nil {
		return nil, fmt.Errorf("confirm clarification: %w", err)
	}
	item.Status = machine.Current()
	if err := items.SaveWorkItem(item); err != nil {
		return nil, fmt.Errorf("save clarification: %w", err)
	}

	feedback := SpawnFeedback(item)
	if err := items.SaveWorkItem(feedback); err != nil {
		return nil, fmt.Errorf("save feedback: %w", err)
	}

	logItem(items, item.ID, store.LogInfo, fmt.Sprintf("confirmed: spawned feedback %s", feedback.ID))
	logItem(items, feedback.ID, store.LogInfo, fmt.Sprintf("spawned from clarification %s", item.ID))
	return feedback, nil
}

// SpawnFeedback builds the pending feedback item that carries a confirmed
// clarification forward. Answered questions are folded into the raw input so
// the planning prompt sees them even if the origin record later disappears.
func SpawnFeedback(origin *models.WorkItem) *models.WorkItem {
	now := time.Now().UTC()

	var b strings.Builder
	b.WriteString(origin.RawInput)
	for _, q := range origin.Questions {
		if q.Answer == "" {
			continue
		}
		fmt.Fprintf(&b, "\n\n%s\n%s", q.Text, q.Answer)
	}

	return &models.WorkItem{
		ID:                    models.NewWorkItemID(now),
		Kind:                  models.KindFeedback,
		Status:                models.StatusPending,
		RawInput:              b.String(),
		ProjectScope:          origin.ProjectScope,
		Summary:               origin.Summary,
		OriginClarificationID: origin.ID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}
