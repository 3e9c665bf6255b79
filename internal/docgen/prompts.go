// Package docgen builds the prompts sent to tool backends and renders
// briefing documents from planning output.
package docgen

import (
	"fmt"
	"strings"

	"github.com/mbayswater/adjutant/pkg/models"
)

// analysisInstructions is the preamble for clarification analysis prompts.
const analysisInstructions = `You are analyzing a work request before any implementation starts.

Summarize the request and surface every point that needs clarifying before
work can be planned.

Respond with ONLY a JSON object (no markdown, no explanation) in this format:
{
  "summary": {
    "synopsis": "one-paragraph restatement of the request",
    "goals": ["concrete outcome the request asks for"],
    "acceptance_criteria": ["how completion will be judged"],
    "ambiguities": ["point the request leaves unclear"]
  },
  "questions": [
    {
      "id": "q1",
      "text": "the clarifying question",
      "options": ["suggested answer"],
      "required": true
    }
  ]
}

Only include questions that genuinely block planning. An empty questions
array means the request is ready to confirm as-is.

Work request:
`

// planningInstructions is the preamble for feedback planning prompts.
const planningInstructions = `You are planning a confirmed work request for automated execution.

Produce a short specification, an implementation plan, and a flat task list.
Each task must name its project bucket: "backend" or "frontend". Task
dependencies may only reference task ids in the same bucket; the buckets
execute independently and cannot see each other.

Respond with ONLY a JSON object (no markdown, no explanation) in this format:
{
  "spec_text": "markdown specification body",
  "plan_text": "markdown plan body",
  "tasks": [
    {
      "id": "t1",
      "title": "short task title",
      "description": "detailed instructions",
      "files": ["path/the/task/touches"],
      "project": "backend",
      "depends_on": ["t0"]
    }
  ]
}

Keep tasks small enough to complete in one tool invocation each.

Work request:
`

// AnalysisPrompt builds the prompt that analyzes a clarification request.
func AnalysisPrompt(item *models.WorkItem) string {
	var sb strings.Builder

	sb.WriteString(analysisInstructions)
	sb.WriteString("\nRequest ID: ")
	sb.WriteString(item.ID)
	sb.WriteString("\nProject scope: ")
	sb.WriteString(string(item.ProjectScope))
	sb.WriteString("\n\n")
	sb.WriteString(item.RawInput)
	sb.WriteString("\n")

	return sb.String()
}

// PlanningPrompt builds the prompt that turns a feedback item into an
// execution plan. When the item was confirmed from a clarification, the
// clarification's summary and answered questions seed the prompt.
func PlanningPrompt(item *models.WorkItem, origin *models.WorkItem) string {
	var sb strings.Builder

	sb.WriteString(planningInstructions)
	sb.WriteString("\nRequest ID: ")
	sb.WriteString(item.ID)
	sb.WriteString("\nProject scope: ")
	sb.WriteString(string(item.ProjectScope))
	sb.WriteString("\n\n")
	sb.WriteString(item.RawInput)
	sb.WriteString("\n")

	if origin != nil {
		if origin.Summary != nil {
			sb.WriteString("\n## Prior Analysis\n\n")
			sb.WriteString(origin.Summary.Synopsis)
			sb.WriteString("\n")
			for _, g := range origin.Summary.Goals {
				sb.WriteString(fmt.Sprintf("- Goal: %s\n", g))
			}
			for _, c := range origin.Summary.AcceptanceCriteria {
				sb.WriteString(fmt.Sprintf("- Acceptance: %s\n", c))
			}
		}
		if answered := answeredQuestions(origin); len(answered) > 0 {
			sb.WriteString("\n## Clarified Points\n\n")
			for _, q := range answered {
				sb.WriteString(fmt.Sprintf("- Q: %s\n  A: %s\n", q.Text, q.Answer))
			}
		}
	}

	return sb.String()
}

// answeredQuestions returns the questions on a clarification that received
// answers.
func answeredQuestions(item *models.WorkItem) []models.Question {
	var answered []models.Question
	for _, q := range item.Questions {
		if q.Answer != "" {
			answered = append(answered, q)
		}
	}
	return answered
}

// TaskPrompt builds the prompt for one plan task from its title, description,
// file hints, and dependency context.
func TaskPrompt(t *models.Task) string {
	var sb strings.Builder

	sb.WriteString("You are working on a task.\n\n")
	sb.WriteString("Task ID: ")
	sb.WriteString(t.ID)
	sb.WriteString("\n")
	sb.WriteString("Title: ")
	sb.WriteString(t.Title)
	sb.WriteString("\n")

	if t.Description != "" {
		sb.WriteString("\nDescription:\n")
		sb.WriteString(t.Description)
		sb.WriteString("\n")
	}

	if len(t.Files) > 0 {
		sb.WriteString("\nFiles expected to change:\n")
		for _, f := range t.Files {
			sb.WriteString(fmt.Sprintf("- `%s`\n", f))
		}
	}

	if len(t.DependsOn) > 0 {
		sb.WriteString("\nCompleted prerequisite tasks:\n")
		for _, dep := range t.DependsOn {
			sb.WriteString(fmt.Sprintf("- %s\n", dep))
		}
	}

	sb.WriteString("\nComplete this task. When finished, provide a summary of what was done.\n")

	return sb.String()
}
