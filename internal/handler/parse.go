// Package handler implements the clarification and feedback processors the
// scheduler dispatches work items to, plus the confirmation flow that links
// the two.
package handler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mbayswater/adjutant/pkg/models"
)

// analysisResponse is the JSON body a tool backend returns for an analysis
// prompt.
type analysisResponse struct {
	Summary   *models.Summary   `json:"summary"`
	Questions []models.Question `json:"questions"`
}

// planResponse is the JSON body a tool backend returns for a planning prompt.
type planResponse struct {
	SpecText string         `json:"spec_text"`
	PlanText string         `json:"plan_text"`
	Tasks    []*models.Task `json:"tasks"`
}

// extractJSON pulls the JSON object out of a tool response.
// It handles cases where the JSON might be wrapped in markdown code blocks.
func extractJSON(response string) (string, error) {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
		if idx := strings.LastIndex(response, "```"); idx != -1 {
			response = response[:idx]
		}
		response = strings.TrimSpace(response)
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
		if idx := strings.LastIndex(response, "```"); idx != -1 {
			response = response[:idx]
		}
		response = strings.TrimSpace(response)
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no valid JSON object found in response")
	}
	return response[start : end+1], nil
}

// parseAnalysis extracts the summary and questions from an analysis response.
func parseAnalysis(response string) (*analysisResponse, error) {
	body, err := extractJSON(response)
	if err != nil {
		return nil, err
	}

	var parsed analysisResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	if parsed.Summary == nil {
		return nil, fmt.Errorf("analysis response has no summary")
	}
	return &parsed, nil
}

// parsePlan extracts the plan from a planning response. Parsed tasks start
// their lifecycle as pending.
func parsePlan(response string) (*models.Plan, error) {
	body, err := extractJSON(response)
	if err != nil {
		return nil, err
	}

	var parsed planResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	if err := validatePlan(&parsed); err != nil {
		return nil, err
	}

	for _, t := range parsed.Tasks {
		if t.Status == "" {
			t.Status = models.StatusPending
		}
	}
	return &models.Plan{
		SpecText: parsed.SpecText,
		PlanText: parsed.PlanText,
		Tasks:    parsed.Tasks,
	}, nil
}

// validatePlan performs basic validation on a parsed plan.
func validatePlan(p *planResponse) error {
	for i, t := range p.Tasks {
		if t == nil {
			return fmt.Errorf("task at index %d is null", i)
		}
		if t.ID == "" {
			return fmt.Errorf("task at index %d has empty id", i)
		}
		if t.Title == "" {
			return fmt.Errorf("task %q has empty title", t.ID)
		}
	}
	return nil
}
