package docgen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mbayswater/adjutant/pkg/models"
)

// WriteBriefing renders a planned feedback item into markdown documents under
// root/<item id>/ and returns the paths written. Items without a plan write
// nothing.
func WriteBriefing(root string, item *models.WorkItem) ([]string, error) {
	if item.Plan == nil {
		return nil, nil
	}

	dir := filepath.Join(root, item.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create briefing dir %s: %w", dir, err)
	}

	docs := []struct {
		name    string
		content string
	}{
		{"spec.md", item.Plan.SpecText},
		{"plan.md", item.Plan.PlanText},
		{"tasks.md", renderTasks(item)},
	}

	var written []string
	for _, doc := range docs {
		if doc.content == "" {
			continue
		}
		path := filepath.Join(dir, doc.name)
		if err := os.WriteFile(path, []byte(doc.content), 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}

	return written, nil
}

// renderTasks produces the task briefing document for a planned item.
func renderTasks(item *models.WorkItem) string {
	if len(item.Plan.Tasks) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("# Tasks\n\n")
	sb.WriteString(fmt.Sprintf("Batch: %s\n\n", item.ID))
	for _, t := range item.Plan.Tasks {
		sb.WriteString(fmt.Sprintf("## %s: %s\n\n", t.ID, t.Title))
		sb.WriteString(fmt.Sprintf("- Project: %s\n", t.Project))
		if len(t.DependsOn) > 0 {
			sb.WriteString(fmt.Sprintf("- Depends on: %s\n", strings.Join(t.DependsOn, ", ")))
		}
		if len(t.Files) > 0 {
			sb.WriteString(fmt.Sprintf("- Files: %s\n", strings.Join(t.Files, ", ")))
		}
		if t.Description != "" {
			sb.WriteString("\n")
			sb.WriteString(t.Description)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
