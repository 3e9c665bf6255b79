package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mbayswater/adjutant/pkg/models"
)

// SaveTaskSnapshot inserts or replaces the snapshot row for one task within
// a batch. Frontend and backend buckets execute concurrently, so rows are
// keyed by (batch_id, task_id) and each write replaces only its own task.
func (db *DB) SaveTaskSnapshot(batchID string, t *models.Task) error {
	var filesJSON, dependsOn, resultJSON *string

	if len(t.Files) > 0 {
		b, err := json.Marshal(t.Files)
		if err != nil {
			return fmt.Errorf("marshal files: %w", err)
		}
		s := string(b)
		filesJSON = &s
	}
	if len(t.DependsOn) > 0 {
		b, err := json.Marshal(t.DependsOn)
		if err != nil {
			return fmt.Errorf("marshal depends_on: %w", err)
		}
		s := string(b)
		dependsOn = &s
	}
	if t.Result != nil {
		b, err := json.Marshal(t.Result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		s := string(b)
		resultJSON = &s
	}

	_, err := db.Exec(`
		INSERT OR REPLACE INTO task_snapshots
			(batch_id, task_id, title, description, files_json, project, depends_on, status, result_json, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, batchID, t.ID, t.Title, t.Description, filesJSON, t.Project, dependsOn,
		string(t.Status), resultJSON, formatNullableTime(t.StartedAt), formatNullableTime(t.CompletedAt))
	if err != nil {
		return fmt.Errorf("save task snapshot: %w", err)
	}
	return nil
}

// SaveTaskSnapshots persists every task in a batch.
func (db *DB) SaveTaskSnapshots(batchID string, tasks []*models.Task) error {
	for _, t := range tasks {
		if err := db.SaveTaskSnapshot(batchID, t); err != nil {
			return err
		}
	}
	return nil
}

// LoadTaskSnapshots retrieves all task snapshots for a batch, ordered by
// task ID.
func (db *DB) LoadTaskSnapshots(batchID string) ([]*models.Task, error) {
	rows, err := db.Query(`
		SELECT task_id, title, description, files_json, project, depends_on, status, result_json, started_at, completed_at
		FROM task_snapshots WHERE batch_id = ? ORDER BY task_id
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("load task snapshots: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		var t models.Task
		var description, filesJSON, project, dependsOn, resultJSON sql.NullString
		var startedAt, completedAt sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &description, &filesJSON, &project,
			&dependsOn, &t.Status, &resultJSON, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan task snapshot: %w", err)
		}
		if description.Valid {
			t.Description = description.String
		}
		if filesJSON.Valid {
			json.Unmarshal([]byte(filesJSON.String), &t.Files)
		}
		if project.Valid {
			t.Project = project.String
		}
		if dependsOn.Valid {
			json.Unmarshal([]byte(dependsOn.String), &t.DependsOn)
		}
		if resultJSON.Valid {
			json.Unmarshal([]byte(resultJSON.String), &t.Result)
		}
		t.StartedAt = parseNullableTime(startedAt)
		t.CompletedAt = parseNullableTime(completedAt)
		tasks = append(tasks, &t)
	}
	return tasks, nil
}
