package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mbayswater/adjutant/pkg/models"
)

const workItemColumns = `id, kind, status, raw_input, project_scope, summary_json, questions_json, plan_json, origin_clarification_id, created_at, updated_at`

// SaveWorkItem inserts or replaces a work item. The item's UpdatedAt is
// refreshed as part of the write.
func (db *DB) SaveWorkItem(w *models.WorkItem) error {
	var summaryJSON, questionsJSON, planJSON *string

	if w.Summary != nil {
		b, err := json.Marshal(w.Summary)
		if err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		s := string(b)
		summaryJSON = &s
	}
	if len(w.Questions) > 0 {
		b, err := json.Marshal(w.Questions)
		if err != nil {
			return fmt.Errorf("marshal questions: %w", err)
		}
		s := string(b)
		questionsJSON = &s
	}
	if w.Plan != nil {
		b, err := json.Marshal(w.Plan)
		if err != nil {
			return fmt.Errorf("marshal plan: %w", err)
		}
		s := string(b)
		planJSON = &s
	}

	w.UpdatedAt = time.Now().UTC()

	_, err := db.Exec(`
		INSERT OR REPLACE INTO work_items
			(`+workItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, w.ID, string(w.Kind), string(w.Status), w.RawInput, string(w.ProjectScope),
		summaryJSON, questionsJSON, planJSON, w.OriginClarificationID,
		formatTime(w.CreatedAt), formatTime(w.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save work item: %w", err)
	}
	return nil
}

// LoadWorkItem retrieves a work item by ID. Returns nil without error when
// no item exists.
func (db *DB) LoadWorkItem(id string) (*models.WorkItem, error) {
	row := db.QueryRow(`
		SELECT `+workItemColumns+`
		FROM work_items WHERE id = ?
	`, id)

	var w models.WorkItem
	var createdAt, updatedAt string
	var projectScope, summaryJSON, questionsJSON, planJSON, originID sql.NullString
	err := row.Scan(&w.ID, &w.Kind, &w.Status, &w.RawInput, &projectScope,
		&summaryJSON, &questionsJSON, &planJSON, &originID, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load work item: %w", err)
	}

	if err := hydrateWorkItem(&w, projectScope, summaryJSON, questionsJSON, planJSON, originID, createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// ListPendingByPartition returns pending work items whose ID falls in the
// given partition (a YYYYMMDD day key). Clarifications sort before
// feedbacks; within a kind, older items come first.
func (db *DB) ListPendingByPartition(partition string) ([]*models.WorkItem, error) {
	rows, err := db.Query(`
		SELECT `+workItemColumns+`
		FROM work_items
		WHERE status = ? AND id LIKE ?
		ORDER BY CASE kind WHEN ? THEN 0 ELSE 1 END, id
	`, string(models.StatusPending), partition+"%", string(models.KindClarification))
	if err != nil {
		return nil, fmt.Errorf("list pending by partition: %w", err)
	}
	defer rows.Close()

	return scanWorkItems(rows)
}

// ListByStatus lists work items of one kind in one status, oldest first.
func (db *DB) ListByStatus(kind models.Kind, status models.Status) ([]*models.WorkItem, error) {
	rows, err := db.Query(`
		SELECT `+workItemColumns+`
		FROM work_items
		WHERE kind = ? AND status = ?
		ORDER BY id
	`, string(kind), string(status))
	if err != nil {
		return nil, fmt.Errorf("list by status: %w", err)
	}
	defer rows.Close()

	return scanWorkItems(rows)
}

// ListRecent lists the most recently created work items across both kinds,
// newest first. A non-positive limit defaults to 50.
func (db *DB) ListRecent(limit int) ([]*models.WorkItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT `+workItemColumns+`
		FROM work_items
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	defer rows.Close()

	return scanWorkItems(rows)
}

// UpdateStatus persists a status change without rewriting the whole item.
func (db *DB) UpdateStatus(id string, status models.Status) error {
	_, err := db.Exec(`
		UPDATE work_items SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// AppendLog records one log line against a work item.
func (db *DB) AppendLog(itemID string, level LogLevel, message string) error {
	_, err := db.Exec(`
		INSERT INTO item_logs (item_id, level, message, created_at)
		VALUES (?, ?, ?, ?)
	`, itemID, string(level), message, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// ListLogs lists all log lines for a work item, oldest first.
func (db *DB) ListLogs(itemID string) ([]ItemLog, error) {
	rows, err := db.Query(`
		SELECT id, item_id, level, message, created_at
		FROM item_logs WHERE item_id = ? ORDER BY id
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var logs []ItemLog
	for rows.Next() {
		var l ItemLog
		var createdAt string
		if err := rows.Scan(&l.ID, &l.ItemID, &l.Level, &l.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		l.CreatedAt, _ = parseTime(createdAt)
		logs = append(logs, l)
	}
	return logs, nil
}

// scanWorkItems scans work item rows into a slice.
func scanWorkItems(rows *sql.Rows) ([]*models.WorkItem, error) {
	var items []*models.WorkItem
	for rows.Next() {
		var w models.WorkItem
		var createdAt, updatedAt string
		var projectScope, summaryJSON, questionsJSON, planJSON, originID sql.NullString
		if err := rows.Scan(&w.ID, &w.Kind, &w.Status, &w.RawInput, &projectScope,
			&summaryJSON, &questionsJSON, &planJSON, &originID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan work item: %w", err)
		}
		if err := hydrateWorkItem(&w, projectScope, summaryJSON, questionsJSON, planJSON, originID, createdAt, updatedAt); err != nil {
			return nil, err
		}
		items = append(items, &w)
	}
	return items, nil
}

// hydrateWorkItem fills the nullable and JSON-encoded fields of a scanned row.
func hydrateWorkItem(w *models.WorkItem, projectScope, summaryJSON, questionsJSON, planJSON, originID sql.NullString, createdAt, updatedAt string) error {
	if projectScope.Valid {
		w.ProjectScope = models.ProjectScope(projectScope.String)
	}
	if summaryJSON.Valid {
		if err := json.Unmarshal([]byte(summaryJSON.String), &w.Summary); err != nil {
			return fmt.Errorf("unmarshal summary: %w", err)
		}
	}
	if questionsJSON.Valid {
		if err := json.Unmarshal([]byte(questionsJSON.String), &w.Questions); err != nil {
			return fmt.Errorf("unmarshal questions: %w", err)
		}
	}
	if planJSON.Valid {
		if err := json.Unmarshal([]byte(planJSON.String), &w.Plan); err != nil {
			return fmt.Errorf("unmarshal plan: %w", err)
		}
	}
	if originID.Valid {
		w.OriginClarificationID = originID.String
	}
	w.CreatedAt, _ = parseTime(createdAt)
	w.UpdatedAt, _ = parseTime(updatedAt)
	return nil
}
