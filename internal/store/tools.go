package store

import (
	"database/sql"
	"fmt"

	"github.com/mbayswater/adjutant/pkg/models"
)

const toolColumns = `name, available, last_success_at, last_failure_at, avg_response_ms, failure_count`

// SaveToolRecord inserts or replaces a tool health record.
func (db *DB) SaveToolRecord(r *models.ToolRecord) error {
	_, err := db.Exec(`
		INSERT OR REPLACE INTO tool_records
			(`+toolColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.Name, r.Available, formatNullableTime(r.LastSuccessAt), formatNullableTime(r.LastFailureAt),
		r.AverageResponseMs, r.FailureCount)
	if err != nil {
		return fmt.Errorf("save tool record: %w", err)
	}
	return nil
}

// SaveToolRecords persists every record in the map.
func (db *DB) SaveToolRecords(records map[string]*models.ToolRecord) error {
	for _, r := range records {
		if err := db.SaveToolRecord(r); err != nil {
			return err
		}
	}
	return nil
}

// LoadToolRecord retrieves one tool's health record. Returns nil without
// error when the tool has never been recorded.
func (db *DB) LoadToolRecord(name string) (*models.ToolRecord, error) {
	row := db.QueryRow(`
		SELECT `+toolColumns+`
		FROM tool_records WHERE name = ?
	`, name)

	var r models.ToolRecord
	var lastSuccess, lastFailure sql.NullString
	err := row.Scan(&r.Name, &r.Available, &lastSuccess, &lastFailure, &r.AverageResponseMs, &r.FailureCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tool record: %w", err)
	}

	r.LastSuccessAt = parseNullableTime(lastSuccess)
	r.LastFailureAt = parseNullableTime(lastFailure)
	return &r, nil
}

// LoadToolRecords retrieves all tool health records keyed by tool name.
func (db *DB) LoadToolRecords() (map[string]*models.ToolRecord, error) {
	rows, err := db.Query(`SELECT ` + toolColumns + ` FROM tool_records`)
	if err != nil {
		return nil, fmt.Errorf("load tool records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]*models.ToolRecord)
	for rows.Next() {
		var r models.ToolRecord
		var lastSuccess, lastFailure sql.NullString
		if err := rows.Scan(&r.Name, &r.Available, &lastSuccess, &lastFailure, &r.AverageResponseMs, &r.FailureCount); err != nil {
			return nil, fmt.Errorf("scan tool record: %w", err)
		}
		r.LastSuccessAt = parseNullableTime(lastSuccess)
		r.LastFailureAt = parseNullableTime(lastFailure)
		records[r.Name] = &r
	}
	return records, nil
}
