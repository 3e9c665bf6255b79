package ingest

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one video in the local library.
type Entry struct {
	ID             string
	Title          string
	Channel        string
	URL            string
	DurationS      int64
	TranscriptPath string
	AddedAt        time.Time
}

// Library is the single-table sqlite catalog of ingested videos.
type Library struct {
	db *sql.DB
}

// OpenLibrary opens the library database at path, creating it if needed.
func OpenLibrary(path string) (*Library, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			title TEXT,
			channel TEXT,
			url TEXT,
			duration_s INT,
			transcript_path TEXT,
			added_at DATETIME
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Library{db: db}, nil
}

// Add inserts or replaces a library entry. A zero AddedAt is stamped now.
func (l *Library) Add(e *Entry) error {
	if e.AddedAt.IsZero() {
		e.AddedAt = time.Now().UTC()
	}

	_, err := l.db.Exec(`
		INSERT OR REPLACE INTO videos (id, title, channel, url, duration_s, transcript_path, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Title, e.Channel, e.URL, e.DurationS, e.TranscriptPath, e.AddedAt)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// Get retrieves an entry by video id. Returns nil when absent.
func (l *Library) Get(id string) (*Entry, error) {
	row := l.db.QueryRow(`
		SELECT id, title, channel, url, duration_s, transcript_path, added_at
		FROM videos
		WHERE id = ?
	`, id)

	var e Entry
	var transcript sql.NullString
	err := row.Scan(&e.ID, &e.Title, &e.Channel, &e.URL, &e.DurationS, &transcript, &e.AddedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan video: %w", err)
	}

	if transcript.Valid {
		e.TranscriptPath = transcript.String
	}
	return &e, nil
}

// List returns the most recently added entries, newest first.
func (l *Library) List(limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.Query(`
		SELECT id, title, channel, url, duration_s, transcript_path, added_at
		FROM videos
		ORDER BY added_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		var transcript sql.NullString
		if err := rows.Scan(&e.ID, &e.Title, &e.Channel, &e.URL, &e.DurationS, &transcript, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		if transcript.Valid {
			e.TranscriptPath = transcript.String
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Remove deletes an entry by id.
func (l *Library) Remove(id string) error {
	result, err := l.db.Exec(`DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("video not found: %s", id)
	}
	return nil
}

// Close closes the database connection.
func (l *Library) Close() error {
	return l.db.Close()
}
