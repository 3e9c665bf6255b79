// Package store provides SQLite-based persistence for Adjutant.
package store

import (
	"io"
	"time"

	"github.com/mbayswater/adjutant/pkg/models"
)

// LogLevel classifies an item log line.
type LogLevel string

const (
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// ItemLog is one persisted log line attached to a work item.
type ItemLog struct {
	ID        int64     `json:"id"`
	ItemID    string    `json:"item_id"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// WorkItemStore handles work-item persistence operations.
type WorkItemStore interface {
	SaveWorkItem(w *models.WorkItem) error
	LoadWorkItem(id string) (*models.WorkItem, error)
	ListPendingByPartition(partition string) ([]*models.WorkItem, error)
	ListByStatus(kind models.Kind, status models.Status) ([]*models.WorkItem, error)
	ListRecent(limit int) ([]*models.WorkItem, error)
	UpdateStatus(id string, status models.Status) error
	AppendLog(itemID string, level LogLevel, message string) error
	ListLogs(itemID string) ([]ItemLog, error)
}

// TaskSnapshotStore handles per-batch task snapshot persistence.
// A batch is the set of tasks executed for one feedback item.
type TaskSnapshotStore interface {
	SaveTaskSnapshot(batchID string, t *models.Task) error
	SaveTaskSnapshots(batchID string, tasks []*models.Task) error
	LoadTaskSnapshots(batchID string) ([]*models.Task, error)
}

// ToolStore handles tool health-record persistence.
type ToolStore interface {
	LoadToolRecords() (map[string]*models.ToolRecord, error)
	LoadToolRecord(name string) (*models.ToolRecord, error)
	SaveToolRecord(r *models.ToolRecord) error
	SaveToolRecords(records map[string]*models.ToolRecord) error
}

// Migrator handles database schema migrations.
// Separating this allows clients to depend only on migration functionality.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store defines the interface for Adjutant persistence.
// This interface allows the scheduler and handlers to work with any backend
// without depending on the concrete SQLite implementation.
// It composes focused sub-interfaces for better modularity.
type Store interface {
	io.Closer
	Migrator
	WorkItemStore
	TaskSnapshotStore
	ToolStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store             = (*DB)(nil)
	_ Migrator          = (*DB)(nil)
	_ WorkItemStore     = (*DB)(nil)
	_ TaskSnapshotStore = (*DB)(nil)
	_ ToolStore         = (*DB)(nil)
)
