package port

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatementEntry records one statement run through a database handle.
type StatementEntry struct {
	ID         uuid.UUID `json:"id"`
	Database   string    `json:"database"`
	Operation  string    `json:"operation"` // "query", "batch" or "call"
	Statement  string    `json:"statement"`
	DurationMs int       `json:"duration_ms"`
	IsError    bool      `json:"is_error"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditLogger accepts statement entries for asynchronous persistence.
type AuditLogger interface {
	// Log enqueues an entry for writing. Non-blocking.
	Log(entry StatementEntry)

	// Close flushes remaining entries and stops the background writer.
	Close()
}

// AuditRepository stores statement entries.
type AuditRepository interface {
	InsertBatch(ctx context.Context, entries []StatementEntry) error

	// ListStatements returns the newest entries first. An empty database
	// matches every database.
	ListStatements(ctx context.Context, database string, limit int) ([]StatementEntry, error)
}
