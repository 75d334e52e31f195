package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/guillermoBallester/pgreader/internal/core/port"
)

const queryListStatements = `
	SELECT id, database, operation, statement, duration_ms, is_error, created_at
	FROM statement_log
	WHERE $1 = '' OR database = $1
	ORDER BY created_at DESC
	LIMIT $2`

var statementLogColumns = []string{"id", "database", "operation", "statement", "duration_ms", "is_error", "created_at"}

// AuditRepository implements port.AuditRepository over the statement_log
// table.
type AuditRepository struct {
	pool *pgxpool.Pool
}

var _ port.AuditRepository = (*AuditRepository)(nil)

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// InsertBatch writes entries with a single COPY.
func (a *AuditRepository) InsertBatch(ctx context.Context, entries []port.StatementEntry) error {
	_, err := a.pool.CopyFrom(ctx,
		pgx.Identifier{"statement_log"},
		statementLogColumns,
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			return []any{e.ID, e.Database, e.Operation, e.Statement, int32(e.DurationMs), e.IsError, e.CreatedAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("inserting statement log: %w", err)
	}
	return nil
}

func (a *AuditRepository) ListStatements(ctx context.Context, database string, limit int) ([]port.StatementEntry, error) {
	rows, err := a.pool.Query(ctx, queryListStatements, database, limit)
	if err != nil {
		return nil, fmt.Errorf("listing statements: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (port.StatementEntry, error) {
		var e port.StatementEntry
		err := row.Scan(&e.ID, &e.Database, &e.Operation, &e.Statement, &e.DurationMs, &e.IsError, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning statements: %w", err)
	}
	return entries, nil
}
