package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guillermoBallester/pgreader/internal/core/reader"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DB runs queries through database/sql and returns Readers over the results.
type DB struct {
	q    Querier
	opts []reader.Option
}

func NewDB(q Querier, opts ...reader.Option) *DB {
	return &DB{q: q, opts: opts}
}

// Query runs query and wraps its rows. The caller must close the Reader.
func (db *DB) Query(ctx context.Context, query string, args ...any) (*reader.Reader, error) {
	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	c, err := NewCursor(rows)
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	return reader.New(c, db.opts...), nil
}
