package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
	"github.com/guillermoBallester/pgreader/internal/core/reader"
)

var ErrEmptyProcedure = errors.New("procedure name is empty")

// DatabaseOption configures a Database.
type DatabaseOption func(*Database)

// WithReadOnly runs every cursor inside a read-only transaction and rejects
// write statements before they are sent.
func WithReadOnly(readOnly bool) DatabaseOption {
	return func(db *Database) {
		db.readOnly = readOnly
	}
}

// WithQueryTimeout bounds each cursor from query to Close. Zero disables it.
func WithQueryTimeout(d time.Duration) DatabaseOption {
	return func(db *Database) {
		db.queryTimeout = d
	}
}

// WithNameMatching sets column-name matching for every returned Reader.
func WithNameMatching(m domain.NameMatching) DatabaseOption {
	return func(db *Database) {
		db.matching = m
	}
}

// Database is a handle to one PostgreSQL database and the procedure packages
// configured for it. The connection pool is opened on first use.
type Database struct {
	connString   string
	packages     domain.Packages
	poolConfig   *pgxpool.Config
	readOnly     bool
	queryTimeout time.Duration
	matching     domain.NameMatching
	validator    *domain.StatementValidator

	mu     sync.Mutex
	pool   *pgxpool.Pool
	closed bool
}

// NewDatabase builds a handle for connString. packages is copied in order,
// duplicates included; nil means no packages.
func NewDatabase(connString string, packages []domain.Package, opts ...DatabaseOption) (*Database, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	db := &Database{
		connString: connString,
		packages:   slices.Clone(packages),
		poolConfig: cfg,
	}
	for _, opt := range opts {
		opt(db)
	}
	db.validator = domain.NewStatementValidator(db.readOnly)
	return db, nil
}

func (db *Database) ConnectionString() string {
	return db.connString
}

// Packages returns a copy of the configured packages in declared order.
func (db *Database) Packages() []domain.Package {
	return slices.Clone(db.packages)
}

func (db *Database) ReadOnly() bool {
	return db.readOnly
}

// ProcedureName qualifies name with the schema of the first package whose
// prefix routes it.
func (db *Database) ProcedureName(name string) string {
	return db.packages.Translate(name)
}

// Pool returns the connection pool, creating it on first call.
func (db *Database) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil, domain.ErrClosed
	}
	if db.pool != nil {
		return db.pool, nil
	}
	pool, err := pgxpool.NewWithConfig(ctx, db.poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	db.pool = pool
	return pool, nil
}

// Catalog returns a catalog reader over this database.
func (db *Database) Catalog(ctx context.Context) (*Catalog, error) {
	pool, err := db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	return NewCatalog(pool), nil
}

// OpenDB returns a database/sql handle sharing this database's pool. Closing
// it does not close the pool.
func (db *Database) OpenDB(ctx context.Context) (*sql.DB, error) {
	pool, err := db.Pool(ctx)
	if err != nil {
		return nil, err
	}
	return stdlib.OpenDBFromPool(pool), nil
}

// Validate applies the statement rules Query enforces.
func (db *Database) Validate(sql string) error {
	return db.validator.Validate(sql)
}

// Query runs a single statement and returns a Reader over its rows. The
// Reader holds a pooled connection until it is closed.
func (db *Database) Query(ctx context.Context, sql string, args ...any) (*reader.Reader, error) {
	if err := db.validator.Validate(sql); err != nil {
		return nil, err
	}

	ctx, s, err := db.begin(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, sql, args...)
	if err != nil {
		_ = s.release()
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return reader.New(NewCursor(rows, s.release), reader.WithNameMatching(db.matching)), nil
}

// QueryBatch runs one or more statements over the simple protocol. The
// Reader starts on the first result set; NextResultSet moves through the
// rest. Batches take no arguments.
func (db *Database) QueryBatch(ctx context.Context, sql string) (*reader.Reader, error) {
	if _, err := db.validator.ValidateBatch(sql); err != nil {
		return nil, err
	}

	ctx, s, err := db.begin(ctx)
	if err != nil {
		return nil, err
	}
	conn := s.conn.Conn()
	mrr := conn.PgConn().Exec(ctx, sql)
	cursor := NewBatchCursor(mrr, conn.TypeMap(), s.release)
	return reader.New(cursor, reader.WithNameMatching(db.matching)), nil
}

// CallProcedure selects from a set-returning function, routing name through
// the configured packages first.
func (db *Database) CallProcedure(ctx context.Context, name string, args ...any) (*reader.Reader, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyProcedure
	}
	return db.Query(ctx, procedureCall(db.ProcedureName(name), len(args)), args...)
}

func procedureCall(qualified string, argc int) string {
	ident := pgx.Identifier(strings.Split(qualified, ".")).Sanitize()
	params := make([]string, argc)
	for i := range params {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("SELECT * FROM %s(%s)", ident, strings.Join(params, ", "))
}

// Close closes the pool. Readers still open fail on their next round trip.
func (db *Database) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.closed = true
	if db.pool != nil {
		db.pool.Close()
		db.pool = nil
	}
}

// session is a pooled connection lent to exactly one cursor.
type session struct {
	conn   *pgxpool.Conn
	tx     pgx.Tx
	cancel context.CancelFunc
}

func (db *Database) begin(ctx context.Context) (context.Context, *session, error) {
	pool, err := db.Pool(ctx)
	if err != nil {
		return nil, nil, err
	}

	var cancel context.CancelFunc
	if db.queryTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, db.queryTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("acquiring connection: %w", err)
	}
	s := &session{conn: conn, cancel: cancel}

	if db.readOnly {
		tx, err := conn.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
		if err != nil {
			_ = s.release()
			return nil, nil, fmt.Errorf("beginning transaction: %w", err)
		}
		s.tx = tx
	}
	return ctx, s, nil
}

func (s *session) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.tx != nil {
		return s.tx.Query(ctx, sql, args...)
	}
	return s.conn.Query(ctx, sql, args...)
}

// release ends the read-only transaction, if any, and returns the connection.
func (s *session) release() error {
	defer s.cancel()

	var err error
	if s.tx != nil {
		// Nothing to commit in a read-only transaction.
		err = s.tx.Rollback(context.Background())
		if errors.Is(err, pgx.ErrTxClosed) {
			err = nil
		}
	}
	s.conn.Release()
	if err != nil {
		return fmt.Errorf("ending transaction: %w", err)
	}
	return nil
}
