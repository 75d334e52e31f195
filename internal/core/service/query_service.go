package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
	"github.com/guillermoBallester/pgreader/internal/core/port"
	"github.com/guillermoBallester/pgreader/internal/core/reader"
)

// Querier is the part of a database handle that QueryService drives.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (*reader.Reader, error)
	QueryBatch(ctx context.Context, sql string) (*reader.Reader, error)
	CallProcedure(ctx context.Context, name string, args ...any) (*reader.Reader, error)
}

// QueryService runs statements against a database handle and logs each one.
// The returned Readers are owned by the caller.
type QueryService struct {
	db       Querier
	database string
	audit    port.AuditLogger
	logger   *slog.Logger
}

// NewQueryService serves the handle of the logical database named database.
// audit may be nil.
func NewQueryService(db Querier, database string, audit port.AuditLogger, logger *slog.Logger) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{db: db, database: database, audit: audit, logger: logger}
}

func (s *QueryService) Query(ctx context.Context, sql string, args ...any) (*reader.Reader, error) {
	return s.run(ctx, "query", sql, func() (*reader.Reader, error) {
		return s.db.Query(ctx, sql, args...)
	})
}

func (s *QueryService) QueryBatch(ctx context.Context, sql string) (*reader.Reader, error) {
	return s.run(ctx, "batch", sql, func() (*reader.Reader, error) {
		return s.db.QueryBatch(ctx, sql)
	})
}

func (s *QueryService) Call(ctx context.Context, procedure string, args ...any) (*reader.Reader, error) {
	return s.run(ctx, "call", procedure, func() (*reader.Reader, error) {
		return s.db.CallProcedure(ctx, procedure, args...)
	})
}

func (s *QueryService) run(ctx context.Context, op, statement string, exec func() (*reader.Reader, error)) (*reader.Reader, error) {
	s.logger.DebugContext(ctx, "executing statement",
		slog.String("db.operation.name", op),
		slog.String("db.system", "postgresql"),
		slog.String("db.statement", statement),
	)

	start := time.Now()
	r, err := exec()
	duration := time.Since(start)
	s.record(op, statement, start, duration, err)

	if err != nil {
		if domain.IsValidationError(err) {
			s.logger.WarnContext(ctx, "statement validation rejected",
				slog.String("db.namespace", s.database),
				slog.String("db.operation.name", op),
				slog.String("db.statement", statement),
				slog.String("error.type", "validation_error"),
			)
			return nil, err
		}
		s.logger.ErrorContext(ctx, "statement execution failed",
			slog.String("db.namespace", s.database),
			slog.String("db.operation.name", op),
			slog.String("db.statement", statement),
			slog.Duration("duration", duration),
			slog.String("error.type", "query_error"),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "statement executed",
		slog.String("db.operation.name", op),
		slog.String("db.system", "postgresql"),
		slog.String("db.namespace", s.database),
		slog.Int("db.response.columns", r.FieldCount()),
		slog.Duration("duration", duration),
	)
	return r, nil
}

func (s *QueryService) record(op, statement string, start time.Time, duration time.Duration, err error) {
	if s.audit == nil {
		return
	}
	s.audit.Log(port.StatementEntry{
		ID:         uuid.New(),
		Database:   s.database,
		Operation:  op,
		Statement:  statement,
		DurationMs: int(duration.Milliseconds()),
		IsError:    err != nil,
		CreatedAt:  start,
	})
}
