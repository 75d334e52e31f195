// Package audit persists statement entries in the background.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/guillermoBallester/pgreader/internal/core/port"
)

const (
	defaultBatchSize    = 50
	defaultFlushTimeout = 5 * time.Second
	defaultChanBuffer   = 1000
)

// BatchLogger implements port.AuditLogger with a buffered channel drained by
// a goroutine that writes entries to the repository in batches.
type BatchLogger struct {
	repo   port.AuditRepository
	ch     chan port.StatementEntry
	done   chan struct{}
	logger *slog.Logger

	batchSize     int
	flushInterval time.Duration
}

// Option configures a BatchLogger.
type Option func(*BatchLogger)

func WithBatchSize(n int) Option {
	return func(l *BatchLogger) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(l *BatchLogger) {
		if d > 0 {
			l.flushInterval = d
		}
	}
}

// NewBatchLogger starts the writer. It flushes when a batch is full or the
// flush interval elapses, whichever comes first.
func NewBatchLogger(repo port.AuditRepository, logger *slog.Logger, opts ...Option) *BatchLogger {
	l := &BatchLogger{
		repo:          repo,
		ch:            make(chan port.StatementEntry, defaultChanBuffer),
		done:          make(chan struct{}),
		logger:        logger,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.run()
	return l
}

// Log enqueues entry, dropping it when the buffer is full.
func (l *BatchLogger) Log(entry port.StatementEntry) {
	select {
	case l.ch <- entry:
	default:
		l.logger.Warn("statement log channel full, dropping entry",
			slog.String("db.namespace", entry.Database),
			slog.String("db.operation.name", entry.Operation),
		)
	}
}

// Close flushes what is buffered and waits for the writer to exit.
func (l *BatchLogger) Close() {
	close(l.ch)
	<-l.done
}

func (l *BatchLogger) run() {
	defer close(l.done)

	batch := make([]port.StatementEntry, 0, l.batchSize)
	ticker := time.NewTicker(l.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case entry, ok := <-l.ch:
			if !ok {
				if len(batch) > 0 {
					l.flush(batch)
				}
				return
			}
			batch = append(batch, entry)
			if len(batch) >= l.batchSize {
				l.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				l.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (l *BatchLogger) flush(batch []port.StatementEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := l.repo.InsertBatch(ctx, batch); err != nil {
		l.logger.Error("failed to flush statement log batch",
			slog.Int("count", len(batch)),
			slog.String("error", err.Error()),
		)
	}
}
