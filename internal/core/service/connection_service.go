package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/guillermoBallester/pgreader/internal/adapter/postgres"
	"github.com/guillermoBallester/pgreader/internal/core/port"
)

type connEntry struct {
	db         *postgres.Database
	lastAccess atomic.Int64 // unix nano timestamp
}

// snapshot serves settings that were already loaded.
type snapshot struct {
	settings *port.ConnectionSettings
}

func (s snapshot) Settings(context.Context) (*port.ConnectionSettings, error) {
	return s.settings, nil
}

// ConnectionService resolves logical database names to assembled handles.
// Connection strings are stored encrypted in a port.ConnectionRepository and
// packages come from a port.ConfigurationSource. Handles are cached per name
// and owned by the service: callers must not close them.
type ConnectionService struct {
	repo      port.ConnectionRepository
	encryptor port.Encryptor
	source    port.ConfigurationSource
	assembler *Assembler
	fallback  string
	logger    *slog.Logger
	idleTTL   time.Duration

	mu        sync.RWMutex
	entries   map[string]*connEntry
	inflight  singleflight.Group
	stopClean context.CancelFunc
}

// ConnectionServiceConfig holds the collaborators of a ConnectionService.
type ConnectionServiceConfig struct {
	Repository port.ConnectionRepository
	Encryptor  port.Encryptor
	Source     port.ConfigurationSource
	Assembler  *Assembler
	// Fallback is used when the repository has no connection string for a
	// name. Empty means such names fail to resolve.
	Fallback string
	// IdleTTL evicts handles unused for this long. Zero disables eviction.
	IdleTTL time.Duration
}

func NewConnectionService(cfg ConnectionServiceConfig, logger *slog.Logger) *ConnectionService {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &ConnectionService{
		repo:      cfg.Repository,
		encryptor: cfg.Encryptor,
		source:    cfg.Source,
		assembler: cfg.Assembler,
		fallback:  cfg.Fallback,
		logger:    logger,
		idleTTL:   cfg.IdleTTL,
		entries:   make(map[string]*connEntry),
		stopClean: cancel,
	}
	if s.assembler == nil {
		s.assembler = NewAssembler(nil, logger)
	}
	if s.idleTTL > 0 {
		go s.cleanupLoop(ctx)
	}
	return s
}

// Open returns the handle for name, assembling it on first use. Concurrent
// calls for the same name share one assembly.
func (s *ConnectionService) Open(ctx context.Context, name string) (*postgres.Database, error) {
	if db, ok := s.cached(name); ok {
		return db, nil
	}

	result, err, _ := s.inflight.Do(name, func() (any, error) {
		if db, ok := s.cached(name); ok {
			return db, nil
		}
		return s.connect(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return result.(*postgres.Database), nil
}

func (s *ConnectionService) cached(name string) (*postgres.Database, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	entry.lastAccess.Store(time.Now().UnixNano())
	return entry.db, true
}

// connect loads the connection string and the settings concurrently, then
// assembles. Called within singleflight, never under lock.
func (s *ConnectionService) connect(ctx context.Context, name string) (*postgres.Database, error) {
	var (
		connString string
		settings   *port.ConnectionSettings
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cs, err := s.connectionString(gctx, name)
		connString = cs
		return err
	})
	g.Go(func() error {
		if s.source == nil {
			return nil
		}
		st, err := s.source.Settings(gctx)
		if err != nil {
			return fmt.Errorf("reading connection settings: %w", err)
		}
		settings = st
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	db, err := s.assembler.Assemble(ctx, name, connString, snapshot{settings: settings})
	if err != nil {
		return nil, err
	}

	entry := &connEntry{db: db}
	entry.lastAccess.Store(time.Now().UnixNano())
	s.mu.Lock()
	s.entries[name] = entry
	s.mu.Unlock()

	s.logger.Info("connection opened", slog.String("db.namespace", name))
	return db, nil
}

func (s *ConnectionService) connectionString(ctx context.Context, name string) (string, error) {
	if s.repo == nil {
		return s.resolveFallback(name)
	}
	rec, err := s.repo.GetConnection(ctx, name)
	if err != nil {
		return "", fmt.Errorf("loading connection record: %w", err)
	}
	if rec == nil || len(rec.EncryptedConnectionURL) == 0 {
		return s.resolveFallback(name)
	}

	plain, err := s.encryptor.Decrypt(rec.EncryptedConnectionURL, []byte(name))
	if err != nil {
		return "", fmt.Errorf("decrypting connection URL: %w", err)
	}
	return string(plain), nil
}

func (s *ConnectionService) resolveFallback(name string) (string, error) {
	if s.fallback == "" {
		return "", fmt.Errorf("connection %q has no connection string", name)
	}
	return s.fallback, nil
}

// Register stores connString for name, encrypted, and drops any cached
// handle so the next Open uses it.
func (s *ConnectionService) Register(ctx context.Context, name, connString string) error {
	if s.repo == nil {
		return fmt.Errorf("no connection repository configured")
	}
	ct, err := s.encryptor.Encrypt([]byte(connString), []byte(name))
	if err != nil {
		return fmt.Errorf("encrypting connection URL: %w", err)
	}
	if err := s.repo.SaveConnection(ctx, name, ct); err != nil {
		return err
	}
	s.Remove(name)
	return nil
}

// Remove closes and forgets the cached handle for name.
func (s *ConnectionService) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[name]; ok {
		entry.db.Close()
		delete(s.entries, name)
		s.logger.Info("connection closed", slog.String("db.namespace", name))
	}
}

// cleanupLoop periodically evicts idle handles.
func (s *ConnectionService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evictIdle()
		}
	}
}

// evictIdle closes handles that haven't been used within idleTTL.
func (s *ConnectionService) evictIdle() {
	cutoff := time.Now().Add(-s.idleTTL).UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	for name, entry := range s.entries {
		if entry.lastAccess.Load() < cutoff {
			entry.db.Close()
			delete(s.entries, name)
			s.logger.Info("idle connection evicted", slog.String("db.namespace", name))
		}
	}
}

// Close stops the cleanup goroutine and closes every cached handle.
func (s *ConnectionService) Close() {
	s.stopClean()

	s.mu.Lock()
	defer s.mu.Unlock()

	for name, entry := range s.entries {
		entry.db.Close()
		s.logger.Info("connection closed", slog.String("db.namespace", name))
	}
	s.entries = make(map[string]*connEntry)
}
