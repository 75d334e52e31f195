package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v3"

	"github.com/guillermoBallester/pgreader/internal/adapter/audit"
	"github.com/guillermoBallester/pgreader/internal/adapter/crypto"
	"github.com/guillermoBallester/pgreader/internal/adapter/postgres"
	"github.com/guillermoBallester/pgreader/internal/adapter/settings"
	"github.com/guillermoBallester/pgreader/internal/adapter/store"
	"github.com/guillermoBallester/pgreader/internal/config"
	"github.com/guillermoBallester/pgreader/internal/core/port"
	"github.com/guillermoBallester/pgreader/internal/core/service"
)

// app holds the configuration and the lazily built services shared by
// commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	name   string

	storePool   *pgxpool.Pool
	repo        *store.Repository
	connections *service.ConnectionService
	auditLog    *audit.BatchLogger
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return ctx, fmt.Errorf("loading config: %w", err)
	}
	if v := cmd.String("log"); v != "" {
		level, err := config.ParseLogLevel(v)
		if err != nil {
			return ctx, err
		}
		cfg.LogLevel = level
	}

	a.cfg = cfg
	a.logger = newLogger(cfg)
	slog.SetDefault(a.logger)

	a.name = cfg.DatabaseName
	if v := cmd.String("database"); v != "" {
		a.name = v
	}
	return ctx, nil
}

// newLogger writes to stderr so result output on stdout stays clean.
func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == config.FormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.LogLevel,
		}))
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.Level(cfg.LogLevel),
		ReportTimestamp: true,
	})
	return slog.New(handler)
}

// repository connects to the settings store on first use.
func (a *app) repository(ctx context.Context) (*store.Repository, error) {
	if a.repo != nil {
		return a.repo, nil
	}
	if a.cfg.StoreURL == "" {
		return nil, fmt.Errorf("STORE_URL or DATABASE_URL environment variable is required for the settings store")
	}
	pool, err := postgres.NewPool(ctx, a.cfg.StoreURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to settings store: %w", err)
	}
	a.storePool = pool
	a.repo = store.NewRepository(pool)
	return a.repo, nil
}

func (a *app) connectionService(ctx context.Context) (*service.ConnectionService, error) {
	if a.connections != nil {
		return a.connections, nil
	}

	factory := service.NewDatabaseFactory(
		postgres.WithReadOnly(a.cfg.ReadOnly),
		postgres.WithQueryTimeout(a.cfg.QueryTimeout),
		postgres.WithNameMatching(a.cfg.NameMatching),
	)
	svcCfg := service.ConnectionServiceConfig{
		Assembler: service.NewAssembler(factory, a.logger),
		Fallback:  a.cfg.DatabaseURL,
	}

	switch a.cfg.SettingsSource {
	case config.SourceFile:
		svcCfg.Source = settings.NewFileSource(a.cfg.SettingsFile)
	case config.SourceStore:
		repo, err := a.repository(ctx)
		if err != nil {
			return nil, err
		}
		enc, err := crypto.NewAESEncryptor(a.cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("creating encryptor: %w", err)
		}
		svcCfg.Repository = repo
		svcCfg.Encryptor = enc
		svcCfg.Source = repo
	}

	a.connections = service.NewConnectionService(svcCfg, a.logger)
	return a.connections, nil
}

// database opens the handle for the selected logical name.
func (a *app) database(ctx context.Context) (*postgres.Database, error) {
	svc, err := a.connectionService(ctx)
	if err != nil {
		return nil, err
	}
	return svc.Open(ctx, a.name)
}

func (a *app) queryService(ctx context.Context) (*service.QueryService, error) {
	db, err := a.database(ctx)
	if err != nil {
		return nil, err
	}

	var auditLog port.AuditLogger
	if a.cfg.AuditStatements {
		if a.auditLog == nil {
			if _, err := a.repository(ctx); err != nil {
				return nil, err
			}
			a.auditLog = audit.NewBatchLogger(store.NewAuditRepository(a.storePool), a.logger)
		}
		auditLog = a.auditLog
	}
	return service.NewQueryService(db, a.name, auditLog, a.logger), nil
}

func (a *app) close() {
	if a.auditLog != nil {
		a.auditLog.Close()
	}
	if a.connections != nil {
		a.connections.Close()
	}
	if a.storePool != nil {
		a.storePool.Close()
	}
}
