package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/guillermoBallester/pgreader/internal/adapter/postgres"
	"github.com/guillermoBallester/pgreader/internal/core/domain"
	"github.com/guillermoBallester/pgreader/internal/core/port"
)

// DatabaseFactory builds a database handle. packages is nil when no
// configuration entry exists for the database.
type DatabaseFactory func(connString string, packages []domain.Package) (*postgres.Database, error)

// NewDatabaseFactory returns a factory that applies opts to every handle.
func NewDatabaseFactory(opts ...postgres.DatabaseOption) DatabaseFactory {
	return func(connString string, packages []domain.Package) (*postgres.Database, error) {
		return postgres.NewDatabase(connString, packages, opts...)
	}
}

// Assembler turns a logical database name, a connection string and a
// configuration source into a database handle. It keeps no state between
// calls and is safe for concurrent use.
type Assembler struct {
	factory DatabaseFactory
	logger  *slog.Logger
}

// NewAssembler uses factory to build handles; nil means postgres.NewDatabase
// with default options.
func NewAssembler(factory DatabaseFactory, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	if factory == nil {
		factory = NewDatabaseFactory()
	}
	return &Assembler{factory: factory, logger: logger}
}

// Assemble reads the current settings from source and builds the handle for
// name. Without settings, or without an entry for name, the handle has no
// packages. An entry that fails validation is reported as
// domain.ErrMalformedConfig and no handle is built. A nil source means no
// settings.
func (a *Assembler) Assemble(ctx context.Context, name, connString string, source port.ConfigurationSource) (*postgres.Database, error) {
	var settings *port.ConnectionSettings
	if source != nil {
		s, err := source.Settings(ctx)
		if err != nil {
			a.logger.WarnContext(ctx, "connection settings unavailable",
				slog.String("db.namespace", name),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("reading connection settings: %w", err)
		}
		settings = s
	}

	entry, ok := settings.Lookup(name)
	if !ok {
		a.logger.DebugContext(ctx, "no connection settings, using defaults",
			slog.String("db.namespace", name),
		)
		return a.build(ctx, name, connString, nil)
	}

	if err := entry.Validate(); err != nil {
		a.logger.WarnContext(ctx, "malformed connection settings",
			slog.String("db.namespace", name),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	packages := make([]domain.Package, len(entry.Packages))
	copy(packages, entry.Packages)
	return a.build(ctx, name, connString, packages)
}

func (a *Assembler) build(ctx context.Context, name, connString string, packages []domain.Package) (*postgres.Database, error) {
	db, err := a.factory(connString, packages)
	if err != nil {
		return nil, fmt.Errorf("creating database %q: %w", name, err)
	}

	a.logger.InfoContext(ctx, "database assembled",
		slog.String("db.system", "postgresql"),
		slog.String("db.namespace", name),
		slog.Int("packages", len(packages)),
	)
	return db, nil
}
