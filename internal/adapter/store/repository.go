package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
	"github.com/guillermoBallester/pgreader/internal/core/port"
)

const (
	queryGetConnection = `
		SELECT name, encrypted_connection_url
		FROM connections
		WHERE name = $1`

	queryUpsertConnection = `
		INSERT INTO connections (name, encrypted_connection_url)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET encrypted_connection_url = EXCLUDED.encrypted_connection_url,
			updated_at = now()`

	queryEnsureConnection = `
		INSERT INTO connections (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING`

	queryDeletePackages = `DELETE FROM connection_packages WHERE connection_name = $1`

	queryInsertPackage = `
		INSERT INTO connection_packages (connection_name, position, package_name, prefix)
		VALUES ($1, $2, $3, $4)`

	querySettings = `
		SELECT c.name, p.package_name, p.prefix
		FROM connections c
		LEFT JOIN connection_packages p ON p.connection_name = c.name
		ORDER BY c.name, p.position`
)

var (
	_ port.ConnectionRepository = (*Repository)(nil)
	_ port.ConfigurationSource  = (*Repository)(nil)
)

// Repository stores connection strings and package settings in PostgreSQL.
// It implements port.ConnectionRepository and port.ConfigurationSource.
type Repository struct {
	pool     *pgxpool.Pool
	inflight singleflight.Group
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetConnection returns (nil, nil) when name is unknown.
func (r *Repository) GetConnection(ctx context.Context, name string) (*port.ConnectionRecord, error) {
	var rec port.ConnectionRecord
	err := r.pool.QueryRow(ctx, queryGetConnection, name).Scan(&rec.Name, &rec.EncryptedConnectionURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying connection: %w", err)
	}
	return &rec, nil
}

func (r *Repository) SaveConnection(ctx context.Context, name string, encrypted []byte) error {
	if _, err := r.pool.Exec(ctx, queryUpsertConnection, name, encrypted); err != nil {
		return fmt.Errorf("saving connection: %w", err)
	}
	return nil
}

// SavePackages replaces the packages of name, keeping their order.
func (r *Repository) SavePackages(ctx context.Context, name string, packages []domain.Package) error {
	entry := port.ConnectionEntry{Name: name, Packages: packages}
	if err := entry.Validate(); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, queryEnsureConnection, name); err != nil {
			return fmt.Errorf("ensuring connection: %w", err)
		}
		if _, err := tx.Exec(ctx, queryDeletePackages, name); err != nil {
			return fmt.Errorf("deleting packages: %w", err)
		}

		batch := &pgx.Batch{}
		for i, p := range packages {
			batch.Queue(queryInsertPackage, name, i, p.Name, p.Prefix)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting packages: %w", err)
		}
		return nil
	})
}

// Settings loads every connection entry. An empty store yields (nil, nil).
// Concurrent callers share one round trip.
func (r *Repository) Settings(ctx context.Context) (*port.ConnectionSettings, error) {
	v, err, _ := r.inflight.Do("settings", func() (any, error) {
		return r.loadSettings(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*port.ConnectionSettings), nil
}

func (r *Repository) loadSettings(ctx context.Context) (*port.ConnectionSettings, error) {
	rows, err := r.pool.Query(ctx, querySettings)
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	var entries []port.ConnectionEntry
	for rows.Next() {
		var (
			name         string
			pkgName, pfx *string
		)
		if err := rows.Scan(&name, &pkgName, &pfx); err != nil {
			return nil, fmt.Errorf("scanning settings row: %w", err)
		}
		if n := len(entries); n == 0 || entries[n-1].Name != name {
			entries = append(entries, port.ConnectionEntry{Name: name})
		}
		if pkgName != nil {
			e := &entries[len(entries)-1]
			e.Packages = append(e.Packages, domain.Package{Name: *pkgName, Prefix: *pfx})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating settings: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	settings := &port.ConnectionSettings{Entries: entries}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}
