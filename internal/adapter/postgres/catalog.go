package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
	"github.com/guillermoBallester/pgreader/internal/core/port"
)

type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) ListSchemas(ctx context.Context) ([]port.SchemaInfo, error) {
	rows, err := c.pool.Query(ctx, queryListSchemas)
	if err != nil {
		return nil, fmt.Errorf("listing schemas: %w", err)
	}
	defer rows.Close()

	var schemas []port.SchemaInfo
	for rows.Next() {
		var s port.SchemaInfo
		if err := rows.Scan(&s.Name); err != nil {
			return nil, fmt.Errorf("scanning schema row: %w", err)
		}
		schemas = append(schemas, s)
	}
	return schemas, rows.Err()
}

func (c *Catalog) PackageProcedures(ctx context.Context, packages domain.Packages) ([]port.ProcedureInfo, error) {
	if len(packages) == 0 {
		return nil, nil
	}
	schemas := make([]string, 0, len(packages))
	for _, p := range packages {
		schemas = append(schemas, p.Name)
	}

	rows, err := c.pool.Query(ctx, queryListProcedures, schemas)
	if err != nil {
		return nil, fmt.Errorf("listing procedures: %w", err)
	}
	defer rows.Close()

	byPackage := make(map[string][]port.ProcedureInfo, len(packages))
	for rows.Next() {
		var p port.ProcedureInfo
		if err := rows.Scan(&p.Schema, &p.Name, &p.Kind, &p.Arguments, &p.Result); err != nil {
			return nil, fmt.Errorf("scanning procedure row: %w", err)
		}
		// Keep only procedures that a call by bare name would reach here.
		pkg, ok := packages.Lookup(p.Name)
		if !ok || pkg.Name != p.Schema {
			continue
		}
		p.Package = pkg.Name
		byPackage[pkg.Name] = append(byPackage[pkg.Name], p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []port.ProcedureInfo
	seen := make(map[string]bool, len(packages))
	for _, p := range packages {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		out = append(out, byPackage[p.Name]...)
	}
	return out, nil
}
