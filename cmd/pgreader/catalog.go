package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
)

func packagesCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "packages",
		Usage: "List the database's packages and the procedures each one routes",
		Flags: []cli.Flag{outputFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			db, err := a.database(ctx)
			if err != nil {
				return err
			}
			packages := domain.Packages(db.Packages())
			if len(packages) == 0 {
				fmt.Fprintf(os.Stderr, "database %q has no packages\n", a.name)
				return nil
			}

			catalog, err := db.Catalog(ctx)
			if err != nil {
				return err
			}
			procs, err := catalog.PackageProcedures(ctx, packages)
			if err != nil {
				return err
			}

			if cmd.String("output") == outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"packages": packages, "procedures": procs})
			}

			pkgRows := make([][]string, len(packages))
			for i, p := range packages {
				pkgRows[i] = []string{p.Name, p.Prefix}
			}
			fmt.Fprintln(os.Stdout, newTable("package", "prefix").Rows(pkgRows...).Render())

			procRows := make([][]string, len(procs))
			for i, p := range procs {
				procRows[i] = []string{p.Package, p.Schema + "." + p.Name, p.Kind, p.Arguments, p.Result}
			}
			fmt.Fprintln(os.Stdout, newTable("package", "procedure", "kind", "arguments", "result").Rows(procRows...).Render())
			return nil
		},
	}
}

func schemasCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "schemas",
		Usage: "List the database's user schemas",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			db, err := a.database(ctx)
			if err != nil {
				return err
			}
			catalog, err := db.Catalog(ctx)
			if err != nil {
				return err
			}
			schemas, err := catalog.ListSchemas(ctx)
			if err != nil {
				return err
			}
			for _, s := range schemas {
				fmt.Fprintln(os.Stdout, s.Name)
			}
			return nil
		},
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		})
}
