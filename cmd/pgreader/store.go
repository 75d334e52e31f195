package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/guillermoBallester/pgreader/internal/adapter/store"
	"github.com/guillermoBallester/pgreader/internal/config"
	"github.com/guillermoBallester/pgreader/internal/core/domain"
)

func migrateCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply the settings store schema",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if a.cfg.StoreURL == "" {
				return fmt.Errorf("STORE_URL or DATABASE_URL environment variable is required")
			}
			if err := store.Migrate(ctx, a.cfg.StoreURL); err != nil {
				return err
			}
			a.logger.InfoContext(ctx, "settings store migrated")
			return nil
		},
	}
}

func registerCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "register",
		Usage:     "Store an encrypted connection string for a logical database name",
		ArgsUsage: "NAME CONNECTION_URL",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("NAME and CONNECTION_URL are required")
			}
			if a.cfg.SettingsSource != config.SourceStore {
				return fmt.Errorf("register requires SETTINGS_SOURCE=store")
			}
			svc, err := a.connectionService(ctx)
			if err != nil {
				return err
			}
			name := cmd.Args().Get(0)
			if err := svc.Register(ctx, name, cmd.Args().Get(1)); err != nil {
				return err
			}
			a.logger.InfoContext(ctx, "connection registered", slog.String("db.namespace", name))
			return nil
		},
	}
}

func setPackagesCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "set-packages",
		Usage:     "Replace the packages of a logical database name in the settings store",
		ArgsUsage: "NAME [PACKAGE:PREFIX...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return fmt.Errorf("NAME is required")
			}
			packages, err := parsePackages(cmd.Args().Tail())
			if err != nil {
				return err
			}
			repo, err := a.repository(ctx)
			if err != nil {
				return err
			}
			name := cmd.Args().First()
			if err := repo.SavePackages(ctx, name, packages); err != nil {
				return err
			}
			a.logger.InfoContext(ctx, "packages saved", slog.String("db.namespace", name), slog.Int("packages", len(packages)))
			return nil
		},
	}
}

// parsePackages reads "name:prefix" pairs in order.
func parsePackages(specs []string) ([]domain.Package, error) {
	packages := make([]domain.Package, 0, len(specs))
	for _, s := range specs {
		name, prefix, ok := strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("%w: package %q must be NAME:PREFIX", domain.ErrMalformedConfig, s)
		}
		packages = append(packages, domain.Package{Name: name, Prefix: prefix})
	}
	return packages, nil
}

var styleError = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"}).Padding(0, 1)

func historyCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recently logged statements from the settings store",
		Flags: []cli.Flag{
			outputFlag(),
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Include every logical database, not just the selected one",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of entries to show",
				Value: 20,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := a.repository(ctx); err != nil {
				return err
			}
			name := a.name
			if cmd.Bool("all") {
				name = ""
			}
			entries, err := store.NewAuditRepository(a.storePool).ListStatements(ctx, name, int(cmd.Int("limit")))
			if err != nil {
				return err
			}

			if cmd.String("output") == outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{
					e.CreatedAt.Local().Format(time.DateTime),
					e.Database,
					e.Operation,
					strconv.Itoa(e.DurationMs) + "ms",
					e.Statement,
				}
			}
			t := newTable("time", "database", "operation", "duration", "statement").
				Rows(rows...).
				StyleFunc(func(row, _ int) lipgloss.Style {
					switch {
					case row == table.HeaderRow:
						return styleHeader
					case entries[row].IsError:
						return styleError
					default:
						return styleCell
					}
				})
			fmt.Fprintln(os.Stdout, t.Render())
			return nil
		},
	}
}
