package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/guillermoBallester/pgreader/internal/adapter/sqldb"
	"github.com/guillermoBallester/pgreader/internal/core/reader"
)

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output format: table, json",
		Value:   outputTable,
	}
}

func maxRowsFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "max-rows",
		Usage: "Rows to read per result set (defaults to MAX_ROWS)",
	}
}

func (a *app) maxRows(cmd *cli.Command) int {
	if n := cmd.Int("max-rows"); n > 0 {
		return int(n)
	}
	return a.cfg.MaxRows
}

// statementArgs returns the SQL text and its positional arguments.
func statementArgs(cmd *cli.Command) (string, []any, error) {
	if cmd.NArg() == 0 {
		return "", nil, fmt.Errorf("a statement is required")
	}
	tail := cmd.Args().Tail()
	args := make([]any, len(tail))
	for i, v := range tail {
		args[i] = v
	}
	return cmd.Args().First(), args, nil
}

func queryCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Run a single statement and print its rows",
		ArgsUsage: "SQL [ARG...]",
		Flags: []cli.Flag{
			outputFlag(),
			maxRowsFlag(),
			&cli.BoolFlag{
				Name:  "stdlib",
				Usage: "Read through database/sql instead of the native driver",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			stmt, args, err := statementArgs(cmd)
			if err != nil {
				return err
			}
			if cmd.Bool("stdlib") {
				return a.queryStdlib(ctx, cmd, stmt, args)
			}

			svc, err := a.queryService(ctx)
			if err != nil {
				return err
			}
			r, err := svc.Query(ctx, stmt, args...)
			if err != nil {
				return err
			}
			return a.print(cmd, r, false)
		},
	}
}

// queryStdlib runs stmt through database/sql on the handle's pool, inside a
// transaction that honours READ_ONLY.
func (a *app) queryStdlib(ctx context.Context, cmd *cli.Command, stmt string, args []any) error {
	db, err := a.database(ctx)
	if err != nil {
		return err
	}
	if err := db.Validate(stmt); err != nil {
		return err
	}
	sqlDB, err := db.OpenDB(ctx)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	tx, err := sqlDB.BeginTx(ctx, &sql.TxOptions{ReadOnly: db.ReadOnly()})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	r, err := sqldb.NewDB(tx, reader.WithNameMatching(a.cfg.NameMatching)).Query(ctx, stmt, args...)
	if err != nil {
		return err
	}
	return a.print(cmd, r, false)
}

// print renders r and closes it.
func (a *app) print(cmd *cli.Command, r *reader.Reader, all bool) error {
	sets, err := collect(r, a.maxRows(cmd), all)
	if closeErr := r.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	return render(os.Stdout, cmd.String("output"), sets)
}

func batchCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Run several statements and print every result set",
		ArgsUsage: "SQL",
		Flags:     []cli.Flag{outputFlag(), maxRowsFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("exactly one SQL argument is required")
			}
			svc, err := a.queryService(ctx)
			if err != nil {
				return err
			}
			r, err := svc.QueryBatch(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			return a.print(cmd, r, true)
		},
	}
}

func callCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "Call a set-returning procedure, routed through the database's packages",
		ArgsUsage: "PROCEDURE [ARG...]",
		Flags:     []cli.Flag{outputFlag(), maxRowsFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name, args, err := statementArgs(cmd)
			if err != nil {
				return err
			}
			svc, err := a.queryService(ctx)
			if err != nil {
				return err
			}
			r, err := svc.Call(ctx, name, args...)
			if err != nil {
				return err
			}
			return a.print(cmd, r, false)
		},
	}
}

func describeCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Usage:     "Print the column metadata of a statement's result",
		ArgsUsage: "SQL [ARG...]",
		Flags:     []cli.Flag{outputFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			stmt, args, err := statementArgs(cmd)
			if err != nil {
				return err
			}
			svc, err := a.queryService(ctx)
			if err != nil {
				return err
			}
			r, err := svc.Query(ctx, stmt, args...)
			if err != nil {
				return err
			}
			defer r.Close()

			st, err := r.SchemaTable()
			if err != nil {
				return err
			}
			return renderColumns(os.Stdout, cmd.String("output"), st)
		},
	}
}
