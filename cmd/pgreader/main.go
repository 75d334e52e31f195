package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func main() {
	a := &app{}

	root := &cli.Command{
		Name:  "pgreader",
		Usage: "Read PostgreSQL result sets through typed, column-oriented cursors",
		Description: `Connection settings come from the environment (DATABASE_URL, SETTINGS_SOURCE,
SETTINGS_FILE, STORE_URL, ENCRYPTION_KEY, READ_ONLY, MAX_ROWS, QUERY_TIMEOUT,
COLUMN_NAME_MATCHING, AUDIT_STATEMENTS, LOG_LEVEL, LOG_FORMAT). Procedure packages are looked up
by logical database name; a database without an entry gets no packages.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "database",
				Usage: "Logical database name (defaults to DATABASE_NAME or \"default\")",
			},
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log level: debug, info, warn, error (overrides LOG_LEVEL)",
			},
		},
		Before: a.before,
		After: func(ctx context.Context, cmd *cli.Command) error {
			a.close()
			return nil
		},
		Commands: []*cli.Command{
			queryCmd(a),
			batchCmd(a),
			callCmd(a),
			describeCmd(a),
			packagesCmd(a),
			schemasCmd(a),
			migrateCmd(a),
			registerCmd(a),
			setPackagesCmd(a),
			historyCmd(a),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
