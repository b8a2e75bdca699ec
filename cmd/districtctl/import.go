package main

import (
	"context"
	"database/sql"
	"fmt"

	"district-dash/internal/dataset"
	"district-dash/internal/logger"
	"district-dash/internal/migrate"
	"district-dash/internal/population"
	"district-dash/internal/store"
	"district-dash/internal/utils"

	"github.com/spf13/cobra"
)

type importOptions struct {
	csv    string
	cols   population.Columns
	driver string
	sqlite string
}

func newImportCmd() *cobra.Command {
	o := &importOptions{cols: population.DefaultColumns}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a population CSV into Postgres (PG_* env) or SQLite",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := runImport(cmd.Context(), o)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows\n", n)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.csv, "csv", "data/population.csv", "population CSV file")
	f.StringVar(&o.cols.Date, "date-col", o.cols.Date, "CSV date column")
	f.StringVar(&o.cols.District, "district-col", o.cols.District, "CSV district column")
	f.StringVar(&o.cols.Value, "value-col", o.cols.Value, "CSV value column")
	f.StringVar(&o.driver, "driver", "sqlite", "target database: postgres or sqlite")
	f.StringVar(&o.sqlite, "sqlite", "data/population.db", "SQLite file (driver=sqlite)")
	return cmd
}

func runImport(ctx context.Context, o *importOptions) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	tbl, err := dataset.LoadCSV(o.csv, o.cols)
	if err != nil {
		return 0, err
	}
	var db *sql.DB
	switch o.driver {
	case "postgres":
		db, err = utils.OpenPostgresFromEnv()
	case "sqlite":
		db, err = utils.OpenSQLite(o.sqlite)
	default:
		return 0, fmt.Errorf("unknown driver %q", o.driver)
	}
	if err != nil {
		return 0, err
	}
	defer db.Close()
	if err := migrate.EnsureSchema(db); err != nil {
		return 0, err
	}
	n, err := store.AttachDB(db).ImportTable(ctx, tbl)
	if err != nil {
		return n, err
	}
	logger.L().Info("import_done", "driver", o.driver, "rows", n)
	return n, nil
}
