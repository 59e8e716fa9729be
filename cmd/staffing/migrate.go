package main

import (
	"fmt"

	"github.com/rpattn/staffing/internal/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or revert the database schema",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(db.MigrateUp), string(db.MigrateDown)},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := db.MigrateUp
			if len(args) == 1 {
				direction = db.Direction(args[0])
			}
			if direction != db.MigrateUp && direction != db.MigrateDown {
				return fmt.Errorf("unknown direction %q, use up or down", args[0])
			}

			a, err := loadApp(global)
			if err != nil {
				return err
			}
			return db.RunMigrations(a.cfg.Database, direction, a.log)
		},
	}
}
