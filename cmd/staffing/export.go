package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/export"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	project  string
	template bool
}

func newExportCmd(global *globalOptions) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export <clients|employees|projects|assignments> <file.xlsx|file.csv>",
		Short: "Write records in the import layout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, ok := domain.ParseEntityType(args[0])
			if !ok {
				return fmt.Errorf("unknown entity %q", args[0])
			}
			format, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(args[1]), "."))
			if err != nil {
				return err
			}

			var sheet export.Sheet
			if opts.template {
				sheet, err = export.Template(entity)
			} else {
				sheet, err = exportSheet(cmd, global, entity, opts.project)
			}
			if err != nil {
				return err
			}

			out, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("create %s: %w", args[1], err)
			}
			if err := sheet.Write(out, format); err != nil {
				_ = out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d row(s) to %s\n", len(sheet.Rows), args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.project, "project", "", "project id (assignments only)")
	cmd.Flags().BoolVar(&opts.template, "template", false, "write the empty import template instead")
	return cmd
}

func exportSheet(cmd *cobra.Command, global *globalOptions, entity domain.EntityType, project string) (export.Sheet, error) {
	var projectID uuid.UUID
	if entity == domain.EntityAssignment {
		id, err := uuid.Parse(project)
		if err != nil {
			return export.Sheet{}, fmt.Errorf("--project must be a project id: %w", err)
		}
		projectID = id
	}

	a, err := loadApp(global)
	if err != nil {
		return export.Sheet{}, err
	}
	conn, _, exports, err := a.services(cmd.Context())
	if err != nil {
		return export.Sheet{}, err
	}
	defer conn.Close()
	return exports.Export(cmd.Context(), entity, projectID)
}
