package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rpattn/staffing/internal/auth"
	"github.com/rpattn/staffing/internal/domain"
	"github.com/rpattn/staffing/internal/ingestion"
	"github.com/spf13/cobra"
)

type importOptions struct {
	project string
	user    string
	dryRun  bool
}

func newImportCmd(global *globalOptions) *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import <clients|employees|projects|assignments> <file>",
		Short: "Import a spreadsheet the same way the upload endpoint does",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, ok := domain.ParseEntityType(args[0])
			if !ok {
				return fmt.Errorf("unknown entity %q", args[0])
			}
			if strings.TrimSpace(opts.user) == "" {
				return errors.New("--user is required")
			}
			var projectID uuid.UUID
			if entity == domain.EntityAssignment {
				id, err := uuid.Parse(opts.project)
				if err != nil {
					return fmt.Errorf("--project must be a project id: %w", err)
				}
				projectID = id
			}

			file, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[1], err)
			}
			defer file.Close()

			a, err := loadApp(global)
			if err != nil {
				return err
			}
			ctx := auth.ContextWithUserID(cmd.Context(), opts.user)
			conn, imports, _, err := a.services(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			summary, err := imports.Import(ctx, entity, ingestion.Request{
				FileName:  filepath.Base(args[1]),
				Data:      file,
				ProjectID: projectID,
				DryRun:    opts.dryRun,
			})
			if err != nil {
				var rowErr *ingestion.RowValidationError
				if errors.As(err, &rowErr) {
					messages := rowErr.Messages()
					for _, row := range rowErr.RowNumbers() {
						for _, msg := range messages[row] {
							fmt.Fprintf(cmd.ErrOrStderr(), "row %d: %s\n", row, msg)
						}
					}
					return fmt.Errorf("%d row(s) failed validation, nothing was imported", len(messages))
				}
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	cmd.Flags().StringVar(&opts.project, "project", "", "target project id (assignments only)")
	cmd.Flags().StringVar(&opts.user, "user", "", "acting user recorded in the audit log")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "validate and report without writing")
	return cmd
}
