package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rpattn/staffing/internal/audit"
	"github.com/rpattn/staffing/internal/config"
	"github.com/rpattn/staffing/internal/db"
	"github.com/rpattn/staffing/internal/export"
	"github.com/rpattn/staffing/internal/ingestion"
	"github.com/rpattn/staffing/internal/logging"
	"github.com/rpattn/staffing/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "staffing",
		Short:         "Staffing admin backend: spreadsheet imports, exports and the HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", ".", "directory containing config.yaml")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// app is the state shared by every command once configuration is loaded.
type app struct {
	cfg config.Config
	log *logrus.Logger
}

func loadApp(opts *globalOptions) (*app, error) {
	boot := logging.New("info", "text", os.Stderr)
	cfg, err := config.Load(opts.configPath, boot)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)}, nil
}

// services connects to the database and builds the import and export
// services. The caller closes the returned connection.
func (a *app) services(ctx context.Context) (*db.Connection, *ingestion.Service, *export.Service, error) {
	conn, err := db.NewConnection(ctx, a.cfg.Database, a.log)
	if err != nil {
		return nil, nil, nil, err
	}
	store := repository.NewPostgresStore(conn)
	imports := ingestion.NewService(store, audit.NewRecorder(store.Audit()),
		ingestion.WithMaxUploadBytes(a.cfg.Upload.MaxBytes),
		ingestion.WithMaxIdentifierAttempts(a.cfg.Import.MaxIdentifierAttempts),
	)
	return conn, imports, export.NewService(store), nil
}
