// Package commands implements the fundledger command line.
package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warp/fund-ledger/config"
	"github.com/warp/fund-ledger/ledger"
	"github.com/warp/fund-ledger/logging"
	"github.com/warp/fund-ledger/store/sqlite"
	"github.com/warp/fund-ledger/workbook"
)

// Version is set at build time with -ldflags "-X ...commands.Version=...".
var Version = "dev"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "fundledger",
		Short:   "Shared fund ledger with spreadsheet export",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newWorkerCommand())
	rootCmd.AddCommand(newMigrateCommand())

	return rootCmd
}

// =============================================================================
// SHARED WIRING
// =============================================================================

// app holds the dependencies every command builds the same way.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	store    *sqlite.Store
	renderer *workbook.Renderer
	encoder  *workbook.Encoder
}

func newApp() (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"db":             cfg.DBPath,
		"schema_version": store.SchemaVersion(),
	}).Info("database ready")

	return &app{
		cfg:      cfg,
		log:      logger,
		store:    store,
		renderer: workbook.NewRenderer(workbook.LocaleFor(cfg.Locale)),
		encoder:  workbook.NewEncoder(logger),
	}, nil
}

func (a *app) service(notifier ledger.Notifier) *ledger.Service {
	return ledger.NewService(a.store, notifier, a.log)
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("failed to close database")
	}
}

// =============================================================================
// MIGRATE
// =============================================================================

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Ping(context.Background()); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", a.store.SchemaVersion())
			return nil
		},
	}
}
