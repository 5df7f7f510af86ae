package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/warp/fund-ledger/events"
	"github.com/warp/fund-ledger/mirror"
	"github.com/warp/fund-ledger/sheets"
	"github.com/warp/fund-ledger/workbook"
)

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Mirror the ledger to Google Sheets on every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return runWorker(a)
		},
	}
}

func runWorker(a *app) error {
	if !a.cfg.MirrorEnabled() {
		return errors.New("GOOGLE_SPREADSHEET_ID is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher, err := sheets.NewClient(ctx, sheets.Options{
		SpreadsheetID:      a.cfg.GoogleSpreadsheetID,
		SheetName:          a.cfg.GoogleSheetName,
		ServiceAccountJSON: a.cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: a.cfg.GoogleServiceAccountFile,
		Locale:             workbook.LocaleFor(a.cfg.Locale),
	}, a.log)
	if err != nil {
		return fmt.Errorf("sheets client: %w", err)
	}

	var source mirror.Source
	if a.cfg.EventsEnabled() {
		client, err := events.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, a.log)
		if err != nil {
			return fmt.Errorf("connect AMQP: %w", err)
		}
		defer client.Close()
		source = client
	} else {
		a.log.Warn("AMQP_URL not set, mirror refreshes on schedule only")
	}

	w := mirror.NewWorker(a.service(nil), a.renderer, publisher, source, a.cfg.MirrorResyncCron, a.log)
	a.log.Info("worker started")
	if err := w.Run(ctx); err != nil {
		return err
	}
	a.log.Info("worker stopped")
	return nil
}
