package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warp/fund-ledger/api"
	"github.com/warp/fund-ledger/ledger"
)

func newExportCommand() *cobra.Command {
	var (
		out   string
		query ledger.Query
		order string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ledger workbook to a file",
		Long: "Renders the ledger exactly like GET /ledger.xlsx and writes it to --out.\n" +
			"Without --out the file is named <prefix>_<YYYY-MM-DD>.xlsx in the current directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			query.Order = ledger.Order(order)
			if out == "" {
				prefix := a.cfg.ExportTitlePrefix
				if prefix == "" {
					prefix = a.renderer.Locale().FilePrefix
				}
				out = api.ExportFilename(prefix, time.Now())
			}
			return runExport(cmd.Context(), a, query, out)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().StringVar(&query.Start, "start", "", "first date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&query.End, "end", "", "last date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&query.Q, "q", "", "description search")
	cmd.Flags().StringVar(&order, "order", "asc", "row order: asc or desc")

	return cmd
}

func runExport(ctx context.Context, a *app, q ledger.Query, out string) error {
	report, err := a.service(nil).Report(ctx, q)
	if err != nil {
		return err
	}
	grid := a.renderer.Render(report.Summary, report.Rows, ledger.SegmentRows(report.Rows))

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	w := bufio.NewWriter(f)
	if err := a.encoder.Encode(w, grid); err != nil {
		f.Close()
		return fmt.Errorf("encode workbook: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", out, err)
	}

	a.log.WithFields(logrus.Fields{"file": out, "rows": len(report.Rows)}).Info("workbook exported")
	return nil
}
