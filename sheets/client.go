package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/warp/fund-ledger/workbook"
)

// Client pushes grids into one tab of one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	moneyFmt      string
	log           logrus.FieldLogger
}

// Options configures NewClient.
type Options struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	Locale             workbook.Locale
}

// NewClient creates a Sheets client authenticated with a service account.
// An empty SheetName uses the locale's sheet name.
func NewClient(ctx context.Context, opts Options, log logrus.FieldLogger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentials(opts.ServiceAccountJSON, opts.ServiceAccountFile)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	name := strings.TrimSpace(opts.SheetName)
	if name == "" {
		name = opts.Locale.SheetName
	}
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     name,
		moneyFmt:      opts.Locale.SheetsMoneyFmt,
		log:           log.WithFields(logrus.Fields{"component": "sheets", "sheet": name}),
	}, nil
}

// credentials prefers inline JSON over a file path.
func credentials(inline, file string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	file = strings.TrimSpace(file)
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
}

// Publish replaces the tab's content with g, creating the tab if needed.
func (c *Client) Publish(ctx context.Context, g *workbook.Grid) error {
	sheetID, err := c.ensureSheet(ctx)
	if err != nil {
		return err
	}

	reqs := BuildRequests(sheetID, g, c.moneyFmt)
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update: %w", err)
	}

	c.log.WithFields(logrus.Fields{"rows": len(g.Rows), "requests": len(reqs)}).Info("mirror published")
	return nil
}

func (c *Client) ensureSheet(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			return sh.Properties.SheetId, nil
		}
	}

	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: c.sheetName}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add sheet %q: %w", c.sheetName, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("add sheet %q: empty reply", c.sheetName)
	}

	c.log.Info("created mirror sheet")
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}
