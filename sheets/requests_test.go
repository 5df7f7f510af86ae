package sheets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/warp/fund-ledger/ledger"
	"github.com/warp/fund-ledger/workbook"
)

func workedGrid() *workbook.Grid {
	rows := []ledger.Transaction{
		{ID: "a", Date: "2024-03-01", Description: "dues", Income: decimal.NewFromInt(1000)},
		{ID: "b", Date: "2024-03-01", Description: "snacks", Expense: decimal.NewFromInt(200)},
		{ID: "c", Date: "2024-03-02", Description: "cups", Expense: decimal.NewFromInt(100)},
	}
	carry := ledger.CarrySetting{PrevYear: 2023, PrevCarry: decimal.NewFromInt(500)}
	return workbook.NewRenderer(workbook.Korean).Render(ledger.Aggregate(rows, carry), rows, ledger.SegmentRows(rows))
}

func TestBuildRequests_Structure(t *testing.T) {
	// GIVEN: The worked example grid
	g := workedGrid()

	// WHEN: Building the batch for sheet 42
	reqs := BuildRequests(42, g, workbook.Korean.SheetsMoneyFmt)

	// THEN: Clear, unmerge, freeze, 7 widths, cells, then one merge per range
	require.Len(t, reqs, 3+workbook.NumCols+1+len(g.Merges))
	assert.NotNil(t, reqs[0].UpdateCells)
	assert.Nil(t, reqs[0].UpdateCells.Rows)
	assert.NotNil(t, reqs[1].UnmergeCells)
	assert.Equal(t, int64(2), reqs[2].UpdateSheetProperties.Properties.GridProperties.FrozenRowCount)

	width := reqs[3].UpdateDimensionProperties
	assert.Equal(t, "COLUMNS", width.Range.Dimension)
	assert.Equal(t, columnPixels(4.38), width.Properties.PixelSize)
	assert.Equal(t, int64(35), width.Properties.PixelSize)

	cells := reqs[3+workbook.NumCols].UpdateCells
	require.NotNil(t, cells)
	assert.Equal(t, int64(42), cells.Start.SheetId)
	assert.Len(t, cells.Rows, len(g.Rows))

	for _, r := range reqs[4+workbook.NumCols:] {
		require.NotNil(t, r.MergeCells)
		assert.Equal(t, int64(42), r.MergeCells.Range.SheetId)
	}
}

func TestBuildRequests_Cells(t *testing.T) {
	g := workedGrid()
	reqs := BuildRequests(0, g, workbook.Korean.SheetsMoneyFmt)
	rows := reqs[3+workbook.NumCols].UpdateCells.Rows

	title := rows[0].Values[0]
	require.NotNil(t, title.UserEnteredValue.StringValue)
	assert.Equal(t, "2024년 공금 수불부", *title.UserEnteredValue.StringValue)
	assert.Equal(t, "맑은 고딕", title.UserEnteredFormat.TextFormat.FontFamily)

	balance := rows[g.DataRow(2)].Values[workbook.ColBalance]
	require.NotNil(t, balance.UserEnteredValue.NumberValue)
	assert.Equal(t, 1200.0, *balance.UserEnteredValue.NumberValue)
	assert.Equal(t, workbook.Korean.SheetsMoneyFmt, balance.UserEnteredFormat.NumberFormat.Pattern)
	assert.Equal(t, "RIGHT", balance.UserEnteredFormat.HorizontalAlignment)
	assert.Equal(t, "SOLID_THICK", balance.UserEnteredFormat.Borders.Right.Style)
	assert.Equal(t, "SOLID_THICK", balance.UserEnteredFormat.Borders.Bottom.Style)

	inner := rows[g.DataRow(0)].Values[workbook.ColIncome].UserEnteredFormat.Borders
	assert.Equal(t, "DOTTED", inner.Bottom.Style)
	assert.Equal(t, "SOLID", rows[g.DataRow(1)].Values[workbook.ColIncome].UserEnteredFormat.Borders.Bottom.Style)

	day := rows[g.DataRow(0)].Values[workbook.ColDay]
	assert.Equal(t, 1.0, *day.UserEnteredValue.NumberValue)
	assert.Nil(t, day.UserEnteredFormat.NumberFormat)
}

func TestBuildRequests_MergeRangesAreHalfOpen(t *testing.T) {
	g := workedGrid()
	reqs := BuildRequests(7, g, "")

	var ranges []*gsheet.GridRange
	for _, r := range reqs {
		if r.MergeCells != nil {
			ranges = append(ranges, r.MergeCells.Range)
		}
	}

	assert.Contains(t, ranges, &gsheet.GridRange{SheetId: 7, StartRowIndex: 0, EndRowIndex: 1, StartColumnIndex: 0, EndColumnIndex: 7})
	assert.Contains(t, ranges, &gsheet.GridRange{SheetId: 7, StartRowIndex: 2, EndRowIndex: 4, StartColumnIndex: 2, EndColumnIndex: 3})
}

func TestHexColor(t *testing.T) {
	c := hexColor("D9E1F2")
	require.NotNil(t, c)
	assert.InDelta(t, 217.0/255, c.Red, 1e-9)
	assert.InDelta(t, 242.0/255, c.Blue, 1e-9)
	assert.Nil(t, hexColor("zzzzzz"))
	assert.Nil(t, hexColor("fff"))
}

func TestCredentials(t *testing.T) {
	b, err := credentials(` {"type":"service_account"} `, "/nope")
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, string(b))

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	b, err = credentials("", path)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))

	_, err = credentials("", "")
	assert.Error(t, err)
}
