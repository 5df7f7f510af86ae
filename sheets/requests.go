/*
Package sheets mirrors a rendered ledger Grid into a Google Sheets tab.

PURPOSE:
  The xlsx export and the online mirror share one layout: both consume the
  workbook.Grid produced by workbook.Renderer. BuildRequests converts a Grid
  into a single batchUpdate that replaces the tab's content, so a mirror
  refresh is atomic from the reader's point of view.

BATCH ORDER:
  1. clear values and formats
  2. unmerge everything
  3. frozen rows and column widths
  4. one UpdateCells with every value and format
  5. merges

BORDER MAPPING:
  Hair   -> DOTTED
  Thin   -> SOLID
  Medium -> SOLID_MEDIUM
  Thick  -> SOLID_THICK

SEE ALSO:
  - client.go: Service account auth and BatchUpdate
  - workbook/grid.go: Grid, Style, Tier
*/
package sheets

import (
	"strconv"
	"strings"

	gsheet "google.golang.org/api/sheets/v4"

	"github.com/warp/fund-ledger/workbook"
)

const cellFields = "userEnteredValue,userEnteredFormat"

// BuildRequests returns the batch replacing sheet sheetID with g.
// moneyFmt is a Sheets number pattern applied to money cells.
func BuildRequests(sheetID int64, g *workbook.Grid, moneyFmt string) []*gsheet.Request {
	whole := &gsheet.GridRange{SheetId: sheetID}

	reqs := []*gsheet.Request{
		{UpdateCells: &gsheet.UpdateCellsRequest{Range: whole, Fields: cellFields}},
		{UnmergeCells: &gsheet.UnmergeCellsRequest{Range: whole}},
		{UpdateSheetProperties: &gsheet.UpdateSheetPropertiesRequest{
			Properties: &gsheet.SheetProperties{
				SheetId:        sheetID,
				GridProperties: &gsheet.GridProperties{FrozenRowCount: int64(g.FrozenRows)},
			},
			Fields: "gridProperties.frozenRowCount",
		}},
	}

	for col, width := range g.Widths {
		reqs = append(reqs, &gsheet.Request{UpdateDimensionProperties: &gsheet.UpdateDimensionPropertiesRequest{
			Range: &gsheet.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: int64(col),
				EndIndex:   int64(col + 1),
			},
			Properties: &gsheet.DimensionProperties{PixelSize: columnPixels(width)},
			Fields:     "pixelSize",
		}})
	}

	rows := make([]*gsheet.RowData, len(g.Rows))
	for r, row := range g.Rows {
		values := make([]*gsheet.CellData, len(row))
		for c := range row {
			values[c] = cellData(row[c], g.Font, moneyFmt)
		}
		rows[r] = &gsheet.RowData{Values: values}
	}
	reqs = append(reqs, &gsheet.Request{UpdateCells: &gsheet.UpdateCellsRequest{
		Start:  &gsheet.GridCoordinate{SheetId: sheetID},
		Rows:   rows,
		Fields: cellFields,
	}})

	for _, m := range g.Merges {
		if m.Top == m.Bottom && m.Left == m.Right {
			continue
		}
		reqs = append(reqs, &gsheet.Request{MergeCells: &gsheet.MergeCellsRequest{
			Range: &gsheet.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    int64(m.Top),
				EndRowIndex:      int64(m.Bottom + 1),
				StartColumnIndex: int64(m.Left),
				EndColumnIndex:   int64(m.Right + 1),
			},
			MergeType: "MERGE_ALL",
		}})
	}

	return reqs
}

// columnPixels converts an Excel character width to pixels.
func columnPixels(width float64) int64 {
	return int64(width*7 + 5)
}

func cellData(cell workbook.Cell, font, moneyFmt string) *gsheet.CellData {
	cd := &gsheet.CellData{UserEnteredFormat: cellFormat(cell.Style, font, moneyFmt)}
	switch cell.Kind {
	case workbook.KindText:
		s := cell.Text
		cd.UserEnteredValue = &gsheet.ExtendedValue{StringValue: &s}
	case workbook.KindNumber:
		f := cell.Number.InexactFloat64()
		cd.UserEnteredValue = &gsheet.ExtendedValue{NumberValue: &f}
	}
	return cd
}

func cellFormat(st workbook.Style, font, moneyFmt string) *gsheet.CellFormat {
	f := &gsheet.CellFormat{
		VerticalAlignment: "MIDDLE",
		TextFormat: &gsheet.TextFormat{
			FontFamily: font,
			FontSize:   int64(st.Size),
			Bold:       st.Bold,
		},
		HorizontalAlignment: alignment(st.Align),
		Borders: &gsheet.Borders{
			Top:    border(st.Border.Top),
			Bottom: border(st.Border.Bottom),
			Left:   border(st.Border.Left),
			Right:  border(st.Border.Right),
		},
	}
	if st.Wrap {
		f.WrapStrategy = "WRAP"
	}
	if st.Fill != "" {
		f.BackgroundColor = hexColor(st.Fill)
	}
	if st.Money && moneyFmt != "" {
		f.NumberFormat = &gsheet.NumberFormat{Type: "NUMBER", Pattern: moneyFmt}
	}
	return f
}

func alignment(a workbook.Align) string {
	switch a {
	case workbook.AlignLeft:
		return "LEFT"
	case workbook.AlignCenter:
		return "CENTER"
	case workbook.AlignRight:
		return "RIGHT"
	}
	return ""
}

func border(t workbook.Tier) *gsheet.Border {
	var style string
	switch t {
	case workbook.TierHair:
		style = "DOTTED"
	case workbook.TierThin:
		style = "SOLID"
	case workbook.TierMedium:
		style = "SOLID_MEDIUM"
	case workbook.TierThick:
		style = "SOLID_THICK"
	default:
		return nil
	}
	return &gsheet.Border{Style: style}
}

// hexColor parses RRGGBB. Malformed values give nil (no fill).
func hexColor(hex string) *gsheet.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return nil
	}
	var rgb [3]float64
	for i := range rgb {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil
		}
		rgb[i] = float64(v) / 255
	}
	return &gsheet.Color{Red: rgb[0], Green: rgb[1], Blue: rgb[2]}
}
