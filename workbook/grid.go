/*
Package workbook lays a ledger out as a spreadsheet grid and encodes it.

PURPOSE:
  Render turns a summary plus ordered rows into a Grid: plain cells with
  values, styles, border tiers and merge ranges. The Grid knows nothing
  about file formats; xlsx.go encodes it with excelize and sheets/ pushes
  the same Grid to Google Sheets.

LAYOUT (7 columns: Year, Month, Day, Description, Income, Expense, Balance):
  row 0        title, merged A:G
  row 1        column headers
  rows 2..     one row per transaction, running balance in G
  blank
  2 rows       Total Income / Total Expense / Total Balance in E:G
  blank
  4 rows       carry, target-year income, expense, balance (label E:F, value G)

BORDER TIERS (heaviest first):
  Thick   outer rectangle of the data region
  Medium  month run boundary
  Thin    day run boundary, header and summary cells
  Hair    every other edge inside the data region

  A run's closing edge is owned by its last row: that row's bottom and the
  next row's top carry the same tier.

SEE ALSO:
  - render.go: Grid construction
  - xlsx.go: excelize encoder
  - ledger/segment.go: Month/day runs
*/
package workbook

import "github.com/shopspring/decimal"

// Column indexes.
const (
	ColYear = iota
	ColMonth
	ColDay
	ColDescription
	ColIncome
	ColExpense
	ColBalance

	NumCols
)

// Tier is a border weight.
type Tier int

const (
	TierNone Tier = iota
	TierHair
	TierThin
	TierMedium
	TierThick
)

// Align is horizontal alignment.
type Align int

const (
	AlignGeneral Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Borders holds the tier of each cell edge.
type Borders struct {
	Top, Bottom, Left, Right Tier
}

// Style is everything about a cell except its value. It is comparable so
// encoders can cache one native style per distinct Style.
type Style struct {
	Bold   bool
	Size   float64
	Align  Align
	Wrap   bool
	Fill   string // RGB hex without '#', "" for none
	Money  bool
	Border Borders
}

// Kind is the cell value type.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
)

// Cell is one grid cell.
type Cell struct {
	Kind   Kind
	Text   string
	Number decimal.Decimal
	Style  Style
}

// Merge is an inclusive, zero-based cell range.
type Merge struct {
	Top, Left, Bottom, Right int
}

// Grid is a rendered sheet.
type Grid struct {
	SheetName  string
	Font       string
	MoneyFmt   string
	Widths     [NumCols]float64
	FrozenRows int
	Rows       [][]Cell
	Merges     []Merge

	// Row indexes of the sections, for callers and tests.
	HeaderRow   int
	DataStart   int
	DataCount   int
	TotalsRow   int // label row; values are TotalsRow+1
	DetailStart int
}

func newGrid(rows int) *Grid {
	g := &Grid{Rows: make([][]Cell, rows)}
	for i := range g.Rows {
		g.Rows[i] = make([]Cell, NumCols)
	}
	return g
}

// Cell returns a pointer to the cell at (row, col).
func (g *Grid) Cell(row, col int) *Cell {
	return &g.Rows[row][col]
}

// DataRow returns the grid row index of the i-th transaction.
func (g *Grid) DataRow(i int) int {
	return g.DataStart + i
}

func text(s string, st Style) Cell {
	return Cell{Kind: KindText, Text: SanitizeText(s), Style: st}
}

func number(d decimal.Decimal, st Style) Cell {
	return Cell{Kind: KindNumber, Number: d, Style: st}
}

func integer(n int, st Style) Cell {
	return number(decimal.NewFromInt(int64(n)), st)
}
