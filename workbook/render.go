package workbook

import (
	"fmt"

	"github.com/warp/fund-ledger/ledger"
)

// ColumnWidths are the sheet column widths in Excel character units.
var ColumnWidths = [NumCols]float64{4.38, 3.38, 3.38, 19.5, 12.5, 12.5, 15.5}

const (
	headerFill = "E7E6E6"
	totalsFill = "D9E1F2"
	bodySize   = 10
	titleSize  = 14
)

// Renderer builds Grids for one locale. It holds no per-request state and
// is safe for concurrent use.
type Renderer struct {
	locale Locale
}

// NewRenderer creates a renderer for loc.
func NewRenderer(loc Locale) *Renderer {
	return &Renderer{locale: loc}
}

// Locale returns the renderer's locale.
func (r *Renderer) Locale() Locale { return r.locale }

// Render lays out summary and rows. rows must be in the order they should
// appear and segs must come from ledger.SegmentRows(rows); runs reaching
// past the last row are ignored.
func (r *Renderer) Render(summary ledger.Summary, rows []ledger.Transaction, segs ledger.Segments) *Grid {
	loc := r.locale
	n := len(rows)

	g := newGrid(n + 10)
	g.SheetName = SanitizeText(loc.SheetName)
	g.Font = loc.Font
	g.MoneyFmt = loc.MoneyFmt
	g.Widths = ColumnWidths
	g.FrozenRows = 2
	g.HeaderRow = 1
	g.DataStart = 2
	g.DataCount = n
	g.TotalsRow = n + 3
	g.DetailStart = n + 6

	r.title(g, summary.Detail.TargetYear)
	r.header(g, n > 0)
	r.data(g, summary, rows, segs)
	r.totals(g, summary)
	r.detail(g, summary.Detail)
	return g
}

func (r *Renderer) title(g *Grid, year int) {
	st := Style{Bold: true, Size: titleSize, Align: AlignCenter}
	g.Rows[0][0] = text(fmt.Sprintf(r.locale.TitleFormat, year), st)
	for c := 1; c < NumCols; c++ {
		g.Rows[0][c].Style = st
	}
	g.Merges = append(g.Merges, Merge{Top: 0, Left: 0, Bottom: 0, Right: NumCols - 1})
}

func (r *Renderer) header(g *Grid, hasData bool) {
	b := Borders{Top: TierThin, Bottom: TierThin, Left: TierThin, Right: TierThin}
	if hasData {
		b.Bottom = TierThick
	}
	for c := 0; c < NumCols; c++ {
		st := Style{Bold: true, Size: bodySize, Align: AlignCenter, Fill: headerFill, Border: b}
		g.Rows[g.HeaderRow][c] = text(r.locale.Headers[c], st)
	}
}

func (r *Renderer) data(g *Grid, summary ledger.Summary, rows []ledger.Transaction, segs ledger.Segments) {
	n := len(rows)
	edges := horizontalEdges(n, segs)
	running := ledger.RunningBalances(rows, summary.Detail.PrevCarry)

	for i, tx := range rows {
		cells := g.Rows[g.DataRow(i)]
		border := func(c int) Borders {
			return Borders{Top: edges[i], Bottom: edges[i+1], Left: verticalEdge(c), Right: verticalEdge(c + 1)}
		}
		datePart := func(c int) Style { return Style{Size: bodySize, Align: AlignCenter, Border: border(c)} }
		money := func(c int) Style { return Style{Size: bodySize, Align: AlignRight, Money: true, Border: border(c)} }

		d := ledger.NormalizeDate(tx.Date)
		if d.Valid() {
			cells[ColYear] = integer(d.Year(), datePart(ColYear))
			cells[ColMonth] = integer(d.Month(), datePart(ColMonth))
			cells[ColDay] = integer(d.Day(), datePart(ColDay))
		} else {
			for c := ColYear; c <= ColDay; c++ {
				cells[c] = Cell{Style: datePart(c)}
			}
		}
		cells[ColDescription] = text(tx.Description, Style{Size: bodySize, Align: AlignLeft, Wrap: true, Border: border(ColDescription)})
		cells[ColIncome] = number(tx.Income, money(ColIncome))
		cells[ColExpense] = number(tx.Expense, money(ColExpense))
		cells[ColBalance] = number(running[i], money(ColBalance))
	}

	for _, s := range segs.Month.Merges() {
		if s.End >= n {
			continue
		}
		for _, c := range []int{ColYear, ColMonth} {
			g.Merges = append(g.Merges, Merge{Top: g.DataRow(s.Start), Left: c, Bottom: g.DataRow(s.End), Right: c})
		}
	}
	for _, s := range segs.Day.Merges() {
		if s.End >= n {
			continue
		}
		g.Merges = append(g.Merges, Merge{Top: g.DataRow(s.Start), Left: ColDay, Bottom: g.DataRow(s.End), Right: ColDay})
	}
}

func (r *Renderer) totals(g *Grid, s ledger.Summary) {
	thin := Borders{Top: TierThin, Bottom: TierThin, Left: TierThin, Right: TierThin}
	label := Style{Bold: true, Size: bodySize, Align: AlignCenter, Fill: totalsFill, Border: thin}
	money := Style{Size: bodySize, Align: AlignRight, Money: true, Border: thin}

	values := [3]Cell{number(s.Income, money), number(s.Expense, money), number(s.Balance, money)}
	for i := 0; i < 3; i++ {
		g.Rows[g.TotalsRow][ColIncome+i] = text(r.locale.Totals[i], label)
		g.Rows[g.TotalsRow+1][ColIncome+i] = values[i]
	}
}

func (r *Renderer) detail(g *Grid, d ledger.SummaryDetail) {
	thin := Borders{Top: TierThin, Bottom: TierThin, Left: TierThin, Right: TierThin}
	label := Style{Size: bodySize, Align: AlignCenter, Border: thin}
	money := Style{Size: bodySize, Align: AlignRight, Money: true, Border: thin}

	lines := []struct {
		label string
		value Cell
	}{
		{fmt.Sprintf(r.locale.CarryFormat, d.PrevYear), number(d.PrevCarry, money)},
		{fmt.Sprintf(r.locale.IncomeFmt, d.TargetYear), number(d.TargetYearIncome, money)},
		{fmt.Sprintf(r.locale.ExpenseFmt, d.TargetYear), number(d.TargetYearExpense, money)},
		{fmt.Sprintf(r.locale.BalanceFmt, d.TargetYear), number(d.TargetYearBalance, money)},
	}
	for i, l := range lines {
		row := g.DetailStart + i
		g.Rows[row][ColIncome] = text(l.label, label)
		g.Rows[row][ColExpense] = Cell{Style: label}
		g.Rows[row][ColBalance] = l.value
		g.Merges = append(g.Merges, Merge{Top: row, Left: ColIncome, Bottom: row, Right: ColExpense})
	}
}

// horizontalEdges returns the tier of each of the n+1 horizontal edges of
// the data region. Edge k lies between data rows k-1 and k.
func horizontalEdges(n int, segs ledger.Segments) []Tier {
	edges := make([]Tier, n+1)
	if n == 0 {
		return edges
	}
	monthEnds, dayEnds := segs.Month.Ends(), segs.Day.Ends()
	for k := 1; k < n; k++ {
		switch {
		case monthEnds[k-1]:
			edges[k] = TierMedium
		case dayEnds[k-1]:
			edges[k] = TierThin
		default:
			edges[k] = TierHair
		}
	}
	edges[0], edges[n] = TierThick, TierThick
	return edges
}

// verticalEdge returns the tier of the vertical edge left of column c.
func verticalEdge(c int) Tier {
	if c == 0 || c == NumCols {
		return TierThick
	}
	return TierHair
}
