package workbook

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of an encoded workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// excelize border style codes.
var tierStyle = map[Tier]int{
	TierHair:   7,
	TierThin:   1,
	TierMedium: 2,
	TierThick:  5,
}

var alignName = map[Align]string{
	AlignLeft:   "left",
	AlignCenter: "center",
	AlignRight:  "right",
}

// Encoder writes Grids as .xlsx documents.
//
// Cell values are mandatory: failing to write one aborts the export.
// Decoration (styles, merges, frozen panes, document properties) is
// optional: a failure is logged and that decoration is skipped.
type Encoder struct {
	log logrus.FieldLogger
	Now func() time.Time
}

// NewEncoder creates an encoder that logs skipped decorations to log.
func NewEncoder(log logrus.FieldLogger) *Encoder {
	return &Encoder{log: log, Now: time.Now}
}

// Encode writes g to w.
func (e *Encoder) Encode(w io.Writer, g *Grid) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if g.SheetName != "" {
		if err := f.SetSheetName(sheet, g.SheetName); err != nil {
			e.log.WithError(err).WithField("sheet", g.SheetName).Warn("keeping default sheet name")
		} else {
			sheet = g.SheetName
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Creator: "fund-ledger",
		Created: e.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		e.log.WithError(err).Warn("skipping document properties")
	}

	for c, width := range g.Widths {
		col, _ := excelize.ColumnNumberToName(c + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			e.log.WithError(err).WithField("column", col).Warn("skipping column width")
		}
	}

	styles := newStyleCache(f, g, e.log)
	for r, row := range g.Rows {
		for c, cell := range row {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("failed to address cell (%d,%d): %w", r, c, err)
			}
			if err := setValue(f, sheet, axis, cell); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", axis, err)
			}
			if id, ok := styles.get(cell.Style); ok {
				if err := f.SetCellStyle(sheet, axis, axis, id); err != nil {
					e.log.WithError(err).WithField("cell", axis).Warn("skipping cell style")
				}
			}
		}
	}

	for _, m := range g.Merges {
		e.merge(f, sheet, m)
	}

	if g.FrozenRows > 0 {
		topLeft, _ := excelize.CoordinatesToCellName(1, g.FrozenRows+1)
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      g.FrozenRows,
			TopLeftCell: topLeft,
			ActivePane:  "bottomLeft",
		}); err != nil {
			e.log.WithError(err).Warn("skipping frozen panes")
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (e *Encoder) merge(f *excelize.File, sheet string, m Merge) {
	log := e.log.WithFields(logrus.Fields{"top": m.Top, "left": m.Left, "bottom": m.Bottom, "right": m.Right})
	if m.Bottom < m.Top || m.Right < m.Left || (m.Bottom == m.Top && m.Right == m.Left) {
		log.Warn("skipping degenerate merge")
		return
	}
	from, err := excelize.CoordinatesToCellName(m.Left+1, m.Top+1)
	if err != nil {
		log.WithError(err).Warn("skipping merge")
		return
	}
	to, err := excelize.CoordinatesToCellName(m.Right+1, m.Bottom+1)
	if err != nil {
		log.WithError(err).Warn("skipping merge")
		return
	}
	if err := f.MergeCell(sheet, from, to); err != nil {
		log.WithError(err).Warn("skipping merge")
	}
}

func setValue(f *excelize.File, sheet, axis string, c Cell) error {
	switch c.Kind {
	case KindText:
		return f.SetCellStr(sheet, axis, c.Text)
	case KindNumber:
		return f.SetCellFloat(sheet, axis, c.Number.InexactFloat64(), -1, 64)
	default:
		return nil
	}
}

// =============================================================================
// STYLE CACHE
// =============================================================================

type styleCache struct {
	f     *excelize.File
	font  string
	money string
	log   logrus.FieldLogger
	ids   map[Style]int
	bad   map[Style]bool
}

func newStyleCache(f *excelize.File, g *Grid, log logrus.FieldLogger) *styleCache {
	return &styleCache{
		f:     f,
		font:  g.Font,
		money: g.MoneyFmt,
		log:   log,
		ids:   make(map[Style]int),
		bad:   make(map[Style]bool),
	}
}

func (s *styleCache) get(st Style) (int, bool) {
	if id, ok := s.ids[st]; ok {
		return id, true
	}
	if s.bad[st] {
		return 0, false
	}
	id, err := s.f.NewStyle(s.native(st))
	if err != nil {
		s.log.WithError(err).Warn("skipping style")
		s.bad[st] = true
		return 0, false
	}
	s.ids[st] = id
	return id, true
}

func (s *styleCache) native(st Style) *excelize.Style {
	size := st.Size
	if size == 0 {
		size = bodySize
	}
	out := &excelize.Style{
		Font: &excelize.Font{Family: s.font, Size: size, Bold: st.Bold},
		Alignment: &excelize.Alignment{
			Horizontal: alignName[st.Align],
			Vertical:   "center",
			WrapText:   st.Wrap,
		},
	}
	if st.Fill != "" {
		out.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{st.Fill}}
	}
	if st.Money && s.money != "" {
		money := s.money
		out.CustomNumFmt = &money
	}
	for _, edge := range []struct {
		name string
		tier Tier
	}{
		{"top", st.Border.Top},
		{"bottom", st.Border.Bottom},
		{"left", st.Border.Left},
		{"right", st.Border.Right},
	} {
		if code, ok := tierStyle[edge.tier]; ok {
			out.Border = append(out.Border, excelize.Border{Type: edge.name, Color: "000000", Style: code})
		}
	}
	return out
}
