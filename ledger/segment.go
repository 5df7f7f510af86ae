/*
segment.go - Month and day run detection

PURPOSE:
  Splits an ordered row set into maximal runs of rows sharing the same
  month (YYYY-MM) or day (YYYY-MM-DD). The spreadsheet layout merges the
  date cells of multi-row runs and draws emphasis borders at every run
  boundary, including single-row runs.

INVARIANTS:
  - Runs tile [0, len(rows)) exactly: no gaps, no overlap, in order
  - Maximality: neighbouring runs never share a key
  - A row without a resolvable date is always a run of its own, even next
    to another undated row (unknown never equals unknown)

EXAMPLE:
  dates: 03-01, 03-01, 03-02, "", "", 04-01
  Month: [0-2 2024-03] [3-3 ""] [4-4 ""] [5-5 2024-04]
  Day:   [0-1 2024-03-01] [2-2 2024-03-02] [3-3 ""] [4-4 ""] [5-5 2024-04-01]
*/
package ledger

// Segment is an inclusive run [Start, End] of row indexes sharing Key.
// Key is "" for a row whose date did not resolve.
type Segment struct {
	Start int
	End   int
	Key   string
}

// Len returns the number of rows in the run.
func (s Segment) Len() int { return s.End - s.Start + 1 }

// Runs is an ordered list of segments covering a row set.
type Runs []Segment

// Merges returns the runs spanning more than one row.
func (r Runs) Merges() Runs {
	var out Runs
	for _, s := range r {
		if s.Len() > 1 {
			out = append(out, s)
		}
	}
	return out
}

// Ends returns the set of row indexes that close a run.
func (r Runs) Ends() map[int]bool {
	out := make(map[int]bool, len(r))
	for _, s := range r {
		out[s.End] = true
	}
	return out
}

// Segments holds the month and day runs of one row set.
type Segments struct {
	Month Runs
	Day   Runs
}

// SegmentRows computes month and day runs in a single pass over rows.
func SegmentRows(rows []Transaction) Segments {
	var segs Segments
	for i, r := range rows {
		d := NormalizeDate(r.Date)
		segs.Month = extend(segs.Month, i, d.MonthKey())
		segs.Day = extend(segs.Day, i, string(d))
	}
	return segs
}

// extend grows the last run when row i continues it, otherwise opens a new one.
func extend(runs Runs, i int, key string) Runs {
	if n := len(runs); n > 0 && key != "" && runs[n-1].Key == key && runs[n-1].End == i-1 {
		runs[n-1].End = i
		return runs
	}
	return append(runs, Segment{Start: i, End: i, Key: key})
}
