package ledger

import "sort"

// SortRows orders rows by canonical date, breaking ties by ID. IDs are
// time-ordered (UUIDv7), so ties keep insertion order. Rows without a
// resolvable date sort before every dated row in ascending order.
// Descending order is the exact reverse of ascending.
func SortRows(rows []Transaction, order Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if order == OrderDesc {
			a, b = b, a
		}
		ka, kb := sortKey(a.Date), sortKey(b.Date)
		if ka != kb {
			return ka < kb
		}
		return a.ID < b.ID
	})
}

func sortKey(d CanonicalDate) string {
	if !d.Valid() {
		return ""
	}
	return string(d)
}
