// Package filter implements the read and export view over a transaction
// list: search, type filter, sort, and CSV/XLSX import and export.
package filter

import (
	"sort"
	"strings"

	"myrupee/internal/core"
)

const (
	TypeAll    = "all"
	SortNone   = "none"
	SortDate   = "date"
	SortAmount = "amount"
)

// Query is the set of view parameters accepted by FilterAndSort.
type Query struct {
	Search string `json:"search"`
	Type   string `json:"type"`
	Sort   string `json:"sort"`
}

// ParseQuery normalises raw request values. Unknown type and sort values
// fall back to "all" and "none".
func ParseQuery(search, typeFilter, sortKey string) Query {
	q := Query{Search: search, Type: TypeAll, Sort: SortNone}
	switch t := strings.ToLower(strings.TrimSpace(typeFilter)); t {
	case string(core.Income), string(core.Expense):
		q.Type = t
	}
	switch s := strings.ToLower(strings.TrimSpace(sortKey)); s {
	case SortDate, SortAmount:
		q.Sort = s
	}
	return q
}

// FilterAndSort returns a new slice holding the transactions whose name
// contains search (case-insensitive) and whose type matches typeFilter,
// sorted by sortKey. Both sorts are descending and stable. The input is
// never modified.
func FilterAndSort(list []core.Transaction, search, typeFilter, sortKey string) []core.Transaction {
	q := ParseQuery(search, typeFilter, sortKey)
	needle := strings.ToLower(q.Search)

	out := make([]core.Transaction, 0, len(list))
	for _, tx := range list {
		if !strings.Contains(strings.ToLower(tx.Name), needle) {
			continue
		}
		if q.Type != TypeAll && string(tx.Type) != q.Type {
			continue
		}
		out = append(out, tx)
	}

	switch q.Sort {
	case SortDate:
		// ISO dates order lexically.
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	case SortAmount:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	}
	return out
}
