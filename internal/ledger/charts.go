package ledger

import (
	"sort"
	"time"
	"unicode"
	"unicode/utf8"

	"myrupee/internal/core"
)

// MonthBalance is one point of the monthly balance trend.
type MonthBalance struct {
	Month   string  `json:"month"` // e.g. "Jan 2024"
	Balance float64 `json:"balance"`
}

// TagAmount is one slice of the spending-by-category breakdown.
type TagAmount struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// MonthlyBalances groups list by calendar month and returns income minus
// expenses per month in chronological order. Transactions with an
// unparseable date are left out.
func MonthlyBalances(list []core.Transaction) []MonthBalance {
	type bucket struct {
		start            time.Time
		income, expenses float64
	}
	buckets := map[time.Time]*bucket{}
	for _, tx := range list {
		d, err := core.ParseDate(tx.Date)
		if err != nil {
			continue
		}
		key := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{start: key}
			buckets[key] = b
		}
		if tx.Type == core.Income {
			b.income += tx.Amount
		} else {
			b.expenses += tx.Amount
		}
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].start.Before(ordered[j].start) })

	out := make([]MonthBalance, 0, len(ordered))
	for _, b := range ordered {
		out = append(out, MonthBalance{
			Month:   b.start.Format("Jan 2006"),
			Balance: b.income - b.expenses,
		})
	}
	return out
}

// SpendingByTag sums expenses per tag, in order of first appearance, with
// the tag capitalised for display.
func SpendingByTag(list []core.Transaction) []TagAmount {
	index := map[string]int{}
	var out []TagAmount
	for _, tx := range list {
		if tx.Type != core.Expense {
			continue
		}
		i, ok := index[tx.Tag]
		if !ok {
			i = len(out)
			index[tx.Tag] = i
			out = append(out, TagAmount{Category: capitalize(tx.Tag)})
		}
		out[i].Value += tx.Amount
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
