// Package report derives dashboard and reporting figures from a snapshot of
// the ledger. Nothing here mutates its inputs.
package report

import (
	"time"

	"myfinance/internal/core"
)

// Range is an inclusive span of calendar days.
type Range struct {
	Start core.Date `json:"start"`
	End   core.Date `json:"end"`
}

func (r Range) Contains(d core.Date) bool {
	return d.OnOrAfter(r.Start) && d.OnOrBefore(r.End)
}

// MonthRange returns the first and last day of the month containing ref.
func MonthRange(ref core.Date) Range {
	start := core.NewDate(ref.Year(), ref.Month(), 1)
	end := core.DateOf(start.AddDate(0, 1, -1))
	return Range{Start: start, End: end}
}

// Predicate selects transactions.
type Predicate func(core.Transaction) bool

func IsIncome(tx core.Transaction) bool  { return tx.Type == core.Income }
func IsExpense(tx core.Transaction) bool { return tx.Type == core.Expense }

func Within(r Range) Predicate {
	return func(tx core.Transaction) bool { return r.Contains(tx.Date) }
}

func OnOrAfter(d core.Date) Predicate {
	return func(tx core.Transaction) bool { return tx.Date.OnOrAfter(d) }
}

func ForAccount(id string) Predicate {
	return func(tx core.Transaction) bool { return tx.AccountID == id }
}

func ForCategory(id string) Predicate {
	return func(tx core.Transaction) bool { return tx.HasCategory(id) }
}

func OfType(t core.EntryType) Predicate {
	return func(tx core.Transaction) bool { return tx.Type == t }
}

// All combines predicates with logical AND. No predicates matches everything.
func All(preds ...Predicate) Predicate {
	return func(tx core.Transaction) bool {
		for _, p := range preds {
			if !p(tx) {
				return false
			}
		}
		return true
	}
}

// Aggregate sums the amounts of the transactions matching pred.
func Aggregate(txns []core.Transaction, pred Predicate) core.Money {
	var total core.Money
	for _, tx := range txns {
		if pred(tx) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// TrailingMonths returns exactly n points, oldest first, ending with the month
// of ref. Months without transactions are reported as zero.
func TrailingMonths(txns []core.Transaction, n int, ref core.Date) []core.MonthPoint {
	if n <= 0 {
		return []core.MonthPoint{}
	}
	first := core.NewDate(ref.Year(), ref.Month(), 1)
	out := make([]core.MonthPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		month := core.DateOf(first.AddDate(0, -i, 0))
		r := MonthRange(month)
		out = append(out, core.MonthPoint{
			Label:   time.Month(month.Month()).String()[:3],
			Year:    month.Year(),
			Month:   month.Month(),
			Income:  Aggregate(txns, All(IsIncome, Within(r))),
			Expense: Aggregate(txns, All(IsExpense, Within(r))),
		})
	}
	return out
}

// CategoryBreakdown groups the expenses of ref's month by category in order of
// first appearance. Uncategorized transactions and categories that no longer
// resolve are left out.
func CategoryBreakdown(txns []core.Transaction, lookup func(id string) (core.Category, bool), ref core.Date) []core.CategoryTotal {
	r := MonthRange(ref)
	index := map[string]int{}
	out := []core.CategoryTotal{}
	for _, tx := range txns {
		if !IsExpense(tx) || !r.Contains(tx.Date) || tx.CategoryID == nil {
			continue
		}
		if i, ok := index[*tx.CategoryID]; ok {
			out[i].Total = out[i].Total.Add(tx.Amount)
			continue
		}
		cat, ok := lookup(*tx.CategoryID)
		if !ok {
			continue
		}
		index[cat.ID] = len(out)
		out = append(out, core.CategoryTotal{Category: cat, Total: tx.Amount})
	}
	return out
}
