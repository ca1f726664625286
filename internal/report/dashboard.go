package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"myfinance/internal/core"
	"myfinance/internal/store"
)

const (
	warningPercent = 70
	dangerPercent  = 90
)

// Summarize totals the balance across accounts and ref's month income and
// expense.
func Summarize(accounts []core.Account, txns []core.Transaction, ref core.Date) core.Summary {
	var s core.Summary
	for _, a := range accounts {
		s.TotalBalance = s.TotalBalance.Add(a.Balance)
	}
	month := Within(MonthRange(ref))
	s.MonthIncome = Aggregate(txns, All(IsIncome, month))
	s.MonthExpense = Aggregate(txns, All(IsExpense, month))
	return s
}

func percent(part, whole core.Money) float64 {
	if whole.Cents <= 0 {
		return 0
	}
	p := float64(part.Cents) / float64(whole.Cents) * 100
	return math.Min(100, math.Round(p*100)/100)
}

// Progress computes the spend percentage and status of a budget. Category
// names that no longer resolve are reported as "Uncategorized".
func Progress(b core.Budget, lookup func(id string) (core.Category, bool)) core.BudgetProgress {
	p := core.BudgetProgress{
		Budget:    b,
		Category:  "Uncategorized",
		Percent:   percent(b.Spent, b.Amount),
		Remaining: b.Amount.Sub(b.Spent),
		Status:    core.BudgetOK,
	}
	if c, ok := lookup(b.CategoryID); ok {
		p.Category = c.Name
	}
	switch {
	case p.Percent >= dangerPercent:
		p.Status = core.BudgetDanger
	case p.Percent >= warningPercent:
		p.Status = core.BudgetWarning
	}
	return p
}

// StatusFor buckets a spent/amount pair without a category lookup.
func StatusFor(spent, amount core.Money) core.BudgetStatus {
	switch p := percent(spent, amount); {
	case p >= dangerPercent:
		return core.BudgetDanger
	case p >= warningPercent:
		return core.BudgetWarning
	default:
		return core.BudgetOK
	}
}

func GoalProgressOf(g core.Goal, today core.Date) core.GoalProgress {
	days := int(g.Deadline.Sub(today.Time).Hours() / 24)
	return core.GoalProgress{
		Goal:      g,
		Percent:   percent(g.SavedAmount, g.TargetAmount),
		Remaining: g.TargetAmount.Sub(g.SavedAmount).ClampZero(),
		DaysLeft:  max(days, 0),
		Expired:   g.Deadline.Before(today.Time),
	}
}

// Recent returns up to n transactions, newest date first. Transactions on
// the same day keep their recording order, newest first.
func Recent(txns []core.Transaction, n int) []core.Transaction {
	out := make([]core.Transaction, len(txns))
	copy(out, txns)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Period values accepted by Filter.
const (
	PeriodAll     = "all"
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"
	PeriodYear    = "year"
)

// Filter narrows the transaction list. Empty or "all" fields match
// everything.
type Filter struct {
	AccountID  string
	CategoryID string
	Type       string
	Period     string
}

// PeriodStart returns the first day a period covers, counted back from today.
// "quarter" starts on the first day of the month three months before today's.
func PeriodStart(period string, today core.Date) (core.Date, bool, error) {
	switch strings.ToLower(period) {
	case "", PeriodAll:
		return core.Date{}, false, nil
	case PeriodMonth:
		return core.NewDate(today.Year(), today.Month(), 1), true, nil
	case PeriodQuarter:
		return core.DateOf(core.NewDate(today.Year(), today.Month(), 1).AddDate(0, -3, 0)), true, nil
	case PeriodYear:
		return core.NewDate(today.Year(), 1, 1), true, nil
	default:
		return core.Date{}, false, core.Invalid("period", fmt.Errorf("unknown period %q", period))
	}
}

func set(v string) bool { return v != "" && v != PeriodAll }

// Apply returns the transactions matching f, in their original order.
func (f Filter) Apply(txns []core.Transaction, today core.Date) ([]core.Transaction, error) {
	var preds []Predicate
	if set(f.AccountID) {
		preds = append(preds, ForAccount(f.AccountID))
	}
	if set(f.CategoryID) {
		preds = append(preds, ForCategory(f.CategoryID))
	}
	if set(f.Type) {
		t := core.EntryType(f.Type)
		if !t.Valid() {
			return nil, core.Invalid("type", core.ErrInvalidType)
		}
		preds = append(preds, OfType(t))
	}
	start, bounded, err := PeriodStart(f.Period, today)
	if err != nil {
		return nil, err
	}
	if bounded {
		preds = append(preds, OnOrAfter(start))
	}

	match := All(preds...)
	out := []core.Transaction{}
	for _, tx := range txns {
		if match(tx) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Dashboard is everything the overview screen shows.
type Dashboard struct {
	Currency  string                `json:"currency"`
	Symbol    string                `json:"symbol"`
	Summary   core.Summary          `json:"summary"`
	Formatted map[string]string     `json:"formatted"`
	Trailing  []core.MonthPoint     `json:"trailing"`
	Breakdown []core.CategoryTotal  `json:"breakdown"`
	Recent    []core.Transaction    `json:"recent"`
	Budgets   []core.BudgetProgress `json:"budgets"`
	Goals     []core.GoalProgress   `json:"goals"`
}

// TrailingMonthCount is the length of the dashboard's income/expense series.
const TrailingMonthCount = 6

// RecentCount is how many transactions the dashboard lists.
const RecentCount = 5

// CategoryLookup resolves category ids against a store.
func CategoryLookup(st *store.Store) func(string) (core.Category, bool) {
	return func(id string) (core.Category, bool) {
		c, err := st.Categories.Get(id)
		return c, err == nil
	}
}

// Build assembles the dashboard from a store snapshot.
func Build(st *store.Store, today core.Date) Dashboard {
	txns := st.Transactions.List()
	lookup := CategoryLookup(st)
	summary := Summarize(st.Accounts.List(), txns, today)
	currency := st.User.Currency

	d := Dashboard{
		Currency: currency,
		Symbol:   core.CurrencySymbol(currency),
		Summary:  summary,
		Formatted: map[string]string{
			"totalBalance": summary.TotalBalance.Format(currency),
			"monthIncome":  summary.MonthIncome.Format(currency),
			"monthExpense": summary.MonthExpense.Format(currency),
		},
		Trailing:  TrailingMonths(txns, TrailingMonthCount, today),
		Breakdown: CategoryBreakdown(txns, lookup, today),
		Recent:    Recent(txns, RecentCount),
		Budgets:   []core.BudgetProgress{},
		Goals:     []core.GoalProgress{},
	}
	for _, b := range st.Budgets.List() {
		d.Budgets = append(d.Budgets, Progress(b, lookup))
	}
	for _, g := range st.Goals.List() {
		d.Goals = append(d.Goals, GoalProgressOf(g, today))
	}
	return d
}
