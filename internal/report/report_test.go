package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myfinance/internal/core"
	"myfinance/internal/store"
)

func ptr(s string) *string { return &s }

func tx(id string, typ core.EntryType, cents int64, date core.Date, cat string) core.Transaction {
	t := core.Transaction{ID: id, AccountID: "a", Type: typ, Amount: core.Cents(cents), Description: id, Date: date}
	if cat != "" {
		t.CategoryID = ptr(cat)
	}
	return t
}

func TestMonthRange(t *testing.T) {
	cases := []struct {
		ref        core.Date
		start, end core.Date
	}{
		{core.NewDate(2025, 1, 15), core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31)},
		{core.NewDate(2024, 2, 29), core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 29)},
		{core.NewDate(2025, 2, 1), core.NewDate(2025, 2, 1), core.NewDate(2025, 2, 28)},
		{core.NewDate(2025, 12, 31), core.NewDate(2025, 12, 1), core.NewDate(2025, 12, 31)},
	}
	for _, tc := range cases {
		r := MonthRange(tc.ref)
		assert.True(t, r.Start.Equal(tc.start.Time), "start for %s", tc.ref)
		assert.True(t, r.End.Equal(tc.end.Time), "end for %s", tc.ref)
		assert.True(t, r.Contains(tc.end), "end is inclusive")
		assert.False(t, r.Contains(core.DateOf(tc.end.AddDate(0, 0, 1))))
	}
}

func TestAggregate(t *testing.T) {
	txns := []core.Transaction{
		tx("1", core.Income, 1000, core.NewDate(2025, 3, 1), "s"),
		tx("2", core.Expense, 300, core.NewDate(2025, 3, 2), "g"),
		tx("3", core.Expense, 200, core.NewDate(2025, 4, 1), "g"),
	}
	march := Within(MonthRange(core.NewDate(2025, 3, 10)))
	assert.Equal(t, int64(1000), Aggregate(txns, All(IsIncome, march)).Cents)
	assert.Equal(t, int64(300), Aggregate(txns, All(IsExpense, march)).Cents)
	assert.Equal(t, int64(500), Aggregate(txns, ForCategory("g")).Cents)
	assert.Equal(t, int64(1500), Aggregate(txns, All()).Cents)
}

func TestTrailingMonthsAlwaysHasNPoints(t *testing.T) {
	ref := core.NewDate(2025, 2, 14)
	points := TrailingMonths(nil, 6, ref)
	require.Len(t, points, 6)
	labels := make([]string, 0, 6)
	for _, p := range points {
		labels = append(labels, p.Label)
		assert.True(t, p.Income.IsZero())
		assert.True(t, p.Expense.IsZero())
	}
	assert.Equal(t, []string{"Sep", "Oct", "Nov", "Dec", "Jan", "Feb"}, labels)
	assert.Equal(t, 2024, points[0].Year)
	assert.Equal(t, 2025, points[5].Year)

	txns := []core.Transaction{
		tx("1", core.Income, 1000, core.NewDate(2025, 2, 1), ""),
		tx("2", core.Expense, 250, core.NewDate(2024, 12, 31), ""),
		tx("3", core.Expense, 999, core.NewDate(2024, 8, 31), ""), // before the window
		tx("4", core.Expense, 999, core.NewDate(2025, 3, 1), ""),  // after the window
	}
	points = TrailingMonths(txns, 6, ref)
	require.Len(t, points, 6)
	assert.Equal(t, int64(1000), points[5].Income.Cents)
	assert.Equal(t, int64(250), points[3].Expense.Cents)
	var total int64
	for _, p := range points {
		total += p.Expense.Cents
	}
	assert.Equal(t, int64(250), total)
}

func TestCategoryBreakdown(t *testing.T) {
	cats := map[string]core.Category{
		"g": {ID: "g", Name: "Groceries", Type: core.Expense},
		"d": {ID: "d", Name: "Dining", Type: core.Expense},
	}
	lookup := func(id string) (core.Category, bool) { c, ok := cats[id]; return c, ok }
	ref := core.NewDate(2025, 3, 20)
	txns := []core.Transaction{
		tx("1", core.Expense, 100, core.NewDate(2025, 3, 1), "d"),
		tx("2", core.Expense, 200, core.NewDate(2025, 3, 2), "g"),
		tx("3", core.Expense, 300, core.NewDate(2025, 3, 3), "d"),
		tx("4", core.Expense, 400, core.NewDate(2025, 3, 4), "deleted"),
		tx("5", core.Expense, 500, core.NewDate(2025, 3, 5), ""),
		tx("6", core.Income, 600, core.NewDate(2025, 3, 6), "g"),
		tx("7", core.Expense, 700, core.NewDate(2025, 2, 28), "g"),
	}
	got := CategoryBreakdown(txns, lookup, ref)
	require.Len(t, got, 2)
	assert.Equal(t, "Dining", got[0].Category.Name)
	assert.Equal(t, int64(400), got[0].Total.Cents)
	assert.Equal(t, "Groceries", got[1].Category.Name)
	assert.Equal(t, int64(200), got[1].Total.Cents)
}

func TestQueriesDoNotMutateInput(t *testing.T) {
	txns := []core.Transaction{
		tx("old", core.Expense, 100, core.NewDate(2025, 1, 1), "g"),
		tx("new", core.Expense, 100, core.NewDate(2025, 3, 1), "g"),
	}
	_ = Recent(txns, 1)
	assert.Equal(t, "old", txns[0].ID)
}

func TestRecent(t *testing.T) {
	var txns []core.Transaction
	for i := 1; i <= 7; i++ {
		txns = append(txns, tx(string(rune('a'+i-1)), core.Expense, 1, core.NewDate(2025, 1, i), ""))
	}
	got := Recent(txns, 5)
	require.Len(t, got, 5)
	assert.Equal(t, "g", got[0].ID)
	assert.Equal(t, "c", got[4].ID)
	assert.Len(t, Recent(txns[:2], 5), 2)
}

func TestProgress(t *testing.T) {
	lookup := func(id string) (core.Category, bool) {
		return core.Category{ID: "g", Name: "Groceries"}, id == "g"
	}
	cases := []struct {
		spent, amount int64
		pct           float64
		status        core.BudgetStatus
	}{
		{0, 1000, 0, core.BudgetOK},
		{699, 1000, 69.9, core.BudgetOK},
		{700, 1000, 70, core.BudgetWarning},
		{900, 1000, 90, core.BudgetDanger},
		{1500, 1000, 100, core.BudgetDanger},
	}
	for _, tc := range cases {
		p := Progress(core.Budget{CategoryID: "g", Spent: core.Cents(tc.spent), Amount: core.Cents(tc.amount)}, lookup)
		assert.Equal(t, tc.pct, p.Percent)
		assert.Equal(t, tc.status, p.Status)
		assert.Equal(t, "Groceries", p.Category)
		assert.Equal(t, tc.status, StatusFor(core.Cents(tc.spent), core.Cents(tc.amount)))
	}
	p := Progress(core.Budget{CategoryID: "gone", Amount: core.Cents(1)}, lookup)
	assert.Equal(t, "Uncategorized", p.Category)
}

func TestGoalProgress(t *testing.T) {
	today := core.NewDate(2025, 3, 1)
	g := core.Goal{TargetAmount: core.Cents(1000), SavedAmount: core.Cents(250), Deadline: core.NewDate(2025, 3, 11)}
	p := GoalProgressOf(g, today)
	assert.Equal(t, 25.0, p.Percent)
	assert.Equal(t, int64(750), p.Remaining.Cents)
	assert.Equal(t, 10, p.DaysLeft)
	assert.False(t, p.Expired)

	g.Deadline = core.NewDate(2025, 2, 28)
	p = GoalProgressOf(g, today)
	assert.True(t, p.Expired)
	assert.Equal(t, 0, p.DaysLeft)
}

func TestFilter(t *testing.T) {
	today := core.NewDate(2025, 5, 20)
	txns := []core.Transaction{
		tx("y", core.Expense, 1, core.NewDate(2025, 1, 3), "g"),
		tx("q", core.Income, 1, core.NewDate(2025, 2, 1), "s"),
		tx("m", core.Expense, 1, core.NewDate(2025, 5, 1), "g"),
		tx("old", core.Expense, 1, core.NewDate(2024, 12, 31), "g"),
	}
	txns[1].AccountID = "b"

	ids := func(f Filter) []string {
		got, err := f.Apply(txns, today)
		require.NoError(t, err)
		out := []string{}
		for _, t := range got {
			out = append(out, t.ID)
		}
		return out
	}
	assert.Equal(t, []string{"y", "q", "m", "old"}, ids(Filter{}))
	assert.Equal(t, []string{"m"}, ids(Filter{Period: PeriodMonth}))
	assert.Equal(t, []string{"q", "m"}, ids(Filter{Period: PeriodQuarter}))
	assert.Equal(t, []string{"y", "q", "m"}, ids(Filter{Period: PeriodYear}))
	assert.Equal(t, []string{"q"}, ids(Filter{AccountID: "b", Period: PeriodAll}))
	assert.Equal(t, []string{"y", "m", "old"}, ids(Filter{CategoryID: "g"}))
	assert.Equal(t, []string{"q"}, ids(Filter{Type: "income"}))

	_, err := Filter{Period: "decade"}.Apply(txns, today)
	assert.ErrorIs(t, err, core.ErrValidation)
	_, err = Filter{Type: "transfer"}.Apply(txns, today)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestBuildDashboard(t *testing.T) {
	st := store.New(core.User{ID: "u", Currency: "EUR"})
	st.Accounts.Upsert(core.Account{ID: "a", Balance: core.Cents(100000)})
	st.Accounts.Upsert(core.Account{ID: "b", Balance: core.Cents(-25000)})
	st.Categories.Upsert(core.Category{ID: "g", Name: "Groceries", Type: core.Expense})
	st.Transactions.Upsert(tx("1", core.Expense, 4000, core.NewDate(2025, 3, 2), "g"))
	st.Transactions.Upsert(tx("2", core.Income, 9000, core.NewDate(2025, 3, 3), ""))
	st.Budgets.Upsert(core.Budget{ID: "b1", CategoryID: "g", StartDate: core.NewDate(2025, 3, 1), Amount: core.Cents(5000), Spent: core.Cents(4000)})
	st.Goals.Upsert(core.Goal{ID: "g1", TargetAmount: core.Cents(100), Deadline: core.NewDate(2025, 4, 1), CreatedAt: time.Now()})

	d := Build(st, core.NewDate(2025, 3, 15))
	assert.Equal(t, "€", d.Symbol)
	assert.Equal(t, int64(75000), d.Summary.TotalBalance.Cents)
	assert.Equal(t, int64(9000), d.Summary.MonthIncome.Cents)
	assert.Equal(t, int64(4000), d.Summary.MonthExpense.Cents)
	assert.Len(t, d.Trailing, TrailingMonthCount)
	require.Len(t, d.Breakdown, 1)
	require.Len(t, d.Budgets, 1)
	assert.Equal(t, core.BudgetWarning, d.Budgets[0].Status)
	assert.Len(t, d.Goals, 1)
	assert.Len(t, d.Recent, 2)
	assert.NotEmpty(t, d.Formatted["totalBalance"])
}
