package core

// MonthPoint is one month of a trailing income/expense series.
type MonthPoint struct {
	Label   string `json:"label"` // short month name, e.g. "Jan"
	Year    int    `json:"year"`
	Month   int    `json:"month"` // 1-12
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
}

// CategoryTotal is the expense total for one category in a period.
type CategoryTotal struct {
	Category Category `json:"category"`
	Total    Money    `json:"total"`
}

// Summary is the dashboard headline: balance across accounts and the
// current month's income and expense.
type Summary struct {
	TotalBalance Money `json:"totalBalance"`
	MonthIncome  Money `json:"monthIncome"`
	MonthExpense Money `json:"monthExpense"`
}

// BudgetStatus buckets spend against the budget amount.
type BudgetStatus string

const (
	BudgetOK      BudgetStatus = "ok"
	BudgetWarning BudgetStatus = "warning"
	BudgetDanger  BudgetStatus = "danger"
)

type BudgetProgress struct {
	Budget    Budget       `json:"budget"`
	Category  string       `json:"category"`
	Percent   float64      `json:"percent"` // capped at 100
	Remaining Money        `json:"remaining"`
	Status    BudgetStatus `json:"status"`
}

type GoalProgress struct {
	Goal      Goal    `json:"goal"`
	Percent   float64 `json:"percent"` // capped at 100
	Remaining Money   `json:"remaining"`
	DaysLeft  int     `json:"daysLeft"`
	Expired   bool    `json:"expired"`
}
