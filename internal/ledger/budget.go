package ledger

import (
	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/store"
)

// BudgetAccumulator keeps Budget.Spent in line with expense transactions.
//
// Live updates (create, edit, delete of a transaction) match the budget whose
// window contains today, regardless of the transaction's own date. Budget
// creation and update instead scan transactions by their own date.
type BudgetAccumulator struct {
	st      *store.Store
	today   core.Date
	logger  *log.Logger
	touched []string
}

func NewBudgetAccumulator(st *store.Store, today core.Date, logger *log.Logger) *BudgetAccumulator {
	if logger == nil {
		logger = log.Discard()
	}
	return &BudgetAccumulator{st: st, today: today, logger: logger.WithComponent(log.ComponentBudget)}
}

// Active returns the budget for categoryID whose window contains today.
func (a *BudgetAccumulator) Active(categoryID *string) (core.Budget, bool) {
	if categoryID == nil {
		return core.Budget{}, false
	}
	return a.st.Budgets.Find(func(b core.Budget) bool {
		return b.CategoryID == *categoryID && b.Contains(a.today)
	})
}

func (a *BudgetAccumulator) OnExpenseCreate(categoryID *string, amount core.Money) {
	a.adjust(categoryID, amount)
}

// OnExpenseEdit reverses old against its category's active budget when old
// was an expense, then adds newAmount against categoryID's active budget.
// When the category changed both budgets are touched.
func (a *BudgetAccumulator) OnExpenseEdit(categoryID *string, newAmount core.Money, old core.Transaction) {
	if old.Type == core.Expense {
		a.adjust(old.CategoryID, old.Amount.Neg())
	}
	a.adjust(categoryID, newAmount)
}

func (a *BudgetAccumulator) OnExpenseDelete(tx core.Transaction) {
	if tx.Type != core.Expense {
		return
	}
	a.adjust(tx.CategoryID, tx.Amount.Neg())
}

// adjust applies delta to the active budget and clamps Spent at zero.
func (a *BudgetAccumulator) adjust(categoryID *string, delta core.Money) {
	b, ok := a.Active(categoryID)
	if !ok {
		return
	}
	b.Spent = b.Spent.Add(delta).ClampZero()
	a.st.Budgets.Upsert(b)
	a.touched = append(a.touched, b.ID)

	a.logger.Debug("Budget spent adjusted",
		log.FieldBudgetID, b.ID,
		log.FieldAmountCents, delta.Cents,
		log.FieldSpentCents, b.Spent.Cents)
}

// Touched returns the ids of budgets adjusted so far, without duplicates.
func (a *BudgetAccumulator) Touched() []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range a.touched {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// RecomputeSpent sums the expense transactions of b's category dated inside
// b's window.
func (a *BudgetAccumulator) RecomputeSpent(b core.Budget) core.Money {
	var total core.Money
	for _, tx := range a.st.Transactions.List() {
		if tx.Type == core.Expense && tx.HasCategory(b.CategoryID) && b.Contains(tx.Date) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// CreateBudget validates b, rejects it when either of its boundaries falls
// inside the window of another budget of the same category, and initializes
// Spent from the transaction log.
func (a *BudgetAccumulator) CreateBudget(b core.Budget) (core.Budget, error) {
	if err := a.validate(b); err != nil {
		return core.Budget{}, err
	}
	if _, clash := a.st.Budgets.Find(func(o core.Budget) bool {
		return o.CategoryID == b.CategoryID && b.Clashes(o)
	}); clash {
		return core.Budget{}, core.ErrDuplicateWindow
	}
	if b.ID == "" {
		b.ID = core.NewID()
	}
	b.Spent = a.RecomputeSpent(b)
	a.st.Budgets.Upsert(b)
	a.touched = append(a.touched, b.ID)
	return b, nil
}

// UpdateBudget replaces an existing budget and recomputes Spent. Windows are
// not rechecked for overlap.
func (a *BudgetAccumulator) UpdateBudget(b core.Budget) (core.Budget, error) {
	old, err := a.st.Budgets.Get(b.ID)
	if err != nil {
		return core.Budget{}, err
	}
	if err := a.validate(b); err != nil {
		return core.Budget{}, err
	}
	b.UserID = old.UserID
	b.Spent = a.RecomputeSpent(b)
	a.st.Budgets.Upsert(b)
	a.touched = append(a.touched, b.ID)
	return b, nil
}

func (a *BudgetAccumulator) DeleteBudget(id string) error {
	if !a.st.Budgets.Remove(id) {
		return &core.NotFoundError{Kind: core.KindBudget, ID: id}
	}
	return nil
}

func (a *BudgetAccumulator) validate(b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	cat, err := a.st.Categories.Get(b.CategoryID)
	if err != nil {
		return core.Invalid("categoryId", core.ErrMissingReference)
	}
	if cat.Type != core.Expense {
		return core.Invalid("categoryId", core.ErrTypeMismatch)
	}
	return nil
}
