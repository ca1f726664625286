package ledger

import (
	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/store"
)

// Reassigner runs the cascades of category and account deletion.
type Reassigner struct {
	st     *store.Store
	logger *log.Logger
}

func NewReassigner(st *store.Store, logger *log.Logger) *Reassigner {
	if logger == nil {
		logger = log.Discard()
	}
	return &Reassigner{st: st, logger: logger.WithComponent(log.ComponentReassign)}
}

// CategoryCascade reports what a category deletion changed.
type CategoryCascade struct {
	Reassigned     int      `json:"reassigned"`
	Uncategorized  int      `json:"uncategorized"`
	RemovedBudgets []string `json:"removedBudgets"`
}

// OnDeleteCategory removes the category, moves its transactions to the
// "Other" (expense) or "Other Income" (income) category when one exists and
// nulls the reference otherwise, then drops every budget of the category.
func (r *Reassigner) OnDeleteCategory(categoryID string) (CategoryCascade, error) {
	var res CategoryCascade
	if !r.st.Categories.Remove(categoryID) {
		return res, &core.NotFoundError{Kind: core.KindCategory, ID: categoryID}
	}

	fallback := map[core.EntryType]*string{}
	for _, t := range []core.EntryType{core.Income, core.Expense} {
		name := core.FallbackCategoryName(t)
		if c, ok := r.st.Categories.Find(func(c core.Category) bool {
			return c.Type == t && c.Name == name
		}); ok {
			id := c.ID
			fallback[t] = &id
		}
	}

	for _, tx := range r.st.Transactions.Filter(func(tx core.Transaction) bool {
		return tx.HasCategory(categoryID)
	}) {
		target := fallback[tx.Type]
		if target != nil {
			id := *target
			tx.CategoryID = &id
			res.Reassigned++
		} else {
			tx.CategoryID = nil
			res.Uncategorized++
		}
		r.st.Transactions.Upsert(tx)
	}

	for _, b := range r.st.Budgets.RemoveWhere(func(b core.Budget) bool {
		return b.CategoryID == categoryID
	}) {
		res.RemovedBudgets = append(res.RemovedBudgets, b.ID)
	}

	r.logger.Debug("Category deleted",
		log.FieldCategoryID, categoryID,
		"reassigned", res.Reassigned,
		"uncategorized", res.Uncategorized,
		"removed_budgets", len(res.RemovedBudgets))
	return res, nil
}

// OnDeleteAccount removes the account and every transaction referencing it.
// Budget effects of the removed transactions are reversed only when budgets
// is non-nil.
func (r *Reassigner) OnDeleteAccount(accountID string, budgets *BudgetAccumulator) ([]core.Transaction, error) {
	if !r.st.Accounts.Remove(accountID) {
		return nil, &core.NotFoundError{Kind: core.KindAccount, ID: accountID}
	}
	removed := r.st.Transactions.RemoveWhere(func(tx core.Transaction) bool {
		return tx.AccountID == accountID
	})
	if budgets != nil {
		for _, tx := range removed {
			budgets.OnExpenseDelete(tx)
		}
	}

	r.logger.Debug("Account deleted",
		log.FieldAccountID, accountID,
		"removed_transactions", len(removed),
		"budgets_reversed", budgets != nil)
	return removed, nil
}
