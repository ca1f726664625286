package ledger

import (
	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/store"
)

// BalanceMaintainer keeps every account balance equal to its opening balance
// plus the signed sum of its transactions. A transaction whose account does
// not resolve is skipped; the caller still saves the transaction.
type BalanceMaintainer struct {
	st     *store.Store
	logger *log.Logger
}

func NewBalanceMaintainer(st *store.Store, logger *log.Logger) *BalanceMaintainer {
	if logger == nil {
		logger = log.Discard()
	}
	return &BalanceMaintainer{st: st, logger: logger.WithComponent(log.ComponentBalance)}
}

// Effect is the signed amount tx contributes to its account.
func Effect(tx core.Transaction) core.Money {
	return core.Money{Cents: tx.Type.Sign() * tx.Amount.Cents}
}

func (m *BalanceMaintainer) ApplyCreate(tx core.Transaction) {
	m.shift(tx.AccountID, Effect(tx))
}

// ApplyEdit reverses old against its own account, then applies updated
// against the (possibly different) new account.
func (m *BalanceMaintainer) ApplyEdit(old, updated core.Transaction) {
	m.shift(old.AccountID, Effect(old).Neg())
	m.shift(updated.AccountID, Effect(updated))
}

func (m *BalanceMaintainer) ApplyDelete(tx core.Transaction) {
	m.shift(tx.AccountID, Effect(tx).Neg())
}

func (m *BalanceMaintainer) shift(accountID string, delta core.Money) {
	acc, err := m.st.Accounts.Get(accountID)
	if err != nil {
		m.logger.Debug("Skipping balance update for unresolved account",
			log.FieldAccountID, accountID,
			log.FieldAmountCents, delta.Cents)
		return
	}
	acc.Balance = acc.Balance.Add(delta)
	m.st.Accounts.Upsert(acc)
}

// Discrepancy is an account whose stored balance disagrees with its
// transactions.
type Discrepancy struct {
	AccountID string     `json:"accountId"`
	Name      string     `json:"name"`
	Balance   core.Money `json:"balance"`
	Expected  core.Money `json:"expected"`
}

// Verify recomputes every balance from scratch and reports mismatches.
// Transactions with unresolved accounts are ignored.
func (m *BalanceMaintainer) Verify() []Discrepancy {
	sums := map[string]core.Money{}
	for _, tx := range m.st.Transactions.List() {
		sums[tx.AccountID] = sums[tx.AccountID].Add(Effect(tx))
	}
	var out []Discrepancy
	for _, acc := range m.st.Accounts.List() {
		expected := acc.OpeningBalance.Add(sums[acc.ID])
		if expected != acc.Balance {
			out = append(out, Discrepancy{
				AccountID: acc.ID,
				Name:      acc.Name,
				Balance:   acc.Balance,
				Expected:  expected,
			})
		}
	}
	return out
}
