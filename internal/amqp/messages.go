package amqp

import (
	"encoding/json"
	"time"

	"myfinance/internal/ledger"
)

// BudgetState is the post-commit state of a budget a mutation touched.
type BudgetState struct {
	ID          string `json:"id"`
	CategoryID  string `json:"categoryId"`
	AmountCents int64  `json:"amountCents"`
	SpentCents  int64  `json:"spentCents"`
}

// LedgerEventMessage announces a committed ledger mutation. It carries ids
// and budget totals only; consumers never see transaction details.
// RemovedBudgets lists budgets dropped by a category deletion.
type LedgerEventMessage struct {
	Op             string        `json:"op"`
	Kind           string        `json:"kind"`
	ID             string        `json:"id"`
	UserID         string        `json:"userId"`
	Revision       uint64        `json:"revision"`
	Budgets        []BudgetState `json:"budgets,omitempty"`
	RemovedBudgets []string      `json:"removedBudgets,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

// NewLedgerEventMessage converts a ledger event into its wire form.
func NewLedgerEventMessage(ev ledger.Event) *LedgerEventMessage {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	msg := &LedgerEventMessage{
		Op:             string(ev.Op),
		Kind:           string(ev.Kind),
		ID:             ev.ID,
		UserID:         ev.UserID,
		Revision:       ev.Revision,
		RemovedBudgets: ev.RemovedBudgets,
		Timestamp:      ts,
	}
	for _, b := range ev.Budgets {
		msg.Budgets = append(msg.Budgets, BudgetState{
			ID:          b.ID,
			CategoryID:  b.CategoryID,
			AmountCents: b.Amount.Cents,
			SpentCents:  b.Spent.Cents,
		})
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON parses a message body.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
