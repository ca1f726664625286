// Package worker reacts to committed ledger events outside the request path.
package worker

import (
	"context"
	"sync"

	"myfinance/internal/amqp"
	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/report"
)

// Alert is a budget crossing into a warning or danger band.
type Alert struct {
	UserID     string
	BudgetID   string
	CategoryID string
	Status     core.BudgetStatus
	Spent      core.Money
	Amount     core.Money
	Revision   uint64
}

// Notifier delivers alerts. The notifier binary logs them.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// LogNotifier writes alerts to the logger, danger at error level.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent(log.ComponentNotifier)}
}

func (n *LogNotifier) Notify(ctx context.Context, a Alert) error {
	args := []any{
		log.FieldUserID, a.UserID,
		log.FieldBudgetID, a.BudgetID,
		log.FieldCategoryID, a.CategoryID,
		log.FieldSpentCents, a.Spent.Cents,
		log.FieldAmountCents, a.Amount.Cents,
		log.FieldRevision, a.Revision,
		"status", string(a.Status),
	}
	if a.Status == core.BudgetDanger {
		n.logger.ErrorContext(ctx, "Budget exhausted", args...)
	} else {
		n.logger.WarnContext(ctx, "Budget nearly exhausted", args...)
	}
	return nil
}

// Stats counts what the worker has processed since start.
type Stats struct {
	Events  int64
	Skipped int64
	Alerts  int64
	Tracked int
}

// AlertWorker turns ledger events into budget alerts. A budget alerts once
// per band: staying in the same band is silent, and dropping back below
// warning re-arms it.
type AlertWorker struct {
	notifier Notifier
	logger   *log.Logger

	mu           sync.Mutex
	status       map[string]core.BudgetStatus // budget id -> last band
	lastRevision map[string]uint64            // user id -> newest revision seen
	stats        Stats
}

func NewAlertWorker(notifier Notifier, logger *log.Logger) *AlertWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &AlertWorker{
		notifier:     notifier,
		logger:       logger.WithComponent(log.ComponentNotifier),
		status:       map[string]core.BudgetStatus{},
		lastRevision: map[string]uint64{},
	}
}

// HandleLedgerEvent processes one message. Redelivered or out-of-order
// messages, whose revision is not newer than one already seen for the user,
// are acknowledged without effect.
func (w *AlertWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	w.mu.Lock()
	w.stats.Events++
	if last, ok := w.lastRevision[msg.UserID]; ok && msg.Revision <= last {
		w.stats.Skipped++
		w.mu.Unlock()
		w.logger.DebugContext(ctx, "Skipping stale ledger event",
			log.FieldUserID, msg.UserID,
			log.FieldRevision, msg.Revision,
			"last_revision", last)
		return nil
	}

	if msg.Kind == string(core.KindBudget) && msg.Op == "deleted" {
		delete(w.status, msg.ID)
	}
	for _, id := range msg.RemovedBudgets {
		delete(w.status, id)
	}

	var alerts []Alert
	for _, b := range msg.Budgets {
		spent, amount := core.Cents(b.SpentCents), core.Cents(b.AmountCents)
		st := report.StatusFor(spent, amount)
		prev := w.status[b.ID]
		w.status[b.ID] = st
		if st == core.BudgetOK || st == prev {
			continue
		}
		alerts = append(alerts, Alert{
			UserID:     msg.UserID,
			BudgetID:   b.ID,
			CategoryID: b.CategoryID,
			Status:     st,
			Spent:      spent,
			Amount:     amount,
			Revision:   msg.Revision,
		})
	}
	w.mu.Unlock()

	for _, a := range alerts {
		if err := w.notifier.Notify(ctx, a); err != nil {
			// forget the band so the redelivered message alerts again
			w.mu.Lock()
			delete(w.status, a.BudgetID)
			w.mu.Unlock()
			return err
		}
	}

	w.mu.Lock()
	w.stats.Alerts += int64(len(alerts))
	if msg.Revision > w.lastRevision[msg.UserID] {
		w.lastRevision[msg.UserID] = msg.Revision
	}
	w.mu.Unlock()
	return nil
}

func (w *AlertWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.stats
	s.Tracked = len(w.status)
	return s
}

// LogSummary writes the counters at info level.
func (w *AlertWorker) LogSummary(ctx context.Context) {
	s := w.Stats()
	w.logger.InfoContext(ctx, "Notifier summary",
		"events", s.Events,
		"skipped", s.Skipped,
		"alerts", s.Alerts,
		"tracked_budgets", s.Tracked)
}
