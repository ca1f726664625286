// Package ledger applies account, transaction, budget, category and goal
// mutations to one user's store while keeping balances and budget totals
// consistent, and persists every committed mutation before returning.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/storage"
	"myfinance/internal/store"
)

var ErrSessionClosed = errors.New("session closed")

// Session owns the in-memory store of one user between Open and Close.
// Operations are serialized; each runs validate, mutate, persist and rolls
// the store back if persisting fails.
type Session struct {
	mu     sync.Mutex
	blobs  storage.BlobStore
	key    string
	st     *store.Store
	closed bool

	logger                 *log.Logger
	events                 *log.StructuredLogger
	publisher              Publisher
	now                    func() time.Time
	reverseOnAccountDelete bool
}

type Option func(*Session)

func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Session) { s.publisher = p }
}

// WithClock overrides the source of "now" used for today-relative budget
// matching, goal deadlines and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithReverseBudgetsOnAccountDelete makes account deletion subtract the
// removed expenses from their active budgets.
func WithReverseBudgetsOnAccountDelete(on bool) Option {
	return func(s *Session) { s.reverseOnAccountDelete = on }
}

// Open loads the user's snapshot from blobs. A user with no snapshot starts
// with the default category set, which is persisted immediately.
func Open(ctx context.Context, blobs storage.BlobStore, user core.User, opts ...Option) (*Session, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		blobs:  blobs,
		key:    storage.UserKey(user.ID),
		logger: log.Discard().WithComponent(log.ComponentLedger),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = log.NewStructuredLogger(s.logger)

	data, err := blobs.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", s.key, err)
	}

	if data == nil {
		if user.CreatedAt.IsZero() {
			user.CreatedAt = s.now().UTC()
		}
		if user.Currency == "" {
			user.Currency = "USD"
		}
		s.st = store.New(user)
		for _, c := range core.DefaultCategories(user.ID) {
			s.st.Categories.Upsert(c)
		}
		if err := s.persist(ctx); err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "Initialized new ledger", log.FieldUserID, user.ID)
		return s, nil
	}

	st, err := store.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", s.key, err)
	}
	if st.User.ID == "" {
		st.User = user
	}
	s.st = st
	s.logger.InfoContext(ctx, "Loaded ledger",
		log.FieldUserID, st.User.ID,
		log.FieldRevision, st.Revision,
		"accounts", st.Accounts.Len(),
		"transactions", st.Transactions.Len())
	return s, nil
}

// Close flushes the store. The session rejects every call afterwards.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if err := s.persist(ctx); err != nil {
		return err
	}
	s.closed = true
	return nil
}

func (s *Session) today() core.Date { return core.DateOf(s.now()) }

// Today returns the session's current calendar day.
func (s *Session) Today() core.Date { return s.today() }

func (s *Session) persist(ctx context.Context) error {
	data, err := store.Encode(s.st)
	if err != nil {
		return &core.PersistenceError{Key: s.key, Err: err}
	}
	if err := s.blobs.Save(ctx, s.key, data); err != nil {
		return &core.PersistenceError{Key: s.key, Err: err}
	}
	s.logger.DebugContext(ctx, "Snapshot saved",
		log.FieldOperation, log.OpPersist,
		log.FieldRevision, s.st.Revision,
		"bytes", len(data))
	return nil
}

// mutation is the working set handed to a commit function.
type mutation struct {
	st       *store.Store
	balances *BalanceMaintainer
	budgets  *BudgetAccumulator
	reassign *Reassigner
	today    core.Date
	now      time.Time

	// removedBudgets lists budgets dropped as a side effect of the mutation.
	removedBudgets []string
}

// commit runs apply against the live store, persists, and publishes. Any
// error from apply or from persisting restores the store as it was.
func (s *Session) commit(ctx context.Context, op Op, kind core.Kind, apply func(m *mutation) (string, error)) error {
	ev, err := s.applyLocked(ctx, op, kind, apply)
	if err != nil {
		return err
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish ledger event",
				log.FieldOperation, log.OpPublish,
				log.FieldKind, string(kind),
				log.FieldEntityID, ev.ID,
				log.FieldError, err)
		}
	}
	return nil
}

func (s *Session) applyLocked(ctx context.Context, op Op, kind core.Kind, apply func(m *mutation) (string, error)) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Event{}, ErrSessionClosed
	}

	backup := s.st.Clone()
	now := s.now()
	today := core.DateOf(now)
	m := &mutation{
		st:       s.st,
		balances: NewBalanceMaintainer(s.st, s.logger),
		budgets:  NewBudgetAccumulator(s.st, today, s.logger),
		reassign: NewReassigner(s.st, s.logger),
		today:    today,
		now:      now.UTC(),
	}

	id, err := apply(m)
	if err != nil {
		*s.st = *backup
		return Event{}, err
	}
	s.st.Revision++
	if err := s.persist(ctx); err != nil {
		*s.st = *backup
		s.events.LogError(ctx, "Persist failed, mutation rolled back", err,
			log.ComponentLedger, log.OpRollback,
			log.NewFields().WithEntity(string(kind), id))
		return Event{}, err
	}
	s.events.LogMutation(ctx, string(op), string(kind), id, s.st.Revision)

	ev := Event{
		Op:             op,
		Kind:           kind,
		ID:             id,
		UserID:         s.st.User.ID,
		Revision:       s.st.Revision,
		At:             m.now,
		RemovedBudgets: m.removedBudgets,
	}
	for _, bid := range m.budgets.Touched() {
		if b, err := s.st.Budgets.Get(bid); err == nil {
			ev.Budgets = append(ev.Budgets, b)
		}
	}
	return ev, nil
}

// resolveTransaction checks the references of tx against the store. A nil
// category is accepted only when allowUncategorized is set.
func resolveTransaction(st *store.Store, tx core.Transaction, allowUncategorized bool) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if !st.Accounts.Has(tx.AccountID) {
		return core.Invalid("accountId", core.ErrMissingReference)
	}
	if tx.CategoryID == nil {
		if allowUncategorized {
			return nil
		}
		return core.Invalid("categoryId", core.ErrMissingReference)
	}
	cat, err := st.Categories.Get(*tx.CategoryID)
	if err != nil {
		return core.Invalid("categoryId", core.ErrMissingReference)
	}
	if cat.Type != tx.Type {
		return core.Invalid("categoryId", core.ErrTypeMismatch)
	}
	return nil
}

// CreateTransaction records tx and applies its balance and budget effects.
func (s *Session) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	err := s.commit(ctx, OpCreated, core.KindTransaction, func(m *mutation) (string, error) {
		if err := resolveTransaction(m.st, tx, false); err != nil {
			return "", err
		}
		tx.ID = core.NewID()
		tx.UserID = m.st.User.ID
		tx.CreatedAt = m.now
		tx.Description = strings.TrimSpace(tx.Description)

		m.st.Transactions.Upsert(tx)
		m.balances.ApplyCreate(tx)
		if tx.Type == core.Expense {
			m.budgets.OnExpenseCreate(tx.CategoryID, tx.Amount)
		}
		return tx.ID, nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// UpdateTransaction replaces the transaction with the same id, reversing the
// old effects and applying the new ones. The account of the old version may
// have been deleted, in which case only the new effect is applied.
func (s *Session) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	err := s.commit(ctx, OpUpdated, core.KindTransaction, func(m *mutation) (string, error) {
		old, err := m.st.Transactions.Get(tx.ID)
		if err != nil {
			return "", err
		}
		if err := resolveTransaction(m.st, tx, true); err != nil {
			return "", err
		}
		tx.UserID = old.UserID
		tx.CreatedAt = old.CreatedAt
		tx.Description = strings.TrimSpace(tx.Description)

		m.st.Transactions.Upsert(tx)
		m.balances.ApplyEdit(old, tx)
		if tx.Type == core.Expense {
			m.budgets.OnExpenseEdit(tx.CategoryID, tx.Amount, old)
		} else {
			m.budgets.OnExpenseDelete(old)
		}
		return tx.ID, nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (s *Session) DeleteTransaction(ctx context.Context, id string) error {
	return s.commit(ctx, OpDeleted, core.KindTransaction, func(m *mutation) (string, error) {
		old, err := m.st.Transactions.Get(id)
		if err != nil {
			return "", err
		}
		m.st.Transactions.Remove(id)
		m.balances.ApplyDelete(old)
		m.budgets.OnExpenseDelete(old)
		return id, nil
	})
}

// CreateAccount stores a new account. Its initial balance becomes the
// opening balance.
func (s *Session) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	err := s.commit(ctx, OpCreated, core.KindAccount, func(m *mutation) (string, error) {
		if err := a.Validate(); err != nil {
			return "", err
		}
		a.ID = core.NewID()
		a.UserID = m.st.User.ID
		a.CreatedAt = m.now
		a.OpeningBalance = a.Balance
		m.st.Accounts.Upsert(a)
		return a.ID, nil
	})
	if err != nil {
		return core.Account{}, err
	}
	return a, nil
}

// UpdateAccount replaces the account. A balance edit moves the opening
// balance by the same amount so the balance still matches its transactions.
func (s *Session) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	err := s.commit(ctx, OpUpdated, core.KindAccount, func(m *mutation) (string, error) {
		old, err := m.st.Accounts.Get(a.ID)
		if err != nil {
			return "", err
		}
		if err := a.Validate(); err != nil {
			return "", err
		}
		a.UserID = old.UserID
		a.CreatedAt = old.CreatedAt
		a.OpeningBalance = old.OpeningBalance.Add(a.Balance.Sub(old.Balance))
		m.st.Accounts.Upsert(a)
		return a.ID, nil
	})
	if err != nil {
		return core.Account{}, err
	}
	return a, nil
}

// DeleteAccount removes the account together with all of its transactions.
func (s *Session) DeleteAccount(ctx context.Context, id string) error {
	return s.commit(ctx, OpDeleted, core.KindAccount, func(m *mutation) (string, error) {
		var budgets *BudgetAccumulator
		if s.reverseOnAccountDelete {
			budgets = m.budgets
		}
		if _, err := m.reassign.OnDeleteAccount(id, budgets); err != nil {
			return "", err
		}
		return id, nil
	})
}

func (s *Session) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	err := s.commit(ctx, OpCreated, core.KindCategory, func(m *mutation) (string, error) {
		if err := c.Validate(); err != nil {
			return "", err
		}
		c.ID = core.NewID()
		c.UserID = m.st.User.ID
		c.Name = strings.TrimSpace(c.Name)
		if c.Icon == "" {
			c.Icon = core.IconFor(c.Name)
		}
		m.st.Categories.Upsert(c)
		return c.ID, nil
	})
	if err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// UpdateCategory changes name, color and icon. The type is fixed at creation;
// an empty type keeps the current one.
func (s *Session) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	err := s.commit(ctx, OpUpdated, core.KindCategory, func(m *mutation) (string, error) {
		old, err := m.st.Categories.Get(c.ID)
		if err != nil {
			return "", err
		}
		if c.Type == "" {
			c.Type = old.Type
		}
		if c.Type != old.Type {
			return "", core.Invalid("type", core.ErrImmutableType)
		}
		if err := c.Validate(); err != nil {
			return "", err
		}
		c.UserID = old.UserID
		c.Name = strings.TrimSpace(c.Name)
		if c.Icon == "" {
			c.Icon = old.Icon
		}
		m.st.Categories.Upsert(c)
		return c.ID, nil
	})
	if err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// DeleteCategory removes the category, reassigns its transactions and drops
// its budgets.
func (s *Session) DeleteCategory(ctx context.Context, id string) (CategoryCascade, error) {
	var res CategoryCascade
	err := s.commit(ctx, OpDeleted, core.KindCategory, func(m *mutation) (string, error) {
		var err error
		res, err = m.reassign.OnDeleteCategory(id)
		m.removedBudgets = res.RemovedBudgets
		return id, err
	})
	return res, err
}

func (s *Session) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	err := s.commit(ctx, OpCreated, core.KindBudget, func(m *mutation) (string, error) {
		b.ID = ""
		b.UserID = m.st.User.ID
		var err error
		b, err = m.budgets.CreateBudget(b)
		return b.ID, err
	})
	if err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (s *Session) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	err := s.commit(ctx, OpUpdated, core.KindBudget, func(m *mutation) (string, error) {
		var err error
		b, err = m.budgets.UpdateBudget(b)
		return b.ID, err
	})
	if err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (s *Session) DeleteBudget(ctx context.Context, id string) error {
	return s.commit(ctx, OpDeleted, core.KindBudget, func(m *mutation) (string, error) {
		return id, m.budgets.DeleteBudget(id)
	})
}

// CreateGoal stores a savings goal. Goals do not interact with transactions.
func (s *Session) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	err := s.commit(ctx, OpCreated, core.KindGoal, func(m *mutation) (string, error) {
		if err := g.Validate(m.today); err != nil {
			return "", err
		}
		g.ID = core.NewID()
		g.UserID = m.st.User.ID
		g.CreatedAt = m.now
		m.st.Goals.Upsert(g)
		return g.ID, nil
	})
	if err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func (s *Session) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	err := s.commit(ctx, OpUpdated, core.KindGoal, func(m *mutation) (string, error) {
		old, err := m.st.Goals.Get(g.ID)
		if err != nil {
			return "", err
		}
		if err := g.Validate(m.today); err != nil {
			return "", err
		}
		g.UserID = old.UserID
		g.CreatedAt = old.CreatedAt
		m.st.Goals.Upsert(g)
		return g.ID, nil
	})
	if err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func (s *Session) DeleteGoal(ctx context.Context, id string) error {
	return s.commit(ctx, OpDeleted, core.KindGoal, func(m *mutation) (string, error) {
		if !m.st.Goals.Remove(id) {
			return "", &core.NotFoundError{Kind: core.KindGoal, ID: id}
		}
		return id, nil
	})
}

func (s *Session) SetDarkMode(ctx context.Context, on bool) error {
	return s.commit(ctx, OpUpdated, core.KindUser, func(m *mutation) (string, error) {
		m.st.DarkMode = on
		return m.st.User.ID, nil
	})
}

// View returns a deep copy of the store for read-only queries.
func (s *Session) View() *store.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Clone()
}

// Revision counts committed mutations. It is persisted with the snapshot and
// keeps increasing across Close and Open.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Revision
}

func (s *Session) User() core.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.User
}

func (s *Session) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DarkMode
}

func (s *Session) Accounts() []core.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Accounts.List()
}

func (s *Session) Categories() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Categories.List()
}

func (s *Session) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Transactions.List()
}

func (s *Session) Budgets() []core.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Budgets.List()
}

func (s *Session) Goals() []core.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Goals.List()
}

func (s *Session) Account(id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Accounts.Get(id)
}

func (s *Session) Transaction(id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Transactions.Get(id)
}

func (s *Session) Budget(id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Budgets.Get(id)
}

// BudgetDrift is a budget whose Spent differs from a date-based recount.
// Drift is expected when transactions were dated outside the window that was
// active when they were recorded.
type BudgetDrift struct {
	BudgetID   string     `json:"budgetId"`
	Spent      core.Money `json:"spent"`
	Recomputed core.Money `json:"recomputed"`
}

type Report struct {
	Balances []Discrepancy `json:"balances"`
	Budgets  []BudgetDrift `json:"budgets"`
}

// OK reports whether every account balance matches its transactions.
func (r Report) OK() bool { return len(r.Balances) == 0 }

// Verify checks the balance invariant for every account and reports budget
// drift against a date-based recount. It never mutates the store.
func (s *Session) Verify() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep := Report{Balances: NewBalanceMaintainer(s.st, s.logger).Verify()}
	acc := NewBudgetAccumulator(s.st, s.today(), s.logger)
	for _, b := range s.st.Budgets.List() {
		if got := acc.RecomputeSpent(b); got != b.Spent {
			rep.Budgets = append(rep.Budgets, BudgetDrift{BudgetID: b.ID, Spent: b.Spent, Recomputed: got})
		}
	}
	return rep
}
