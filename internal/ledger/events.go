package ledger

import (
	"context"
	"time"

	"myfinance/internal/core"
)

// Op is the kind of change a committed mutation made.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Event describes one committed mutation. Budgets holds the post-commit
// state of every budget whose Spent the mutation touched; RemovedBudgets the
// ids of budgets a category deletion dropped.
type Event struct {
	Op             Op            `json:"op"`
	Kind           core.Kind     `json:"kind"`
	ID             string        `json:"id"`
	UserID         string        `json:"userId"`
	Revision       uint64        `json:"revision"`
	At             time.Time     `json:"at"`
	Budgets        []core.Budget `json:"budgets,omitempty"`
	RemovedBudgets []string      `json:"removedBudgets,omitempty"`
}

// Publisher receives events after they are persisted. Errors are logged and
// never fail the mutation.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }
