// Package store holds one user's entities in memory and converts them to and
// from the persisted snapshot.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"myfinance/internal/core"
)

// SnapshotVersion is the current snapshot format.
const SnapshotVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// Store is the in-memory source of truth for a single user session.
type Store struct {
	User     core.User
	DarkMode bool
	// Revision counts committed mutations over the life of the ledger.
	Revision uint64

	Accounts     *Collection[core.Account]
	Categories   *Collection[core.Category]
	Transactions *Collection[core.Transaction]
	Budgets      *Collection[core.Budget]
	Goals        *Collection[core.Goal]
}

func New(user core.User) *Store {
	return &Store{
		User:         user,
		Accounts:     NewCollection[core.Account](core.KindAccount),
		Categories:   NewCollection[core.Category](core.KindCategory),
		Transactions: NewCollection[core.Transaction](core.KindTransaction),
		Budgets:      NewCollection[core.Budget](core.KindBudget),
		Goals:        NewCollection[core.Goal](core.KindGoal),
	}
}

// Clone returns a deep copy that shares no mutable state with s.
func (s *Store) Clone() *Store {
	return &Store{
		User:         s.User,
		DarkMode:     s.DarkMode,
		Revision:     s.Revision,
		Accounts:     s.Accounts.clone(),
		Categories:   s.Categories.clone(),
		Transactions: s.Transactions.clone(),
		Budgets:      s.Budgets.clone(),
		Goals:        s.Goals.clone(),
	}
}

// Snapshot is the persisted form of a Store.
type Snapshot struct {
	Version      int                `json:"version"`
	User         core.User          `json:"user"`
	DarkMode     bool               `json:"darkMode"`
	Revision     uint64             `json:"revision,omitempty"`
	Accounts     []core.Account     `json:"accounts"`
	Categories   []core.Category    `json:"categories"`
	Transactions []core.Transaction `json:"transactions"`
	Budgets      []core.Budget      `json:"budgets"`
	Goals        []core.Goal        `json:"goals"`
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Version:      SnapshotVersion,
		User:         s.User,
		DarkMode:     s.DarkMode,
		Revision:     s.Revision,
		Accounts:     s.Accounts.List(),
		Categories:   s.Categories.List(),
		Transactions: s.Transactions.List(),
		Budgets:      s.Budgets.List(),
		Goals:        s.Goals.List(),
	}
}

// FromSnapshot rebuilds a Store. Dangling references are kept as-is; the
// ledger tolerates them.
func FromSnapshot(snap Snapshot) *Store {
	return &Store{
		User:         snap.User,
		DarkMode:     snap.DarkMode,
		Revision:     snap.Revision,
		Accounts:     NewCollection(core.KindAccount, snap.Accounts...),
		Categories:   NewCollection(core.KindCategory, snap.Categories...),
		Transactions: NewCollection(core.KindTransaction, snap.Transactions...),
		Budgets:      NewCollection(core.KindBudget, snap.Budgets...),
		Goals:        NewCollection(core.KindGoal, snap.Goals...),
	}
}

// Encode serializes the store as a JSON snapshot.
func Encode(s *Store) ([]byte, error) {
	b, err := json.Marshal(s.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// Decode parses a JSON snapshot. A missing version is read as version 1.
func Decode(b []byte) (*Store, error) {
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version == 0 {
		snap.Version = SnapshotVersion
	}
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}
	return FromSnapshot(snap), nil
}
