package store

import (
	"myfinance/internal/core"
)

// Entity is anything the store can key by identity.
type Entity interface {
	EntityID() string
}

// Collection is an ordered, id-indexed list of one entity kind. Insertion
// order is preserved across Upsert and Remove. Not safe for concurrent use;
// the ledger session serializes access.
type Collection[T Entity] struct {
	kind  core.Kind
	items []T
	index map[string]int
}

func NewCollection[T Entity](kind core.Kind, items ...T) *Collection[T] {
	c := &Collection[T]{kind: kind}
	c.reset(items)
	return c
}

func (c *Collection[T]) reset(items []T) {
	c.items = make([]T, 0, len(items))
	c.index = make(map[string]int, len(items))
	for _, it := range items {
		c.Upsert(it)
	}
}

// Kind returns the entity kind held by the collection.
func (c *Collection[T]) Kind() core.Kind { return c.kind }

// Get returns a copy of the entity with id, or a *core.NotFoundError.
func (c *Collection[T]) Get(id string) (T, error) {
	i, ok := c.index[id]
	if !ok {
		var zero T
		return zero, &core.NotFoundError{Kind: c.kind, ID: id}
	}
	return cloneValue(c.items[i]), nil
}

func (c *Collection[T]) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Upsert replaces the entity with the same id in place, or appends it.
func (c *Collection[T]) Upsert(v T) {
	v = cloneValue(v)
	if i, ok := c.index[v.EntityID()]; ok {
		c.items[i] = v
		return
	}
	c.index[v.EntityID()] = len(c.items)
	c.items = append(c.items, v)
}

// Remove deletes the entity with id and reports whether it existed.
func (c *Collection[T]) Remove(id string) bool {
	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].EntityID()] = j
	}
	return true
}

// RemoveWhere deletes every entity matching pred and returns the removed ones.
func (c *Collection[T]) RemoveWhere(pred func(T) bool) []T {
	var removed []T
	kept := make([]T, 0, len(c.items))
	for _, it := range c.items {
		if pred(it) {
			removed = append(removed, it)
			continue
		}
		kept = append(kept, it)
	}
	if len(removed) > 0 {
		c.reset(kept)
	}
	return removed
}

// List returns a copy of all entities in insertion order.
func (c *Collection[T]) List() []T {
	out := make([]T, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, cloneValue(it))
	}
	return out
}

func (c *Collection[T]) Len() int { return len(c.items) }

// Filter returns copies of the entities matching pred, in order.
func (c *Collection[T]) Filter(pred func(T) bool) []T {
	var out []T
	for _, it := range c.items {
		if pred(it) {
			out = append(out, cloneValue(it))
		}
	}
	return out
}

// Find returns the first entity matching pred.
func (c *Collection[T]) Find(pred func(T) bool) (T, bool) {
	for _, it := range c.items {
		if pred(it) {
			return cloneValue(it), true
		}
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) clone() *Collection[T] {
	return NewCollection(c.kind, c.items...)
}

// cloneValue copies pointer fields for entities that carry them so callers
// never alias stored state.
func cloneValue[T Entity](v T) T {
	if c, ok := any(v).(interface{ Clone() T }); ok {
		return c.Clone()
	}
	return v
}
