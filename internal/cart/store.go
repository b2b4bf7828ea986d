package cart

import (
	"slices"
	"sync"
)

// CommitFunc receives the full item list after every mutation, while the
// store is still locked, so commits are observed in mutation order.
type CommitFunc func(items []LineItem)

type Snapshot struct {
	Items      []LineItem `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice int64      `json:"total_price"`
}

// Store is one cart. Mutations are serialized; readers get copies.
type Store struct {
	mu     sync.Mutex
	items  []LineItem
	commit CommitFunc

	subMu sync.Mutex
	subs  []func(Snapshot)
}

// NewStore starts a cart from items, which are copied. commit may be nil.
func NewStore(items []LineItem, commit CommitFunc) *Store {
	return &Store{items: slices.Clone(items), commit: commit}
}

// Add merges item into the line with the same key, or appends it. A
// non-positive item.Quantity counts as 1.
func (s *Store) Add(item LineItem) Snapshot {
	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}

	return s.mutate(func(items []LineItem) []LineItem {
		if i := indexOf(items, item.Key()); i >= 0 {
			items[i].Quantity += qty
			return items
		}
		item.Quantity = qty
		return append(items, item)
	})
}

// Remove deletes the line with key k, if any.
func (s *Store) Remove(k Key) Snapshot {
	return s.mutate(func(items []LineItem) []LineItem {
		return slices.DeleteFunc(items, func(it LineItem) bool { return it.Key() == k })
	})
}

// UpdateQuantity sets the quantity of the line with key k. A non-positive
// quantity removes the line; a missing line is left alone.
func (s *Store) UpdateQuantity(k Key, quantity int) Snapshot {
	if quantity <= 0 {
		return s.Remove(k)
	}
	return s.mutate(func(items []LineItem) []LineItem {
		if i := indexOf(items, k); i >= 0 {
			items[i].Quantity = quantity
		}
		return items
	})
}

func (s *Store) Clear() Snapshot {
	return s.mutate(func([]LineItem) []LineItem { return nil })
}

func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

func (s *Store) TotalItems() int {
	return s.Snapshot().TotalItems
}

func (s *Store) TotalPrice() int64 {
	return s.Snapshot().TotalPrice
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.items)
}

// Subscribe registers fn to receive the snapshot after every mutation.
// Subscribers run after the store is unlocked and may read from it.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) mutate(fn func([]LineItem) []LineItem) Snapshot {
	s.mu.Lock()
	s.items = fn(s.items)
	snap := snapshotOf(s.items)
	if s.commit != nil {
		s.commit(cloneItems(s.items))
	}
	s.mu.Unlock()

	s.subMu.Lock()
	subs := slices.Clone(s.subs)
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap
}

// replace swaps in items read from another writer of the same slot. It
// neither commits nor notifies.
func (s *Store) replace(items []LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = cloneItems(items)
}

func snapshotOf(items []LineItem) Snapshot {
	snap := Snapshot{Items: cloneItems(items)}
	for _, it := range items {
		snap.TotalItems += it.Quantity
		snap.TotalPrice += it.Subtotal()
	}
	return snap
}

func indexOf(items []LineItem, k Key) int {
	return slices.IndexFunc(items, func(it LineItem) bool { return it.Key() == k })
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
