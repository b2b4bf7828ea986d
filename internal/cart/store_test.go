package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertTotals(t *testing.T, s *Store) {
	t.Helper()

	var items int
	var price int64
	for _, it := range s.Items() {
		items += it.Quantity
		price += it.Price * int64(it.Quantity)
	}
	assert.Equal(t, items, s.TotalItems())
	assert.Equal(t, price, s.TotalPrice())
}

func TestStore_Scenario(t *testing.T) {
	s := NewStore(nil, nil)
	assert.Zero(t, s.TotalItems())
	assert.Zero(t, s.TotalPrice())

	s.Add(LineItem{ID: "a", Price: 1000, Quantity: 1})
	assert.Equal(t, 1, s.TotalItems())
	assert.Equal(t, int64(1000), s.TotalPrice())

	s.Add(LineItem{ID: "a", Price: 1000, Quantity: 2})
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, int64(3000), s.TotalPrice())

	s.UpdateQuantity(Key{ID: "a"}, 1)
	assert.Equal(t, 1, s.Items()[0].Quantity)
	assert.Equal(t, int64(1000), s.TotalPrice())

	snap := s.Remove(Key{ID: "a"})
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.TotalItems)
	assert.Zero(t, snap.TotalPrice)
}

func TestStore_AddMergesByFullKey(t *testing.T) {
	s := NewStore(nil, nil)

	quantities := []int{1, 4, 2, 3}
	want := 0
	for _, q := range quantities {
		s.Add(LineItem{ID: "x", Size: "M", Color: "Red", Price: 10, Quantity: q})
		want += q
		assertTotals(t, s)
	}

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, want, items[0].Quantity)
}

func TestStore_AddDefaultsQuantityToOne(t *testing.T) {
	s := NewStore(nil, nil)
	s.Add(LineItem{ID: "x", Price: 5})
	s.Add(LineItem{ID: "x", Price: 5, Quantity: -3})

	assert.Equal(t, 2, s.TotalItems())
}

func TestStore_VariantsAreDistinct(t *testing.T) {
	s := NewStore(nil, nil)
	s.Add(LineItem{ID: "b", Size: "M"})
	s.Add(LineItem{ID: "b", Size: "L"})
	s.Add(LineItem{ID: "b"})
	s.Add(LineItem{ID: "b", Size: "M", Color: "Blue"})

	items := s.Items()
	require.Len(t, items, 4)
	assert.Equal(t, []Key{
		{ID: "b", Size: "M"},
		{ID: "b", Size: "L"},
		{ID: "b"},
		{ID: "b", Size: "M", Color: "Blue"},
	}, []Key{items[0].Key(), items[1].Key(), items[2].Key(), items[3].Key()})
}

func TestStore_KeepsFirstSnapshotOnMerge(t *testing.T) {
	s := NewStore(nil, nil)
	s.Add(LineItem{ID: "a", Name: "Old", Price: 100})
	s.Add(LineItem{ID: "a", Name: "New", Price: 999})

	it := s.Items()[0]
	assert.Equal(t, "Old", it.Name)
	assert.Equal(t, int64(100), it.Price)
	assert.Equal(t, int64(200), s.TotalPrice())
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	s := NewStore(nil, nil)
	s.Add(LineItem{ID: "a", Price: 1})
	s.Add(LineItem{ID: "b", Price: 2})

	once := s.Remove(Key{ID: "a"})
	twice := s.Remove(Key{ID: "a"})
	assert.Equal(t, once, twice)

	missing := s.Remove(Key{ID: "zzz"})
	assert.Equal(t, once, missing)
	assertTotals(t, s)
}

func TestStore_UpdateToZeroRemoves(t *testing.T) {
	seed := []LineItem{{ID: "a", Size: "S", Quantity: 2}, {ID: "b", Quantity: 1}}

	for _, q := range []int{0, -1} {
		removed := NewStore(seed, nil).Remove(Key{ID: "a", Size: "S"})
		updated := NewStore(seed, nil).UpdateQuantity(Key{ID: "a", Size: "S"}, q)
		assert.Equal(t, removed, updated, "quantity=%d", q)
	}
}

func TestStore_UpdateMissingIsNoop(t *testing.T) {
	s := NewStore([]LineItem{{ID: "a", Quantity: 2}}, nil)
	before := s.Snapshot()

	after := s.UpdateQuantity(Key{ID: "a", Size: "XL"}, 7)
	assert.Equal(t, before, after)
}

func TestStore_UpdateIsAbsolute(t *testing.T) {
	s := NewStore([]LineItem{{ID: "a", Price: 3, Quantity: 2}}, nil)
	s.UpdateQuantity(Key{ID: "a"}, 5)
	s.UpdateQuantity(Key{ID: "a"}, 5)

	assert.Equal(t, 5, s.TotalItems())
	assert.Equal(t, int64(15), s.TotalPrice())
}

func TestStore_Clear(t *testing.T) {
	s := NewStore([]LineItem{{ID: "a", Price: 3, Quantity: 2}}, nil)
	snap := s.Clear()

	assert.NotNil(t, snap.Items)
	assert.Empty(t, snap.Items)
	assertTotals(t, s)
}

func TestStore_CommitsEveryMutationInOrder(t *testing.T) {
	var commits [][]LineItem
	s := NewStore(nil, func(items []LineItem) { commits = append(commits, items) })

	var seen []int
	s.Subscribe(func(snap Snapshot) { seen = append(seen, snap.TotalItems) })

	s.Add(LineItem{ID: "a", Quantity: 2})
	s.UpdateQuantity(Key{ID: "a"}, 5)
	s.Remove(Key{ID: "missing"})
	s.Clear()

	require.Len(t, commits, 4)
	assert.Equal(t, 2, commits[0][0].Quantity)
	assert.Equal(t, 5, commits[1][0].Quantity)
	assert.Empty(t, commits[3])
	assert.Equal(t, []int{2, 5, 5, 0}, seen)
}

func TestStore_ReadersGetCopies(t *testing.T) {
	seed := []LineItem{{ID: "a", Quantity: 1}}
	s := NewStore(seed, nil)
	seed[0].Quantity = 99

	items := s.Items()
	items[0].Quantity = 42

	assert.Equal(t, 1, s.Items()[0].Quantity)
}
