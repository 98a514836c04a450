package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func milk(qty int) Item {
	return Item{ID: "id-milk", Name: "Milk", Price: 60, Unit: "litre", Quantity: qty}
}

func TestReduce_InsertIfAbsent(t *testing.T) {
	c := Reduce(Cart{}, InsertIfAbsent{Item: milk(2)})
	require.Len(t, c.Items, 1)
	assert.Equal(t, milk(2), c.Items[0])

	again := Reduce(c, InsertIfAbsent{Item: Item{ID: "other", Name: "MILK ", Price: 1, Quantity: 9}})
	assert.Equal(t, c, again, "existing name is left untouched")
}

func TestReduce_InsertIfAbsentRejectsInvalidItems(t *testing.T) {
	c := Reduce(Cart{}, InsertIfAbsent{Item: Item{Name: "  ", Quantity: 1}})
	assert.True(t, c.IsEmpty())

	c = Reduce(Cart{}, InsertIfAbsent{Item: Item{Name: "Bread", Quantity: 0}})
	assert.True(t, c.IsEmpty())

	c = Reduce(Cart{}, InsertIfAbsent{Item: Item{Name: "Bread", Quantity: 1, Price: -5}})
	require.Len(t, c.Items, 1)
	assert.Equal(t, 0, c.Items[0].Price)
	assert.Equal(t, DefaultUnit, c.Items[0].Unit)
	assert.Equal(t, "bread", c.Items[0].ID)
}

func TestReduce_UpsertOverwrite(t *testing.T) {
	c := Reduce(Cart{}, UpsertOverwrite{Item: milk(2)})
	c = Reduce(c, UpsertOverwrite{Item: Item{ID: "new-id", Name: "milk", Price: 65, Unit: "pack", Quantity: 3}})

	require.Len(t, c.Items, 1)
	assert.Equal(t, Item{ID: "id-milk", Name: "Milk", Price: 65, Unit: "litre", Quantity: 3}, c.Items[0])
}

func TestReduce_RemoveMatching(t *testing.T) {
	c := Cart{Items: []Item{
		{ID: "1", Name: "Bananas", Price: 48, Quantity: 5},
		{ID: "2", Name: "Milk", Price: 60, Quantity: 1},
		{ID: "3", Name: "Banana Chips", Price: 20, Quantity: 1},
	}}

	next := Reduce(c, RemoveMatching{Substring: "BANANA"})
	require.Len(t, next.Items, 1)
	assert.Equal(t, "Milk", next.Items[0].Name)
	assert.Len(t, c.Items, 3, "input cart is not modified")

	assert.Equal(t, next, Reduce(next, RemoveMatching{Substring: "banana"}))
	assert.Equal(t, next, Reduce(next, RemoveMatching{Substring: "  "}))
}

func TestReduce_SetQuantityMatching(t *testing.T) {
	c := Cart{Items: []Item{
		{ID: "1", Name: "Green Apples", Price: 180, Quantity: 1},
		{ID: "2", Name: "Red Apples", Price: 170, Quantity: 2},
		{ID: "3", Name: "Milk", Price: 60, Quantity: 1},
	}}

	next := Reduce(c, SetQuantityMatching{Substring: "apples", Quantity: 4})
	assert.Equal(t, 4, next.Items[0].Quantity)
	assert.Equal(t, 4, next.Items[1].Quantity)
	assert.Equal(t, 1, next.Items[2].Quantity)
	assert.Equal(t, 180, next.Items[0].Price, "price unchanged")
	assert.Equal(t, 1, c.Items[0].Quantity, "input cart is not modified")

	_, changed := Apply(next, SetQuantityMatching{Substring: "apples", Quantity: 4})
	assert.False(t, changed)

	_, changed = Apply(next, SetQuantityMatching{Substring: "apples", Quantity: 0})
	assert.False(t, changed)
}

func TestReduce_IdempotentOperations(t *testing.T) {
	ops := []Operation{
		InsertIfAbsent{Item: milk(2)},
		UpsertOverwrite{Item: Item{ID: "b", Name: "Bread", Price: 40, Quantity: 1}},
		SetQuantityMatching{Substring: "bread", Quantity: 3},
		RemoveMatching{Substring: "milk"},
	}

	c := Cart{}
	for _, op := range ops {
		once := Reduce(c, op)
		twice := Reduce(once, op)
		assert.Equal(t, once, twice, op.Kind())
		c = once
	}
}

func TestReduce_NoDuplicateNames(t *testing.T) {
	c := Cart{}
	names := []string{"Milk", "milk", "MILK", " Milk", "Bread", "bread"}
	for i, name := range names {
		if i%2 == 0 {
			c = Reduce(c, InsertIfAbsent{Item: Item{Name: name, Price: 10, Quantity: 1}})
		} else {
			c = Reduce(c, UpsertOverwrite{Item: Item{Name: name, Price: 10, Quantity: 2}})
		}
	}

	seen := map[string]bool{}
	for _, item := range c.Items {
		key := NormalizeName(item.Name)
		assert.False(t, seen[key], "duplicate %q", key)
		seen[key] = true
	}
	assert.Len(t, c.Items, 2)
}

func TestCart_Total(t *testing.T) {
	c := Cart{Items: []Item{
		{Name: "Milk", Price: 60, Quantity: 2},
		{Name: "Pasta", Price: 85, Quantity: 1},
	}}
	assert.Equal(t, 205, c.Total())
	assert.Equal(t, 0, Cart{}.Total())

	c = Reduce(c, SetQuantityMatching{Substring: "pasta", Quantity: 3})
	assert.Equal(t, 375, c.Total())
}

func TestCart_FindAndClone(t *testing.T) {
	c := Cart{Items: []Item{milk(1)}}

	item, ok := c.Find(" MILK")
	require.True(t, ok)
	assert.Equal(t, "id-milk", item.ID)

	_, ok = c.Find("mil")
	assert.False(t, ok)

	clone := c.Clone()
	clone.Items[0].Quantity = 9
	assert.Equal(t, 1, c.Items[0].Quantity)
}

func TestApply_NilOperation(t *testing.T) {
	c := Cart{Items: []Item{milk(1)}}
	next, changed := Apply(c, nil)
	assert.False(t, changed)
	assert.Equal(t, c, next)
}
