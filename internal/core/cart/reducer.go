package cart

import "strings"

// Operation kinds, used for logging and metrics attributes.
const (
	KindInsertIfAbsent      = "insert_if_absent"
	KindUpsertOverwrite     = "upsert_overwrite"
	KindRemoveMatching      = "remove_matching"
	KindSetQuantityMatching = "set_quantity_matching"
)

// Operation is one reducer step. The set is closed: only this package implements it.
type Operation interface {
	Kind() string
	apply(items []Item) ([]Item, bool)
}

// Reduce applies op to c and returns the resulting cart. c is never modified.
func Reduce(c Cart, op Operation) Cart {
	next, _ := Apply(c, op)
	return next
}

// Apply is Reduce that also reports whether the cart changed.
func Apply(c Cart, op Operation) (Cart, bool) {
	if op == nil {
		return c, false
	}
	items, changed := op.apply(c.Items)
	if !changed {
		return c, false
	}
	return Cart{Items: items}, true
}

// InsertIfAbsent appends Item unless an item with the same normalized name exists.
type InsertIfAbsent struct {
	Item Item
}

func (InsertIfAbsent) Kind() string { return KindInsertIfAbsent }

func (op InsertIfAbsent) apply(items []Item) ([]Item, bool) {
	item, ok := sanitize(op.Item)
	if !ok || indexOf(items, item.Name) >= 0 {
		return items, false
	}
	return appendItem(items, item), true
}

// UpsertOverwrite inserts Item, or overwrites quantity and price of the existing
// item with the same normalized name. The existing id, name and unit are kept.
type UpsertOverwrite struct {
	Item Item
}

func (UpsertOverwrite) Kind() string { return KindUpsertOverwrite }

func (op UpsertOverwrite) apply(items []Item) ([]Item, bool) {
	item, ok := sanitize(op.Item)
	if !ok {
		return items, false
	}

	i := indexOf(items, item.Name)
	if i < 0 {
		return appendItem(items, item), true
	}

	if items[i].Quantity == item.Quantity && items[i].Price == item.Price {
		return items, false
	}

	out := copyItems(items)
	out[i].Quantity = item.Quantity
	out[i].Price = item.Price
	return out, true
}

// RemoveMatching drops every item whose name contains Substring, case-insensitively.
type RemoveMatching struct {
	Substring string
}

func (RemoveMatching) Kind() string { return KindRemoveMatching }

func (op RemoveMatching) apply(items []Item) ([]Item, bool) {
	needle := NormalizeName(op.Substring)
	if needle == "" {
		return items, false
	}

	out := make([]Item, 0, len(items))
	for _, item := range items {
		if strings.Contains(NormalizeName(item.Name), needle) {
			continue
		}
		out = append(out, item)
	}

	if len(out) == len(items) {
		return items, false
	}
	return out, true
}

// SetQuantityMatching sets Quantity on every item whose name contains Substring.
// Prices are left alone. Quantities below one are rejected.
type SetQuantityMatching struct {
	Substring string
	Quantity  int
}

func (SetQuantityMatching) Kind() string { return KindSetQuantityMatching }

func (op SetQuantityMatching) apply(items []Item) ([]Item, bool) {
	needle := NormalizeName(op.Substring)
	if needle == "" || op.Quantity < 1 {
		return items, false
	}

	var out []Item
	for i, item := range items {
		if item.Quantity == op.Quantity || !strings.Contains(NormalizeName(item.Name), needle) {
			continue
		}
		if out == nil {
			out = copyItems(items)
		}
		out[i].Quantity = op.Quantity
	}

	if out == nil {
		return items, false
	}
	return out, true
}

func sanitize(item Item) (Item, bool) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" || item.Quantity < 1 {
		return item, false
	}
	if item.Price < 0 {
		item.Price = 0
	}
	if item.Unit == "" {
		item.Unit = DefaultUnit
	}
	if item.ID == "" {
		item.ID = NormalizeName(item.Name)
	}
	return item, true
}

func indexOf(items []Item, name string) int {
	key := NormalizeName(name)
	for i, item := range items {
		if NormalizeName(item.Name) == key {
			return i
		}
	}
	return -1
}

func appendItem(items []Item, item Item) []Item {
	out := make([]Item, len(items), len(items)+1)
	copy(out, items)
	return append(out, item)
}

func copyItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
