// Package cart holds the cart model and the pure reducer that applies item
// operations to it.
package cart

import "strings"

// DefaultUnit labels items whose message carried no unit word.
const DefaultUnit = "unit"

type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Unit     string `json:"unit"`
	Quantity int    `json:"quantity"`
}

// Subtotal is price times quantity.
func (i Item) Subtotal() int {
	return i.Price * i.Quantity
}

// Cart is an ordered list of items, insertion order preserved. Values are treated
// as immutable: Reduce always returns a fresh Cart.
type Cart struct {
	Items []Item `json:"items"`
}

// Total sums price*quantity over every item.
func (c Cart) Total() int {
	total := 0
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

func (c Cart) Len() int {
	return len(c.Items)
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Find looks an item up by case-insensitive name.
func (c Cart) Find(name string) (Item, bool) {
	key := NormalizeName(name)
	for _, item := range c.Items {
		if NormalizeName(item.Name) == key {
			return item, true
		}
	}
	return Item{}, false
}

// Clone returns a cart that shares no backing array with c.
func (c Cart) Clone() Cart {
	if c.Items == nil {
		return Cart{}
	}
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

// NormalizeName is the key used for duplicate detection and matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
