// Package catalog resolves free-text item names to unit prices using a static,
// ordered price table.
package catalog

import (
	"errors"
	"strings"
)

// DefaultFallbackPrice is returned for names that match nothing in the table.
const DefaultFallbackPrice = 50

var ErrEmptyCatalog = errors.New("catalog has no entries")

// Entry is one row of the price table. Name is stored lowercase.
type Entry struct {
	Name  string `json:"name" yaml:"name" db:"name"`
	Price int    `json:"price" yaml:"price" db:"price"`
}

// Catalog is a read-only price table. Entries keep their declaration order because
// substring matching returns the first hit.
type Catalog struct {
	entries  []Entry
	index    map[string]int
	fallback int
}

// New builds a catalog from entries in declaration order. Keys are lowercased and
// trimmed; a repeated key keeps its first price. Negative prices are clamped to zero.
func New(entries []Entry, fallback int) *Catalog {
	if fallback < 0 {
		fallback = 0
	}

	c := &Catalog{
		entries:  make([]Entry, 0, len(entries)),
		index:    make(map[string]int, len(entries)),
		fallback: fallback,
	}

	for _, e := range entries {
		key := normalize(e.Name)
		if key == "" {
			continue
		}
		if _, exists := c.index[key]; exists {
			continue
		}
		price := e.Price
		if price < 0 {
			price = 0
		}
		c.index[key] = len(c.entries)
		c.entries = append(c.entries, Entry{Name: key, Price: price})
	}

	return c
}

// Default returns the built-in grocery catalog.
func Default() *Catalog {
	return New(DefaultEntries(), DefaultFallbackPrice)
}

// ResolvePrice maps a free-text item name to a unit price: exact key match first,
// then the first entry (in declaration order) where either string contains the
// other, then the fallback price.
func (c *Catalog) ResolvePrice(name string) int {
	key := normalize(name)
	// An empty key is contained in every entry name and would price as the first.
	if key == "" {
		return c.fallback
	}

	if i, ok := c.index[key]; ok {
		return c.entries[i].Price
	}

	for _, e := range c.entries {
		if strings.Contains(key, e.Name) || strings.Contains(e.Name, key) {
			return e.Price
		}
	}

	return c.fallback
}

// Entries returns a copy of the table in declaration order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) FallbackPrice() int {
	return c.fallback
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DefaultEntries is the store's price list in INR. Order matters: longer keys that
// contain shorter ones ("tomato sauce" vs "tomato") are declared first.
func DefaultEntries() []Entry {
	return []Entry{
		{Name: "milk", Price: 60},
		{Name: "whole wheat bread", Price: 45},
		{Name: "white bread", Price: 40},
		{Name: "eggs", Price: 84},
		{Name: "peanut butter", Price: 199},
		{Name: "butter", Price: 56},
		{Name: "paneer", Price: 90},
		{Name: "curd", Price: 35},
		{Name: "cheese slices", Price: 140},
		{Name: "banana", Price: 48},
		{Name: "apple", Price: 180},
		{Name: "onion", Price: 40},
		{Name: "potato", Price: 35},
		{Name: "garlic", Price: 20},
		{Name: "spaghetti", Price: 95},
		{Name: "pasta", Price: 85},
		{Name: "tomato sauce", Price: 120},
		{Name: "tomato", Price: 30},
		{Name: "olive oil", Price: 180},
		{Name: "basmati rice", Price: 110},
		{Name: "sugar", Price: 45},
		{Name: "salt", Price: 25},
		{Name: "green tea", Price: 140},
		{Name: "coffee", Price: 250},
		{Name: "orange juice", Price: 110},
		{Name: "biscuits", Price: 30},
		{Name: "chips", Price: 20},
		{Name: "lettuce", Price: 60},
		{Name: "cucumber", Price: 25},
		{Name: "chicken breast", Price: 280},
	}
}
