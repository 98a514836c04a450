package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_ResolvePrice(t *testing.T) {
	c := Default()

	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"exact", "milk", 60},
		{"exact - mixed case and padding", "  MiLk ", 60},
		{"name contains key", "bananas", 48},
		{"key contains name", "sauce", 120},
		{"key contains name - oil", "oil", 180},
		{"exact beats earlier substring", "butter", 56},
		{"longer key declared first", "tomato sauce", 120},
		{"plain tomato", "tomatoes", 30},
		{"unknown", "dragon fruit", DefaultFallbackPrice},
		{"empty", "   ", DefaultFallbackPrice},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, c.ResolvePrice(tc.input))
		})
	}
}

func TestCatalog_ResolvePriceFirstDeclaredWins(t *testing.T) {
	a := New([]Entry{{Name: "rice", Price: 10}, {Name: "brown rice", Price: 20}}, 5)
	b := New([]Entry{{Name: "brown rice", Price: 20}, {Name: "rice", Price: 10}}, 5)

	assert.Equal(t, 10, a.ResolvePrice("brown rice flour"))
	assert.Equal(t, 20, b.ResolvePrice("brown rice flour"))
}

func TestCatalog_ResolvePriceIsDeterministic(t *testing.T) {
	c := Default()
	for _, name := range []string{"Milk", "pasta", "oil", "something else", "2 bananas"} {
		first := c.ResolvePrice(name)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, c.ResolvePrice(name), name)
		}
	}
}

func TestNew_NormalizesEntries(t *testing.T) {
	c := New([]Entry{
		{Name: " Milk ", Price: 60},
		{Name: "MILK", Price: 99},
		{Name: "", Price: 1},
		{Name: "free sample", Price: -3},
	}, -1)

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Name: "milk", Price: 60}, entries[0])
	assert.Equal(t, Entry{Name: "free sample", Price: 0}, entries[1])
	assert.Equal(t, 0, c.FallbackPrice())

	entries[0].Price = 1000
	assert.Equal(t, 60, c.ResolvePrice("milk"), "Entries must return a copy")
}

func TestParse(t *testing.T) {
	doc := []byte(`
fallback_price: 70
items:
  - name: Oat Milk
    price: 150
  - name: milk
    price: 60
`)
	c, err := Parse(doc, DefaultFallbackPrice)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 70, c.FallbackPrice())
	assert.Equal(t, 150, c.ResolvePrice("mil"), "oat milk is declared first")
	assert.Equal(t, 60, c.ResolvePrice("milk"))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("items: []"), DefaultFallbackPrice)
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = Parse([]byte("items: [unterminated"), DefaultFallbackPrice)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("items:\n  - name: bread\n    price: 40\n"), 0o600))

	c, err := LoadFile(path, 55)
	require.NoError(t, err)
	assert.Equal(t, 40, c.ResolvePrice("Bread"))
	assert.Equal(t, 55, c.ResolvePrice("jam"))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), 55)
	assert.Error(t, err)
}
