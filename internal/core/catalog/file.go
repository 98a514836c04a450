package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk layout of a catalog file:
//
//	fallback_price: 50
//	items:
//	  - name: milk
//	    price: 60
type fileFormat struct {
	FallbackPrice *int    `yaml:"fallback_price"`
	Items         []Entry `yaml:"items"`
}

// LoadFile reads a YAML catalog. The item list keeps file order. When the file does
// not set fallback_price, fallback is used.
func LoadFile(path string, fallback int) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return Parse(data, fallback)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte, fallback int) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if len(f.Items) == 0 {
		return nil, ErrEmptyCatalog
	}

	if f.FallbackPrice != nil {
		fallback = *f.FallbackPrice
	}

	return New(f.Items, fallback), nil
}
