package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultPriceList []byte

// Catalog is the immutable price list.
type Catalog struct {
	items  []Item
	byName map[string]Item
}

// New validates items and builds a Catalog preserving their order.
func New(items []Item) (*Catalog, error) {
	c := &Catalog{items: make([]Item, 0, len(items)), byName: make(map[string]Item, len(items))}
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			return nil, ErrEmptyName
		}
		if !item.Category.Valid() {
			return nil, fmt.Errorf("%w: %q for %s", ErrInvalidCategory, item.Category, item.Name)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, item.Name)
		}
		if _, ok := c.byName[item.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, item.Name)
		}
		c.byName[item.Name] = item
		c.items = append(c.items, item)
	}
	return c, nil
}

type yamlItem struct {
	Name      string `yaml:"item_name"`
	Category  string `yaml:"category"`
	UnitPrice string `yaml:"unit_price"`
}

type yamlPriceList struct {
	Items []yamlItem `yaml:"items"`
}

// Load decodes a YAML price list.
func Load(r io.Reader) (*Catalog, error) {
	var doc yamlPriceList
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	items := make([]Item, 0, len(doc.Items))
	for _, raw := range doc.Items {
		price, err := decimal.NewFromString(strings.TrimSpace(raw.UnitPrice))
		if err != nil {
			return nil, fmt.Errorf("catalog: price for %s: %w", raw.Name, err)
		}
		items = append(items, Item{Name: raw.Name, Category: Category(raw.Category), UnitPrice: price})
	}
	return New(items)
}

// LoadFile reads a YAML price list from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the built-in price list.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultPriceList))
}

// Items returns the catalog entries in load order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Lookup finds an item by exact name.
func (c *Catalog) Lookup(name string) (Item, bool) {
	item, ok := c.byName[name]
	return item, ok
}

// UnitPrice returns the list price for name.
func (c *Catalog) UnitPrice(name string) (decimal.Decimal, bool) {
	item, ok := c.byName[name]
	if !ok {
		return decimal.Zero, false
	}
	return item.UnitPrice, true
}

// Names returns item names sorted alphabetically.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.items))
	for _, item := range c.items {
		names = append(names, item.Name)
	}
	sort.Strings(names)
	return names
}
