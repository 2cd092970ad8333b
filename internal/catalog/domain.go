package catalog

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Category groups catalog items.
type Category string

const (
	// CategoryPaper covers sheet paper priced per sheet.
	CategoryPaper Category = "paper"
	// CategoryProduct covers finished paper goods priced per unit.
	CategoryProduct Category = "product"
	// CategoryLargeFormat covers posters and banner rolls.
	CategoryLargeFormat Category = "large_format"
	// CategorySpecialty covers heavyweight and specialty stock.
	CategorySpecialty Category = "specialty"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryPaper, CategoryProduct, CategoryLargeFormat, CategorySpecialty:
		return true
	}
	return false
}

// Item is one purchasable catalog entry.
type Item struct {
	Name      string          `json:"item_name"`
	Category  Category        `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// InventoryRecord is the seeded reference row for a stocked item. CurrentStock
// is the opening snapshot only; live stock comes from the ledger.
type InventoryRecord struct {
	ItemName      string          `json:"item_name"`
	Category      Category        `json:"category"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	CurrentStock  int64           `json:"current_stock"`
	MinStockLevel int64           `json:"min_stock_level"`
}

var (
	// ErrDuplicateItem indicates two catalog entries share a name.
	ErrDuplicateItem = errors.New("catalog: duplicate item name")
	// ErrInvalidCategory indicates an unknown category.
	ErrInvalidCategory = errors.New("catalog: invalid category")
	// ErrInvalidPrice indicates a negative unit price.
	ErrInvalidPrice = errors.New("catalog: unit price must be >= 0")
	// ErrEmptyName indicates an item without a name.
	ErrEmptyName = errors.New("catalog: item name required")
)
