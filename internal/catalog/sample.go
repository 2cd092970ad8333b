package catalog

import (
	"fmt"
	"math/rand/v2"
)

// DefaultCoverage is the fraction of the catalog stocked at opening.
const DefaultCoverage = 0.4

// SampleInventory picks floor(coverage*N) catalog items and assigns each an
// opening stock in [200, 800) and a reorder threshold in [50, 150). The same
// seed always yields the same records.
func SampleInventory(c *Catalog, coverage float64, seed uint64) ([]InventoryRecord, error) {
	if coverage < 0 || coverage > 1 {
		return nil, fmt.Errorf("catalog: coverage %.2f outside [0,1]", coverage)
	}
	items := c.Items()
	count := int(float64(len(items)) * coverage)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	order := rng.Perm(len(items))

	records := make([]InventoryRecord, 0, count)
	for _, idx := range order[:count] {
		item := items[idx]
		records = append(records, InventoryRecord{
			ItemName:      item.Name,
			Category:      item.Category,
			UnitPrice:     item.UnitPrice,
			CurrentStock:  200 + rng.Int64N(600),
			MinStockLevel: 50 + rng.Int64N(100),
		})
	}
	return records, nil
}
