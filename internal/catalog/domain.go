package catalog

import "time"

// Item is one tracked part. StockOnHand is a cached running total derived
// from the movement ledger; nothing in this package writes it.
type Item struct {
	ID           string
	Name         string
	StockOnHand  int64
	ReorderLevel int64
	ReorderQty   int64
	Unit         string
	Active       bool
	CreatedAt    time.Time
}

// LowStock reports whether the item sits at or below its reorder level.
func (i Item) LowStock() bool {
	return i.StockOnHand <= i.ReorderLevel
}

// Defaults applied when an item is created without explicit thresholds.
const (
	DefaultReorderLevel = 2
	DefaultReorderQty   = 10
	DefaultUnit         = "each"
)
