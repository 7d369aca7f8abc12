package model

// CatalogEntry is one priced (level, productType, size) tuple from the
// product master data. Entries are immutable once fetched; they are the
// authoritative source for unit prices.
type CatalogEntry struct {
	ID          string  `db:"id" json:"id"`
	Level       string  `db:"level" json:"level"`
	ProductType string  `db:"product_type" json:"product_type"`
	Size        string  `db:"size" json:"size"`
	UnitPrice   float64 `db:"unit_price" json:"unit_price"`
}
