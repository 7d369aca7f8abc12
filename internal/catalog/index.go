package catalog

import (
	"github.com/stitchworks/uniform-order-service/internal/catalog/dto"
	"github.com/stitchworks/uniform-order-service/internal/model"
)

// Index is a three-level lookup (level → productType → size) over a flat
// catalog feed. It is immutable after Build and safe to share across any
// number of readers without synchronization.
type Index struct {
	byLevel        map[string][]string
	byLevelAndType map[string]map[string][]model.CatalogEntry
}

// NewIndex builds the lookup tables from a flat feed. Product types keep
// first-seen order; a duplicate (level, productType, size) tuple keeps the
// first entry seen.
func NewIndex(feed []model.CatalogEntry) *Index {
	idx := &Index{
		byLevel:        make(map[string][]string),
		byLevelAndType: make(map[string]map[string][]model.CatalogEntry),
	}

	for _, entry := range feed {
		types, ok := idx.byLevelAndType[entry.Level]
		if !ok {
			types = make(map[string][]model.CatalogEntry)
			idx.byLevelAndType[entry.Level] = types
		}

		if _, seen := types[entry.ProductType]; !seen {
			idx.byLevel[entry.Level] = append(idx.byLevel[entry.Level], entry.ProductType)
		}

		if hasSize(types[entry.ProductType], entry.Size) {
			continue
		}
		types[entry.ProductType] = append(types[entry.ProductType], entry)
	}

	return idx
}

func hasSize(entries []model.CatalogEntry, size string) bool {
	for _, e := range entries {
		if e.Size == size {
			return true
		}
	}
	return false
}

// ProductTypeOptions returns the distinct product types available for level,
// in first-seen order. Empty when level is unset or unknown.
func (x *Index) ProductTypeOptions(level string) []string {
	if x == nil || level == "" {
		return nil
	}
	types := x.byLevel[level]
	out := make([]string, len(types))
	copy(out, types)
	return out
}

// SizeOptions returns one option per catalog entry matching both keys.
func (x *Index) SizeOptions(level, productType string) []dto.Option {
	if x == nil || level == "" || productType == "" {
		return nil
	}
	entries := x.byLevelAndType[level][productType]
	out := make([]dto.Option, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.Option{Value: e.Size, Label: e.Size})
	}
	return out
}

// ResolvePrice returns the unit price of the exact (level, productType, size)
// match. ok is false when there is no match: the price is not yet determined,
// which callers must never collapse to zero.
func (x *Index) ResolvePrice(level, productType, size string) (float64, bool) {
	if x == nil {
		return 0, false
	}
	for _, e := range x.byLevelAndType[level][productType] {
		if e.Size == size {
			return e.UnitPrice, true
		}
	}
	return 0, false
}
