package catalog

import (
	"reflect"
	"testing"

	"github.com/stitchworks/uniform-order-service/internal/catalog/dto"
	"github.com/stitchworks/uniform-order-service/internal/model"
)

func testFeed() []model.CatalogEntry {
	return []model.CatalogEntry{
		{ID: "1", Level: "Grade School", ProductType: "Polo", Size: "S", UnitPrice: 350},
		{ID: "2", Level: "Grade School", ProductType: "Polo", Size: "M", UnitPrice: 380},
		{ID: "3", Level: "Grade School", ProductType: "Pants", Size: "M", UnitPrice: 420},
		{ID: "4", Level: "High School", ProductType: "Polo", Size: "L", UnitPrice: 400},
		// Duplicate product type rows must not duplicate the option.
		{ID: "5", Level: "Grade School", ProductType: "Polo", Size: "L", UnitPrice: 410},
	}
}

func TestProductTypeOptions(t *testing.T) {
	idx := NewIndex(testFeed())

	tests := []struct {
		name  string
		level string
		want  []string
	}{
		{name: "distinct types in first-seen order", level: "Grade School", want: []string{"Polo", "Pants"}},
		{name: "single type", level: "High School", want: []string{"Polo"}},
		{name: "unknown level", level: "College", want: []string{}},
		{name: "unset level", level: "", want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := idx.ProductTypeOptions(tc.level)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ProductTypeOptions(%q) = %v, want %v", tc.level, got, tc.want)
			}
		})
	}
}

func TestProductTypeOptionsNilIndex(t *testing.T) {
	var idx *Index
	if got := idx.ProductTypeOptions("Grade School"); len(got) != 0 {
		t.Errorf("nil index returned options: %v", got)
	}
}

func TestSizeOptions(t *testing.T) {
	idx := NewIndex(testFeed())

	tests := []struct {
		name        string
		level       string
		productType string
		want        []dto.Option
	}{
		{
			name:        "all matching sizes, no duplicates",
			level:       "Grade School",
			productType: "Polo",
			want: []dto.Option{
				{Value: "S", Label: "S"},
				{Value: "M", Label: "M"},
				{Value: "L", Label: "L"},
			},
		},
		{
			name:        "other type",
			level:       "Grade School",
			productType: "Pants",
			want:        []dto.Option{{Value: "M", Label: "M"}},
		},
		{name: "unset product type", level: "Grade School", productType: "", want: nil},
		{name: "unset level", level: "", productType: "Polo", want: nil},
		{name: "no match", level: "High School", productType: "Pants", want: []dto.Option{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := idx.SizeOptions(tc.level, tc.productType)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("SizeOptions(%q, %q) = %v, want %v", tc.level, tc.productType, got, tc.want)
			}
		})
	}
}

func TestSizeOptionsDedupesRepeatedFeedRows(t *testing.T) {
	feed := append(testFeed(), model.CatalogEntry{
		ID: "6", Level: "Grade School", ProductType: "Polo", Size: "M", UnitPrice: 999,
	})
	idx := NewIndex(feed)

	got := idx.SizeOptions("Grade School", "Polo")
	if len(got) != 3 {
		t.Fatalf("expected 3 size options, got %v", got)
	}

	// The first entry for a duplicated tuple stays authoritative.
	price, ok := idx.ResolvePrice("Grade School", "Polo", "M")
	if !ok || price != 380 {
		t.Errorf("ResolvePrice after duplicate row = (%v, %v), want (380, true)", price, ok)
	}
}

func TestResolvePrice(t *testing.T) {
	idx := NewIndex(testFeed())

	tests := []struct {
		name        string
		level       string
		productType string
		size        string
		wantPrice   float64
		wantOK      bool
	}{
		{name: "exact match", level: "Grade School", productType: "Polo", size: "S", wantPrice: 350, wantOK: true},
		{name: "another match", level: "High School", productType: "Polo", size: "L", wantPrice: 400, wantOK: true},
		{name: "size not in catalog", level: "High School", productType: "Polo", size: "XS", wantOK: false},
		{name: "type not in catalog", level: "High School", productType: "Skirt", size: "M", wantOK: false},
		{name: "empty keys", level: "", productType: "", size: "", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			price, ok := idx.ResolvePrice(tc.level, tc.productType, tc.size)
			if ok != tc.wantOK || price != tc.wantPrice {
				t.Errorf("ResolvePrice(%q, %q, %q) = (%v, %v), want (%v, %v)",
					tc.level, tc.productType, tc.size, price, ok, tc.wantPrice, tc.wantOK)
			}
		})
	}
}

func TestReloadReplacesIndex(t *testing.T) {
	old := NewIndex(testFeed())

	replacement := NewIndex([]model.CatalogEntry{
		{ID: "10", Level: "Grade School", ProductType: "Jacket", Size: "M", UnitPrice: 800},
	})

	if _, ok := replacement.ResolvePrice("Grade School", "Polo", "S"); ok {
		t.Error("replacement index still resolves entries from the old feed")
	}
	if _, ok := old.ResolvePrice("Grade School", "Jacket", "M"); ok {
		t.Error("old index resolves entries from the new feed")
	}
}
