package order

import (
	"errors"
	"math"
	"testing"
)

// stubResolver resolves prices from a fixed table keyed by
// level|productType|size.
type stubResolver struct {
	prices map[string]float64
}

func (r stubResolver) ResolvePrice(level, productType, size string) (float64, bool) {
	price, ok := r.prices[level+"|"+productType+"|"+size]
	return price, ok
}

func newTestResolver() stubResolver {
	return stubResolver{prices: map[string]float64{
		"Grade School|Polo|S":  350,
		"Grade School|Polo|M":  380,
		"Grade School|Pants|M": 420,
	}}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAddItemStartsEmpty(t *testing.T) {
	d := NewDraft(newTestResolver())
	d.AddItem("Grade School")

	item := d.Items[0]
	if item.ProductType != "" || item.Size != "" || item.Quantity != "" || item.UnitPrice != 0 {
		t.Errorf("new row is not empty: %+v", item)
	}
}

func TestSetSizeResolvesPrice(t *testing.T) {
	d := NewDraft(newTestResolver())
	d.AddItem("Grade School")

	if err := d.SetProductType(0, "Polo"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSize(0, "M"); err != nil {
		t.Fatal(err)
	}

	if got := d.Items[0].UnitPrice; got != 380 {
		t.Errorf("UnitPrice = %v, want 380", got)
	}
}

func TestSetSizeWithoutCatalogMatchLeavesRowIncomplete(t *testing.T) {
	d := NewDraft(newTestResolver())
	d.AddItem("Grade School")
	d.SetProductType(0, "Polo")

	if err := d.SetSize(0, "XXL"); err != nil {
		t.Fatal(err)
	}
	if got := d.Items[0].UnitPrice; got != 0 {
		t.Errorf("unresolved size produced price %v, want 0", got)
	}
}

func TestProductTypeChangeClearsSizeAndPrice(t *testing.T) {
	d := NewDraft(newTestResolver())
	d.AddItem("Grade School")
	d.SetProductType(0, "Polo")
	d.SetSize(0, "M")
	d.SetQuantity(0, "2")

	// Switching the type invalidates the size/price pairing; the stale
	// Polo price must never survive onto the Pants row.
	if err := d.SetProductType(0, "Pants"); err != nil {
		t.Fatal(err)
	}

	item := d.Items[0]
	if item.Size != "" {
		t.Errorf("size survived product type change: %q", item.Size)
	}
	if item.UnitPrice != 0 {
		t.Errorf("unit price survived product type change: %v", item.UnitPrice)
	}
	if got := d.LineTotal(0); got != 0 {
		t.Errorf("LineTotal after cascade = %v, want 0", got)
	}
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		quantity string
		want     float64
	}{
		{name: "numeric quantity", quantity: "3", want: 1140},
		{name: "blank quantity", quantity: "", want: 0},
		{name: "non-numeric quantity", quantity: "abc", want: 0},
		{name: "negative quantity treated as zero", quantity: "-2", want: 0},
		{name: "whitespace around quantity", quantity: " 2 ", want: 760},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDraft(newTestResolver())
			d.AddItem("Grade School")
			d.SetProductType(0, "Polo")
			d.SetSize(0, "M")
			d.SetQuantity(0, tc.quantity)

			if got := d.LineTotal(0); !almostEqual(got, tc.want) {
				t.Errorf("LineTotal = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOrderTotalSumsAllRows(t *testing.T) {
	d := NewDraft(newTestResolver())
	d.AddItem("Grade School")
	d.SetProductType(0, "Polo")
	d.SetSize(0, "S")
	d.SetQuantity(0, "2") // 700

	d.AddItem("Grade School")
	d.SetProductType(1, "Pants")
	d.SetSize(1, "M")
	d.SetQuantity(1, "1") // 420

	d.AddItem("Grade School") // incomplete, contributes 0

	if got := d.OrderTotal(); !almostEqual(got, 1120) {
		t.Errorf("OrderTotal = %v, want 1120", got)
	}
}

func TestRemoveThenReAddYieldsSameTotal(t *testing.T) {
	build := func(d *Draft, at int) {
		d.AddItem("Grade School")
		d.SetProductType(at, "Polo")
		d.SetSize(at, "M")
		d.SetQuantity(at, "2")
	}

	d := NewDraft(newTestResolver())
	build(d, 0)
	build(d, 1)
	before := d.OrderTotal()

	if err := d.RemoveItem(0); err != nil {
		t.Fatal(err)
	}
	build(d, 1)

	if got := d.OrderTotal(); !almostEqual(got, before) {
		t.Errorf("OrderTotal after remove/re-add = %v, want %v", got, before)
	}
}

func TestRemoveItemShiftsIndices(t *testing.T) {
	d := NewDraft(newTestResolver())
	d.AddItem("Grade School")
	d.SetProductType(0, "Polo")
	d.AddItem("Grade School")
	d.SetProductType(1, "Pants")

	if err := d.RemoveItem(0); err != nil {
		t.Fatal(err)
	}
	if got := d.Items[0].ProductType; got != "Pants" {
		t.Errorf("row 0 after removal = %q, want Pants", got)
	}

	if err := d.RemoveItem(5); !errors.Is(err, ErrItemIndex) {
		t.Errorf("RemoveItem(5) = %v, want ErrItemIndex", err)
	}
}

func TestValidate(t *testing.T) {
	complete := func(d *Draft) {
		d.AddItem("Grade School")
		d.SetProductType(0, "Polo")
		d.SetSize(0, "M")
		d.SetQuantity(0, "2")
	}

	t.Run("empty draft rejected", func(t *testing.T) {
		d := NewDraft(newTestResolver())
		err := d.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Message == "" {
			t.Fatalf("Validate() = %v, want at-least-one-item error", err)
		}
	})

	t.Run("complete draft passes", func(t *testing.T) {
		d := NewDraft(newTestResolver())
		complete(d)
		if err := d.Validate(); err != nil {
			t.Fatalf("Validate() = %v, want nil", err)
		}
	})

	t.Run("per-field errors reported per row", func(t *testing.T) {
		d := NewDraft(newTestResolver())
		complete(d)
		d.AddItem("Grade School") // row 1: everything missing
		d.SetProductType(1, "Polo")

		err := d.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Validate() = %v, want *ValidationError", err)
		}
		if _, ok := verr.Rows[0]; ok {
			t.Error("complete row 0 flagged")
		}
		fields := verr.Rows[1]
		if fields["size"] == "" {
			t.Error("missing size not flagged")
		}
		if fields["quantity"] == "" {
			t.Error("missing quantity not flagged")
		}
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		d := NewDraft(newTestResolver())
		complete(d)
		d.SetQuantity(0, "0")

		err := d.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Rows[0]["quantity"] == "" {
			t.Fatalf("Validate() = %v, want quantity error", err)
		}
	})

	t.Run("unresolved catalog selection flagged on price", func(t *testing.T) {
		d := NewDraft(newTestResolver())
		d.AddItem("Grade School")
		d.SetProductType(0, "Polo")
		d.SetSize(0, "XXL") // no catalog entry
		d.SetQuantity(0, "1")

		err := d.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Rows[0]["unit_price"] == "" {
			t.Fatalf("Validate() = %v, want unit_price error", err)
		}
	})
}

func TestToLineItems(t *testing.T) {
	d := NewDraft(newTestResolver())
	d.AddItem("Grade School")
	d.SetProductType(0, "Polo")
	d.SetSize(0, "S")
	d.SetQuantity(0, "4")

	items := d.ToLineItems()
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	item := items[0]
	if item.Quantity != 4 || item.UnitPrice != 350 {
		t.Errorf("item = %+v, want quantity 4 price 350", item)
	}
	if got := item.LineTotal(); !almostEqual(got, 1400) {
		t.Errorf("LineTotal = %v, want 1400", got)
	}
}
