package order

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/stitchworks/uniform-order-service/internal/model"
)

// PriceResolver is the slice of the catalog the aggregator depends on.
type PriceResolver interface {
	ResolvePrice(level, productType, size string) (float64, bool)
}

var validate = validator.New()

// DraftItem is one in-progress order row. Quantity holds the raw form input:
// blank or non-numeric counts as zero until validation.
type DraftItem struct {
	Level       string  `json:"level"`
	ProductType string  `json:"product_type"`
	Size        string  `json:"size"`
	Quantity    string  `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Draft owns the ordered list of line-item rows for one open order form.
// UnitPrice on every row is either 0 (incomplete) or the catalog price for
// that row's own current (level, productType, size) selection; the cascade
// rules below enforce that structurally.
type Draft struct {
	Items []DraftItem `json:"items"`

	resolver PriceResolver
}

func NewDraft(resolver PriceResolver) *Draft {
	return &Draft{resolver: resolver}
}

// AddItem appends an empty row for the given level.
func (d *Draft) AddItem(level string) {
	d.Items = append(d.Items, DraftItem{Level: level})
}

// RemoveItem deletes the row at index. Rows after it shift down by one, so
// callers must not cache indices across a removal.
func (d *Draft) RemoveItem(index int) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}
	d.Items = append(d.Items[:index], d.Items[index+1:]...)
	return nil
}

// SetProductType sets the row's product type and clears its size and unit
// price: a size/price pairing is only valid for one product type.
func (d *Draft) SetProductType(index int, productType string) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}
	item := &d.Items[index]
	item.ProductType = productType
	item.Size = ""
	item.UnitPrice = 0
	return nil
}

// SetSize sets the row's size and resolves its unit price from the catalog.
// When no catalog entry matches, the price stays 0 and the row is incomplete.
func (d *Draft) SetSize(index int, size string) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}
	item := &d.Items[index]
	item.Size = size
	if price, ok := d.resolver.ResolvePrice(item.Level, item.ProductType, size); ok {
		item.UnitPrice = price
	} else {
		item.UnitPrice = 0
	}
	return nil
}

func (d *Draft) SetQuantity(index int, quantity string) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}
	d.Items[index].Quantity = quantity
	return nil
}

// LineTotal is unitPrice × quantity, 0 when the quantity is blank or
// non-numeric.
func (d *Draft) LineTotal(index int) float64 {
	if index < 0 || index >= len(d.Items) {
		return 0
	}
	item := d.Items[index]
	return item.UnitPrice * float64(parseQuantity(item.Quantity))
}

func (d *Draft) OrderTotal() float64 {
	var total float64
	for i := range d.Items {
		total += d.LineTotal(i)
	}
	return total
}

func parseQuantity(raw string) int {
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || qty < 0 {
		return 0
	}
	return qty
}

func (d *Draft) checkIndex(index int) error {
	if index < 0 || index >= len(d.Items) {
		return fmt.Errorf("line item %d: %w", index, ErrItemIndex)
	}
	return nil
}

// submittedItem carries the rules every row must satisfy before submission.
type submittedItem struct {
	Level       string  `validate:"required"`
	ProductType string  `validate:"required"`
	Size        string  `validate:"required"`
	Quantity    int     `validate:"required,gt=0"`
	UnitPrice   float64 `validate:"required,gt=0"`
}

// Validate checks every row and returns per-row, per-field errors the caller
// can surface next to the inputs. At least one complete row is required.
func (d *Draft) Validate() error {
	verr := &ValidationError{Rows: map[int]map[string]string{}}

	if len(d.Items) == 0 {
		verr.Message = "at least one line item is required"
		return verr
	}

	for i, item := range d.Items {
		row := submittedItem{
			Level:       item.Level,
			ProductType: item.ProductType,
			Size:        item.Size,
			Quantity:    parseQuantity(item.Quantity),
			UnitPrice:   item.UnitPrice,
		}

		err := validate.Struct(row)
		if err == nil {
			continue
		}

		fields := map[string]string{}
		var invalid validator.ValidationErrors
		if !errors.As(err, &invalid) {
			fields["row"] = err.Error()
			verr.Rows[i] = fields
			continue
		}
		for _, fe := range invalid {
			switch fe.Field() {
			case "Level":
				fields["level"] = "level is required"
			case "ProductType":
				fields["product_type"] = "product type is required"
			case "Size":
				fields["size"] = "size is required"
			case "Quantity":
				fields["quantity"] = "quantity must be a positive whole number"
			case "UnitPrice":
				// A complete selection with no price means the catalog has
				// no matching entry; never silently default it.
				if item.ProductType != "" && item.Size != "" {
					fields["unit_price"] = "no catalog price for this selection"
				} else {
					fields["unit_price"] = "unit price is required"
				}
			}
		}
		verr.Rows[i] = fields
	}

	if len(verr.Rows) > 0 {
		return verr
	}
	return nil
}

// ToLineItems converts a validated draft into the persistable payload.
func (d *Draft) ToLineItems() []model.OrderLineItem {
	items := make([]model.OrderLineItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, model.OrderLineItem{
			Level:       item.Level,
			ProductType: item.ProductType,
			Size:        item.Size,
			Quantity:    parseQuantity(item.Quantity),
			UnitPrice:   item.UnitPrice,
		})
	}
	return items
}
