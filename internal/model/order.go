package model

import "time"

type Order struct {
	BaseModel
	CustomerName string          `db:"customer_name" json:"customer_name"`
	Level        string          `db:"level" json:"level"`
	Status       string          `db:"status" json:"status"`
	Items        []OrderLineItem `db:"-" json:"items"`
	Receipts     []Receipt       `db:"-" json:"receipts"`
}

// OrderTotal sums the line totals of the order's items.
func (o *Order) OrderTotal() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.LineTotal()
	}
	return total
}

type OrderLineItem struct {
	ID          string  `db:"id" json:"id"`
	OrderID     string  `db:"order_id" json:"order_id,omitempty"`
	Level       string  `db:"level" json:"level"`
	ProductType string  `db:"product_type" json:"product_type"`
	Size        string  `db:"size" json:"size"`
	Quantity    int     `db:"quantity" json:"quantity"`
	UnitPrice   float64 `db:"unit_price" json:"unit_price"`
}

// LineTotal is derived, never stored.
func (i OrderLineItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

type PaymentType string

const (
	PaymentPartial PaymentType = "Partial Payment"
	PaymentFull    PaymentType = "Full Payment"
)

type Receipt struct {
	ID       string        `db:"id" json:"id"`
	OrderID  string        `db:"order_id" json:"order_id"`
	Type     PaymentType   `db:"type" json:"type"`
	ORNumber string        `db:"or_number" json:"or_number"`
	DatePaid time.Time     `db:"date_paid" json:"date_paid"`
	Amount   float64       `db:"amount" json:"amount"`
	Image    *ReceiptImage `db:"-" json:"image,omitempty"`
}

type ReceiptImage struct {
	Filename    string `db:"image_filename" json:"filename"`
	ContentType string `db:"image_content_type" json:"content_type"`
	Data        []byte `db:"image_data" json:"data"`
}
