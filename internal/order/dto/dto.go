package dto

type DraftItemView struct {
	Level       string  `json:"level"`
	ProductType string  `json:"product_type"`
	Size        string  `json:"size"`
	Quantity    string  `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

type DraftView struct {
	ID         string          `json:"id"`
	Items      []DraftItemView `json:"items"`
	OrderTotal float64         `json:"order_total"`
}
