package dto

type SubmitDraftInput struct {
	DraftID      string
	CustomerName string
}

type AddItemInput struct {
	Level string `json:"level"`
}

type UpdateItemInput struct {
	ProductType *string `json:"product_type"`
	Size        *string `json:"size"`
	Quantity    *string `json:"quantity"`
}
