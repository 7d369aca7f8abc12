package dto

type CreateSessionInput struct {
	OrderID string `json:"order_id"`
	Type    string `json:"type"`
}

// ImageInput carries an uploaded receipt image. Data is base64 in transit.
type ImageInput struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}
