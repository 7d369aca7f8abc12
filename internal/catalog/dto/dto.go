package dto

// Option is a selectable value/label pair for cascading selects.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
